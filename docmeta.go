package toolbelt

import "strings"

// Doc tag labels recognized in tool documentation text. Matching is
// case-sensitive and anchored to the start of a line.
const (
	descTag  = "Desc:"
	usageTag = "Usage:"
)

// docMeta is the description and usage hint extracted from doc text.
type docMeta struct {
	description string
	usage       string
}

// parseDocText extracts structured metadata from free-text documentation.
// A line starting with "Desc:" begins the description section and one starting
// with "Usage:" begins the usage section; subsequent non-blank untagged lines
// continue the current section and are joined with single spaces. Without a
// "Desc:" tag the first non-blank line serves as description; without a
// "Usage:" tag the usage hint is empty.
func parseDocText(doc string) docMeta {
	var meta docMeta
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return meta
	}
	lines := strings.Split(doc, "\n")
	meta.description = strings.TrimSpace(lines[0])

	section := ""
	var content []string
	flush := func() {
		if len(content) == 0 {
			return
		}
		switch section {
		case "desc":
			meta.description = strings.Join(content, " ")
		case "usage":
			meta.usage = strings.Join(content, " ")
		}
	}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, descTag):
			flush()
			section = "desc"
			content = sectionStart(line, descTag)
		case strings.HasPrefix(line, usageTag):
			flush()
			section = "usage"
			content = sectionStart(line, usageTag)
		case section != "" && line != "":
			content = append(content, line)
		}
	}
	flush()
	return meta
}

func sectionStart(line, tag string) []string {
	rest := strings.TrimSpace(line[len(tag):])
	if rest == "" {
		return nil
	}
	return []string{rest}
}
