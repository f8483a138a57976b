package toolbelt

import "strings"

// MarkdownDocs renders the registered tools as a markdown table in
// registration order, with a column per metadata field (name, description,
// usage hint). Agents drop the output into system prompts. Returns
// "No tools registered." for an empty toolkit.
func (k *Toolkit) MarkdownDocs() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.tools.Len() == 0 {
		return "No tools registered."
	}
	var b strings.Builder
	b.WriteString("### Tools\n\n")
	b.WriteString("| Tool | Description | When to Use |\n")
	b.WriteString("| --- | --- | --- |\n")
	for pair := k.tools.Oldest(); pair != nil; pair = pair.Next() {
		t := pair.Value
		desc := t.Description()
		if desc == "" {
			desc = "No description available"
		}
		b.WriteString("| `")
		b.WriteString(t.Name())
		b.WriteString("` | ")
		b.WriteString(markdownCell(desc))
		b.WriteString(" | ")
		b.WriteString(markdownCell(t.Usage()))
		b.WriteString(" |\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// markdownCell flattens a value into a single table cell.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
