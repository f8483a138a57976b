package testutil

import "github.com/toolbelt-ai/toolbelt"

// NewTestToolkit builds a Toolkit preloaded with the given tools. Registration
// failures panic: tests control their inputs, so a duplicate name is a test
// bug, not a runtime condition.
func NewTestToolkit(tools ...toolbelt.Tool) *toolbelt.Toolkit {
	kit := toolbelt.NewToolkit()
	for _, t := range tools {
		if err := kit.Add(t); err != nil {
			panic(err)
		}
	}
	return kit
}
