// Package render formats pipelines and their results for the console.
//
// TreeRenderer is an engine.Visitor that prints the step graph as an
// indented tree. Results and Descriptors print aligned tables whose numbers
// are grouped and rounded for the configured language. Styling uses lipgloss
// and can be switched off for files, pipes and golden tests.
package render
