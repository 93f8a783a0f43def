package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour,
// matching the terminal's light or dark background automatically. Used
// for chart summaries and state doc prose.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
