package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

var renderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err == nil {
		renderer = r
	}
}

// RenderMarkdown converts a markdown string to styled terminal output,
// falling back to the raw input if glamour is unavailable or fails.
func RenderMarkdown(md string) string {
	if renderer == nil || strings.TrimSpace(md) == "" {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Summary describes the outcome of a run for Report.
type Summary struct {
	Ran     []string
	Skipped []string
	Failed  []string
}

// Report renders a one-paragraph markdown summary of a finished run
// (SPEC_FULL §4.O/P): steps run, skipped, and failed.
func Report(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Done (%d steps run)\n\n", len(s.Ran))
	if len(s.Ran) > 0 {
		b.WriteString("**Ran:** ")
		b.WriteString(strings.Join(s.Ran, ", "))
		b.WriteString("\n\n")
	}
	if len(s.Skipped) > 0 {
		b.WriteString("**Skipped:** ")
		b.WriteString(strings.Join(s.Skipped, ", "))
		b.WriteString("\n\n")
	}
	if len(s.Failed) > 0 {
		b.WriteString("**Failed:** ")
		b.WriteString(strings.Join(s.Failed, ", "))
		b.WriteString("\n\n")
	}
	return RenderMarkdown(b.String())
}
