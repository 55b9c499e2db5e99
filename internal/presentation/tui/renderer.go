package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// When the terminal renderer cannot be built, markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// HelpMarkdown turns a command's plain help text into markdown: the first
// line becomes the heading, the rest is kept verbatim in a code block.
func HelpMarkdown(name, help string) string {
	help = strings.TrimRight(help, "\n")
	first, rest, _ := strings.Cut(help, "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	if summary := strings.TrimSpace(strings.TrimPrefix(first, name+" - ")); summary != "" && summary != name {
		fmt.Fprintf(&b, "%s\n\n", summary)
	}
	if rest = strings.Trim(rest, "\n"); rest != "" {
		fmt.Fprintf(&b, "```\n%s\n```\n", rest)
	}
	return b.String()
}
