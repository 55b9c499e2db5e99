package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpMarkdown(t *testing.T) {
	md := HelpMarkdown("head", "head - first N items\n\nUsage: head --n 10\n")
	assert.True(t, strings.HasPrefix(md, "# head\n\nfirst N items\n\n"))
	assert.Contains(t, md, "```\nUsage: head --n 10\n```\n")

	md = HelpMarkdown("x", "x\n")
	assert.Equal(t, "# x\n\n", md)
}

func TestStatus_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	s := NewStatus(&buf)
	s.OK("%d items", 3)
	s.Waiting("approval")
	s.Fail("boom")

	out := buf.String()
	assert.Contains(t, out, "ok 3 items\n")
	assert.Contains(t, out, "waiting approval\n")
	assert.Contains(t, out, "error boom\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|____")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Title\n")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
