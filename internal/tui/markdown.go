package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer turns a markdown document into terminal-ready text
// wrapped to the given width.
type MarkdownRenderer interface {
	Render(src string, width int) string
}

// glamourRenderer renders markdown with ANSI styling. The underlying
// term renderer is rebuilt when the width changes (terminal resize).
type glamourRenderer struct {
	width int
	tr    *glamour.TermRenderer
}

func newGlamourRenderer() *glamourRenderer {
	return &glamourRenderer{}
}

func (g *glamourRenderer) Render(src string, width int) string {
	if width < 10 {
		width = 10
	}
	if g.tr == nil || g.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return src
		}
		g.tr = tr
		g.width = width
	}
	out, err := g.tr.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}

// plainRenderer skips ANSI styling and only word-wraps. Used when
// glamour cannot be initialized and in headless tests.
type plainRenderer struct{}

func (plainRenderer) Render(src string, width int) string {
	return wrapText(src, width)
}

// wrapText wraps at word boundaries, preserving existing newlines.
func wrapText(s string, width int) string {
	if width < 1 {
		return s
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if len([]rune(line)) <= width {
			out = append(out, line)
			continue
		}
		var cur string
		for _, word := range strings.Fields(line) {
			if cur == "" {
				cur = word
			} else if len([]rune(cur))+1+len([]rune(word)) <= width {
				cur += " " + word
			} else {
				out = append(out, cur)
				cur = word
			}
		}
		out = append(out, cur)
	}
	return strings.Join(out, "\n")
}
