package tui

import (
	"strings"

	"github.com/tubedash/tubedash/internal/api"
	"github.com/tubedash/tubedash/internal/dashboard"
)

// renderDetail builds the right pane: video header, rendered summary,
// then the chat transcript if one exists. spinnerView is empty unless
// something is in flight. The returned text is already scrolled.
func renderDetail(sel *dashboard.Selection, chat dashboard.ChatSession, md MarkdownRenderer, width, height, scroll int, spinnerView string) string {
	if sel == nil {
		return centerText("Select a video to read its summary", width, height)
	}
	if width < 10 {
		width = 30
	}

	var b strings.Builder

	b.WriteString(detailTitleStyle.Render(wrapText(sel.Title, width)))
	b.WriteString("\n")
	meta := detailChannelStyle.Render(sel.ChannelTitle)
	if sel.Published != "" {
		meta += detailMetaStyle.Render(" · " + publishedLabel(sel.Published))
	}
	b.WriteString(meta)
	b.WriteString("\n")
	if len(sel.Tags) > 0 {
		var chips []string
		for _, t := range sel.Tags {
			chips = append(chips, cardTagStyle.Render(t))
		}
		b.WriteString(strings.Join(chips, " "))
		b.WriteString("\n")
	}
	b.WriteString(detailLinkStyle.Render(truncateStr(sel.Link, width)))
	b.WriteString("\n\n")

	switch {
	case sel.LoadingDetails:
		b.WriteString(spinnerView)
		b.WriteString(detailMetaStyle.Render(" Loading summary..."))
	case sel.FullContent != "":
		b.WriteString(md.Render(sel.FullContent, width))
	case sel.Preview != "":
		b.WriteString(md.Render(sel.Preview, width))
	default:
		b.WriteString(detailMetaStyle.Render("No summary available yet."))
	}

	if chat.VideoID == sel.ID && len(chat.Messages) > 0 {
		b.WriteString("\n\n")
		b.WriteString(detailMetaStyle.Render(strings.Repeat("─", min(width, 40))))
		b.WriteString("\n")
		b.WriteString(renderTranscript(chat.Messages, md, width, spinnerView))
	}

	return scrollLines(b.String(), height, scroll)
}

func renderTranscript(messages []api.ChatMessage, md MarkdownRenderer, width int, spinnerView string) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch m.Role {
		case api.RoleUser:
			b.WriteString(chatUserStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(wrapText(m.Content, width))
		default:
			b.WriteString(chatAssistantStyle.Render("Assistant"))
			b.WriteString("\n")
			if m.Content == "" {
				b.WriteString(spinnerView)
				b.WriteString(detailMetaStyle.Render(" thinking..."))
			} else {
				b.WriteString(md.Render(m.Content, width))
			}
		}
	}
	return b.String()
}

// scrollLines clips content to height lines starting at scroll,
// clamping so the last page stays full.
func scrollLines(content string, height, scroll int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= height {
		return content
	}
	maxScroll := len(lines) - height
	if scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return strings.Join(lines[scroll:scroll+height], "\n")
}

// renderMindmap shows the mermaid source of a mindmap full screen.
// Rendering the graph itself needs a browser; the source is still
// readable as an outline.
func renderMindmap(title, source string, width, height, scroll int) string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(truncateStr("Mindmap · "+title, width)))
	b.WriteString("\n\n")
	b.WriteString(wrapText(source, width))
	return scrollLines(b.String(), height, scroll)
}
