package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/tubedash/tubedash/internal/api"
)

// parsePublished accepts the timestamp shapes the server has been seen
// emitting: RFC3339 and a plain date.
func parsePublished(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func publishedLabel(s string) string {
	if t, ok := parsePublished(s); ok {
		return relativeTime(t)
	}
	return s
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderCard(v api.Video, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	marker := "  "
	titleStyle := cardTitleStyle
	if v.IsRead {
		titleStyle = cardReadStyle
	}
	if selected {
		marker = "> "
		titleStyle = cardSelectedStyle
	}
	title := titleStyle.Render(marker + truncateStr(v.Title, width-4))

	meta := "  " + cardChannelStyle.Render(truncateStr(v.ChannelTitle, width/2)) +
		" " + cardTimeStyle.Render("· "+publishedLabel(v.Published))
	if !v.HasSummary {
		meta += " " + cardTimeStyle.Render("· pending")
	}
	if v.IsRead {
		meta += " " + cardTimeStyle.Render("· read")
	}

	return title + "\n" + meta
}

func renderCardList(videos []api.Video, cursor int, height int, width int) string {
	if len(videos) == 0 {
		return centerText("No videos found", width, height)
	}

	// Each card is 2 lines + 1 blank line = 3 lines
	cardHeight := 3
	visible := height / cardHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(videos) {
		end = len(videos)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderCard(videos[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func centerText(s string, width, height int) string {
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", max(0, (width-len(s))/2)) + s
}
