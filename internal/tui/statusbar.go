package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(videoCount, unreadCount int, filterLabel string, width int, mode mode, syncing bool) string {
	left := fmt.Sprintf(" %d videos", videoCount)
	if unreadCount > 0 {
		left += fmt.Sprintf(" · %d unread", unreadCount)
	}
	if filterLabel != "All" {
		left += " · " + filterLabel
	}
	if syncing {
		left += " (syncing...)"
	}

	var right string
	switch mode {
	case modeSearch:
		right = " esc cancel  enter apply "
	case modeFilter:
		right = " space toggle  r unread  esc done "
	case modeChat:
		right = " enter send  esc close "
	case modeMindmap:
		right = " j/k scroll  esc back "
	case modeConfirmReset:
		right = " y wipe everything  n cancel "
	default:
		right = " enter read  c chat  u sync  / search  ? help  q quit "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
