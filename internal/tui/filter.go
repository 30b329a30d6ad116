package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tubedash/tubedash/internal/api"
)

// filterBar is the channel chip row. Channels come from the dataset
// itself, so the set is rebuilt after every refresh.
type filterBar struct {
	channels     []string
	active       map[string]bool
	unreadOnly   bool
	filterMode   bool
	filterCursor int
}

func newFilterBar() filterBar {
	return filterBar{active: make(map[string]bool)}
}

// setChannels replaces the chip set, dropping active marks for
// channels that no longer exist.
func (f *filterBar) setChannels(channels []string) {
	f.channels = channels
	for c := range f.active {
		found := false
		for _, have := range channels {
			if have == c {
				found = true
				break
			}
		}
		if !found {
			delete(f.active, c)
		}
	}
	if f.filterCursor >= len(channels) {
		f.filterCursor = max(0, len(channels)-1)
	}
}

func (f *filterBar) toggle(channel string) {
	if f.active[channel] {
		delete(f.active, channel)
	} else {
		f.active[channel] = true
	}
}

func (f *filterBar) toggleCurrent() {
	if f.filterCursor < len(f.channels) {
		f.toggle(f.channels[f.filterCursor])
	}
}

func (f *filterBar) activeChannels() []string {
	if len(f.active) == 0 {
		return nil // nil = all channels
	}
	var out []string
	for _, c := range f.channels {
		if f.active[c] {
			out = append(out, c)
		}
	}
	return out
}

func (f *filterBar) activeLabel() string {
	active := f.activeChannels()
	label := "All"
	if active != nil {
		label = strings.Join(active, ", ")
	}
	if f.unreadOnly {
		label += " · unread"
	}
	return label
}

// matches reports whether a video passes the chip and search filters.
func (f *filterBar) matches(v api.Video, search string) bool {
	if f.unreadOnly && v.IsRead {
		return false
	}
	if len(f.active) > 0 && !f.active[v.ChannelTitle] {
		return false
	}
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(v.Title), q) ||
		strings.Contains(strings.ToLower(v.ChannelTitle), q) ||
		strings.Contains(strings.ToLower(v.Preview), q)
}

// channelsOf extracts the sorted unique channel titles of a dataset.
func channelsOf(videos []api.Video) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range videos {
		if v.ChannelTitle == "" || seen[v.ChannelTitle] {
			continue
		}
		seen[v.ChannelTitle] = true
		out = append(out, v.ChannelTitle)
	}
	sort.Strings(out)
	return out
}

func (f *filterBar) render(width int) string {
	sep := chipSeparatorStyle.Render(" · ")
	var parts []string

	if len(f.active) == 0 {
		parts = append(parts, chipActiveStyle.Render("All"))
	} else {
		parts = append(parts, chipInactiveStyle.Render("All"))
	}

	for i, c := range f.channels {
		style := chipInactiveStyle
		if f.active[c] {
			style = chipActiveStyle
		}
		label := c
		if f.filterMode && i == f.filterCursor {
			label = "[" + c + "]"
		}
		parts = append(parts, style.Render(label))
	}

	if f.unreadOnly {
		parts = append(parts, chipActiveStyle.Render("unread"))
	}

	// Build row with · separators, stopping when we'd exceed width
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
