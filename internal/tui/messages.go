package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tubedash/tubedash/internal/api"
	"github.com/tubedash/tubedash/internal/dashboard"
)

// videosLoadedMsg carries the result of a direct /api/videos fetch.
type videosLoadedMsg struct {
	videos []api.Video
	err    error
}

// detailLoadedMsg carries a fetched summary body for one video.
type detailLoadedMsg struct {
	videoID string
	content string
	err     error
}

type toggleReadMsg struct {
	video api.Video
	err   error
}

type mindmapLoadedMsg struct {
	videoID string
	source  string
	err     error
}

type resetDoneMsg struct {
	err error
}

type appErrMsg struct {
	err error
}

// syncEventMsg delivers one event from a running refresh cycle. The
// channel rides along so the pump command can re-arm itself.
type syncEventMsg struct {
	ev dashboard.Event
	ch <-chan dashboard.Event
}

type syncClosedMsg struct{}

type chatEventMsg struct {
	ev dashboard.Event
	ch <-chan dashboard.Event
}

type chatClosedMsg struct{}

// listenSync blocks on the refresh event channel and forwards one
// event per command into the update loop.
func listenSync(ch <-chan dashboard.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return syncClosedMsg{}
		}
		return syncEventMsg{ev: ev, ch: ch}
	}
}

func listenChat(ch <-chan dashboard.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return chatClosedMsg{}
		}
		return chatEventMsg{ev: ev, ch: ch}
	}
}
