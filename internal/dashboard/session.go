// Package dashboard holds the client-side state machine behind the TUI:
// the record collection, the selected-record detail view, the per-record
// chat transcript, and the background refresh loop. A Session is driven
// from a single goroutine (the event loop); the workers in this package
// never touch it directly, they only emit events for the loop to apply.
package dashboard

import (
	"github.com/tubedash/tubedash/internal/api"
)

// DetailLoadError is the body shown when the full summary fetch fails.
// Re-selecting the record is the retry path.
const DetailLoadError = "## Error\nCould not load the full summary content."

// chatApology replaces an assistant turn that failed before any content
// arrived; chatInterrupted is appended when the stream died mid-answer.
const (
	chatApology     = "Sorry, something went wrong while answering. Please try again."
	chatInterrupted = "\n\n*(answer interrupted)*"
)

// Selection is the optimistic detail view of one record: the card fields
// the list already had, plus the full content once it arrives.
type Selection struct {
	api.Video
	FullContent    string
	LoadingDetails bool
}

// ChatSession is the transcript scoped to exactly one video. It is
// discarded wholesale whenever the selected video id changes.
type ChatSession struct {
	VideoID  string
	Messages []api.ChatMessage
}

// Session is the whole dashboard state. The zero value is ready to use.
type Session struct {
	Videos   []api.Video
	Selected *Selection
	Chat     ChatSession

	// Busy mirrors the refresh job: set when a sync starts, cleared
	// exactly once when the loop finishes or fails.
	Busy bool

	// turn is the token of the newest chat turn. Stream events carrying
	// any older token are stale and dropped.
	turn int
}

// ReplaceVideos installs a fresh server snapshot wholesale. The server's
// id set is authoritative: records it no longer reports disappear here.
func (s *Session) ReplaceVideos(videos []api.Video) {
	s.Videos = videos
}

// ApplyVideo patches a single record in place, keyed by id. Used for
// per-record acks such as toggle-read.
func (s *Session) ApplyVideo(v api.Video) {
	for i := range s.Videos {
		if s.Videos[i].ID == v.ID {
			s.Videos[i] = v
			break
		}
	}
	if s.Selected != nil && s.Selected.ID == v.ID {
		full, loading := s.Selected.FullContent, s.Selected.LoadingDetails
		s.Selected.Video = v
		s.Selected.FullContent = full
		s.Selected.LoadingDetails = loading
	}
}

// Select publishes the optimistic detail view for v before any fetch is
// issued, so the UI never shows a stale not-loading state. Switching to
// a different video resets the chat session and invalidates any stream
// still in flight for the old one.
func (s *Session) Select(v api.Video) {
	if s.Chat.VideoID != v.ID {
		s.Chat = ChatSession{VideoID: v.ID}
		s.turn++
	}
	s.Selected = &Selection{Video: v, LoadingDetails: true}
}

// ClearSelection closes the detail view and discards its transcript.
func (s *Session) ClearSelection() {
	s.Selected = nil
	s.Chat = ChatSession{}
	s.turn++
}

// ResolveDetail reconciles a finished detail fetch. The result is
// applied only if videoID still matches the current selection; a stale
// response is dropped and false returned.
func (s *Session) ResolveDetail(videoID, content string, fetchErr error) bool {
	if s.Selected == nil || s.Selected.ID != videoID {
		return false
	}
	if fetchErr != nil {
		s.Selected.FullContent = DetailLoadError
	} else {
		s.Selected.FullContent = content
	}
	s.Selected.LoadingDetails = false
	return true
}

// BeginTurn appends the user's message and an empty assistant
// placeholder synchronously, and hands back the token guarding this
// turn plus the history to send (the placeholder excluded). ok is false
// when no record is selected.
func (s *Session) BeginTurn(text string) (token int, history []api.ChatMessage, ok bool) {
	if s.Selected == nil || s.Chat.VideoID == "" {
		return 0, nil, false
	}
	s.Chat.Messages = append(s.Chat.Messages,
		api.ChatMessage{Role: api.RoleUser, Content: text})

	history = make([]api.ChatMessage, len(s.Chat.Messages))
	copy(history, s.Chat.Messages)

	s.Chat.Messages = append(s.Chat.Messages,
		api.ChatMessage{Role: api.RoleAssistant})

	s.turn++
	return s.turn, history, true
}

// ApplyChunk overwrites the assistant placeholder with the stream's full
// accumulator. Only the newest turn may write, and only while the last
// transcript entry is an assistant message.
func (s *Session) ApplyChunk(token int, content string) bool {
	last := s.streamTarget(token)
	if last == nil {
		return false
	}
	last.Content = content
	return true
}

// FinishTurn closes out a stream. A nil error leaves the transcript as
// the chunks built it. On failure, accumulated content gets a short
// diagnostic suffix; an empty placeholder gets the apology message.
func (s *Session) FinishTurn(token int, streamErr error) bool {
	last := s.streamTarget(token)
	if last == nil {
		return false
	}
	if streamErr == nil {
		return true
	}
	if last.Content == "" {
		last.Content = chatApology
	} else {
		last.Content += chatInterrupted
	}
	return true
}

func (s *Session) streamTarget(token int) *api.ChatMessage {
	if token != s.turn || len(s.Chat.Messages) == 0 {
		return nil
	}
	last := &s.Chat.Messages[len(s.Chat.Messages)-1]
	if last.Role != api.RoleAssistant {
		return nil
	}
	return last
}

// Reset restores a freshly initialized state. The turn counter keeps
// advancing so streams from before the reset stay invalid.
func (s *Session) Reset() {
	*s = Session{turn: s.turn + 1}
}
