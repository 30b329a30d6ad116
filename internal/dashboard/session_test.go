package dashboard

import (
	"errors"
	"testing"

	"github.com/tubedash/tubedash/internal/api"
)

func video(id, title string) api.Video {
	return api.Video{ID: id, Title: title, ChannelTitle: "chan-" + id}
}

func TestReplaceVideosIsAuthoritative(t *testing.T) {
	var s Session
	s.ReplaceVideos([]api.Video{video("a", "A"), video("b", "B"), video("c", "C")})

	// Server dropped "b" and added "d": local state must match exactly.
	s.ReplaceVideos([]api.Video{video("a", "A2"), video("c", "C"), video("d", "D")})

	got := map[string]bool{}
	for _, v := range s.Videos {
		if got[v.ID] {
			t.Fatalf("duplicate id %q after refresh", v.ID)
		}
		got[v.ID] = true
	}
	want := map[string]bool{"a": true, "c": true, "d": true}
	if len(got) != len(want) {
		t.Fatalf("id set = %v, want %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Errorf("missing id %q", id)
		}
	}
	if s.Videos[0].Title != "A2" {
		t.Errorf("refresh did not overwrite fields: %q", s.Videos[0].Title)
	}
}

func TestSelectPublishesOptimisticView(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))

	if s.Selected == nil || s.Selected.ID != "a" {
		t.Fatal("no selection published")
	}
	if !s.Selected.LoadingDetails {
		t.Error("LoadingDetails not set before fetch")
	}
	if s.Selected.FullContent != "" {
		t.Error("FullContent should be empty before fetch")
	}
	if s.Chat.VideoID != "a" || len(s.Chat.Messages) != 0 {
		t.Error("chat session not scoped to the new selection")
	}
}

func TestResolveDetailRaceGuard(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))
	s.Select(video("b", "B"))

	// The fetch issued for "a" resolves after the user moved to "b".
	if s.ResolveDetail("a", "stale content", nil) {
		t.Error("stale detail response was applied")
	}
	if s.Selected.FullContent != "" || !s.Selected.LoadingDetails {
		t.Error("selection state mutated by stale response")
	}

	if !s.ResolveDetail("b", "fresh content", nil) {
		t.Error("matching detail response was dropped")
	}
	if s.Selected.FullContent != "fresh content" || s.Selected.LoadingDetails {
		t.Errorf("selection not reconciled: %+v", s.Selected)
	}
}

func TestResolveDetailFailure(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))

	if !s.ResolveDetail("a", "", errors.New("boom")) {
		t.Fatal("failure for current selection must still reconcile")
	}
	if s.Selected.FullContent != DetailLoadError {
		t.Errorf("FullContent = %q, want the fixed error body", s.Selected.FullContent)
	}
	if s.Selected.LoadingDetails {
		t.Error("LoadingDetails not cleared on failure")
	}
}

func TestChatTranscriptAccumulation(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))

	token, history, ok := s.BeginTurn("what is this about?")
	if !ok {
		t.Fatal("BeginTurn refused with a selection present")
	}
	if len(history) != 1 || history[0].Role != api.RoleUser {
		t.Fatalf("history = %+v, want just the user turn", history)
	}
	if len(s.Chat.Messages) != 2 {
		t.Fatalf("transcript = %d messages, want user + placeholder", len(s.Chat.Messages))
	}

	// Chunk boundaries are arbitrary; each event carries the full
	// accumulator.
	for _, acc := range []string{"Hel", "Hello wor", "Hello world"} {
		if !s.ApplyChunk(token, acc) {
			t.Fatalf("live chunk %q rejected", acc)
		}
	}
	if got := s.Chat.Messages[1].Content; got != "Hello world" {
		t.Errorf("assistant content = %q, want %q", got, "Hello world")
	}
	if !s.FinishTurn(token, nil) {
		t.Error("FinishTurn rejected for live token")
	}
	if got := s.Chat.Messages[1].Content; got != "Hello world" {
		t.Errorf("content changed by clean finish: %q", got)
	}
}

func TestSecondTurnSendsFullHistory(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))

	token, _, _ := s.BeginTurn("first")
	s.ApplyChunk(token, "answer one")
	s.FinishTurn(token, nil)

	_, history, ok := s.BeginTurn("second")
	if !ok {
		t.Fatal("BeginTurn refused")
	}
	// user, assistant, user — the new placeholder is excluded.
	if len(history) != 3 {
		t.Fatalf("history = %d messages, want 3", len(history))
	}
	if history[1].Content != "answer one" {
		t.Errorf("history missing prior assistant turn: %+v", history)
	}
	if history[2].Content != "second" {
		t.Errorf("history missing new user turn: %+v", history)
	}
}

func TestRecordSwitchInvalidatesStream(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))
	token, _, _ := s.BeginTurn("hi")

	// Switching records resets the transcript; the old stream must not
	// be able to touch the new one, whenever it resolves.
	s.Select(video("b", "B"))
	if len(s.Chat.Messages) != 0 {
		t.Fatal("chat session survived a record switch")
	}
	if s.ApplyChunk(token, "late chunk") {
		t.Error("stale stream mutated the new session")
	}
	if s.FinishTurn(token, errors.New("dropped")) {
		t.Error("stale finish was applied")
	}
	if len(s.Chat.Messages) != 0 {
		t.Error("transcript no longer empty after stale events")
	}
}

func TestNewTurnInvalidatesOldStream(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))
	old, _, _ := s.BeginTurn("one")
	cur, _, _ := s.BeginTurn("two")

	if s.ApplyChunk(old, "late") {
		t.Error("superseded stream still writes")
	}
	if !s.ApplyChunk(cur, "current") {
		t.Error("live stream rejected")
	}
	if got := s.Chat.Messages[3].Content; got != "current" {
		t.Errorf("placeholder = %q, want %q", got, "current")
	}
}

func TestFinishTurnFailureFallbacks(t *testing.T) {
	var s Session
	s.Select(video("a", "A"))

	// Failure with no accumulated content: fixed apology.
	token, _, _ := s.BeginTurn("hi")
	s.FinishTurn(token, errors.New("connection reset"))
	if got := s.Chat.Messages[1].Content; got != chatApology {
		t.Errorf("empty-stream failure = %q, want apology", got)
	}

	// Failure after partial content: diagnostic suffix.
	token, _, _ = s.BeginTurn("again")
	s.ApplyChunk(token, "partial answer")
	s.FinishTurn(token, errors.New("connection reset"))
	last := s.Chat.Messages[len(s.Chat.Messages)-1].Content
	if last != "partial answer"+chatInterrupted {
		t.Errorf("mid-stream failure = %q", last)
	}
}

func TestBeginTurnWithoutSelection(t *testing.T) {
	var s Session
	if _, _, ok := s.BeginTurn("hello?"); ok {
		t.Error("BeginTurn succeeded with no record selected")
	}
}

func TestToggleReadAppliesAckOnly(t *testing.T) {
	var s Session
	s.ReplaceVideos([]api.Video{video("a", "A")})

	// No optimistic flip: state is unchanged until the ack arrives.
	if s.Videos[0].IsRead {
		t.Fatal("bad fixture")
	}
	acked := s.Videos[0]
	acked.IsRead = true
	s.ApplyVideo(acked)
	if !s.Videos[0].IsRead {
		t.Error("ack not applied")
	}
}

func TestApplyVideoKeepsDetailFields(t *testing.T) {
	var s Session
	s.ReplaceVideos([]api.Video{video("a", "A")})
	s.Select(s.Videos[0])
	s.ResolveDetail("a", "full body", nil)

	updated := video("a", "A")
	updated.IsRead = true
	s.ApplyVideo(updated)

	if !s.Selected.IsRead {
		t.Error("patch not reflected in selection")
	}
	if s.Selected.FullContent != "full body" || s.Selected.LoadingDetails {
		t.Error("patch clobbered loaded detail state")
	}
}

func TestResetClearsEverything(t *testing.T) {
	var s Session
	s.ReplaceVideos([]api.Video{video("a", "A")})
	s.Select(s.Videos[0])
	token, _, _ := s.BeginTurn("hi")
	s.Busy = true

	s.Reset()

	if len(s.Videos) != 0 || s.Selected != nil || len(s.Chat.Messages) != 0 || s.Busy {
		t.Errorf("reset left state behind: %+v", s)
	}
	// A stream from before the reset stays dead.
	if s.ApplyChunk(token, "ghost") {
		t.Error("pre-reset stream wrote into fresh state")
	}
}
