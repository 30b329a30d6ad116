package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tubedash/tubedash/internal/api"
)

// fakeSyncClient scripts the status sequence the poll loop observes.
type fakeSyncClient struct {
	mu         sync.Mutex
	triggerErr error
	statuses   []api.JobStatus
	statusErrs []error
	videos     []api.Video
	videosErr  error

	triggerCalls int
	statusCalls  int
	videoCalls   int
}

func (f *fakeSyncClient) TriggerRefresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggerCalls++
	return f.triggerErr
}

func (f *fakeSyncClient) Status(ctx context.Context) (api.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.statusCalls
	f.statusCalls++
	if i < len(f.statusErrs) && f.statusErrs[i] != nil {
		return api.JobStatus{}, f.statusErrs[i]
	}
	if i < len(f.statuses) {
		return f.statuses[i], nil
	}
	return api.JobStatus{IsUpdating: false}, nil
}

func (f *fakeSyncClient) Videos(ctx context.Context) ([]api.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoCalls++
	return f.videos, f.videosErr
}

func drain(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("poll loop did not terminate")
		}
	}
}

func TestSyncRunsToCompletion(t *testing.T) {
	client := &fakeSyncClient{
		statuses: []api.JobStatus{
			{IsUpdating: true},
			{IsUpdating: true},
			{IsUpdating: false},
		},
		videos: []api.Video{{ID: "a"}},
	}
	s := NewSyncer(client, time.Millisecond)

	ch, ok := s.Start(context.Background())
	if !ok {
		t.Fatal("Start refused on an idle syncer")
	}
	events := drain(t, ch)

	// One refresh per tick, including the tick that observed "done",
	// then exactly one finish.
	var refreshes, finishes int
	for _, ev := range events {
		switch ev.(type) {
		case VideosRefreshed:
			refreshes++
		case SyncFinished:
			finishes++
		case SyncFailed:
			t.Fatalf("unexpected failure: %v", ev)
		}
	}
	if refreshes != 3 {
		t.Errorf("refreshes = %d, want 3", refreshes)
	}
	if finishes != 1 {
		t.Errorf("finishes = %d, want exactly 1", finishes)
	}
	if _, isFinish := events[len(events)-1].(SyncFinished); !isFinish {
		t.Errorf("last event = %T, want SyncFinished", events[len(events)-1])
	}
	if s.Active() {
		t.Error("syncer still active after completion")
	}
}

func TestSyncTriggerFailure(t *testing.T) {
	client := &fakeSyncClient{triggerErr: errors.New("503")}
	s := NewSyncer(client, time.Millisecond)

	ch, ok := s.Start(context.Background())
	if !ok {
		t.Fatal("Start refused")
	}
	events := drain(t, ch)

	if len(events) != 1 {
		t.Fatalf("events = %v, want a single failure", events)
	}
	if _, failed := events[0].(SyncFailed); !failed {
		t.Fatalf("event = %T, want SyncFailed", events[0])
	}
	// No poll tick ever ran.
	if client.statusCalls != 0 || client.videoCalls != 0 {
		t.Errorf("poll ticked after trigger failure: status=%d videos=%d",
			client.statusCalls, client.videoCalls)
	}
}

func TestSyncSingleFlight(t *testing.T) {
	client := &fakeSyncClient{
		statuses: []api.JobStatus{{IsUpdating: true}, {IsUpdating: true}, {IsUpdating: false}},
	}
	s := NewSyncer(client, 5*time.Millisecond)

	ch, ok := s.Start(context.Background())
	if !ok {
		t.Fatal("first Start refused")
	}
	if _, ok := s.Start(context.Background()); ok {
		t.Error("second Start launched a concurrent loop")
	}
	drain(t, ch)

	if client.triggerCalls != 1 {
		t.Errorf("trigger called %d times, want 1", client.triggerCalls)
	}

	// Once the loop stops, a new sync may start.
	ch, ok = s.Start(context.Background())
	if !ok {
		t.Error("Start refused after previous loop finished")
	}
	drain(t, ch)
}

func TestSyncRetriesThenFails(t *testing.T) {
	boom := errors.New("decode failure")
	client := &fakeSyncClient{
		statusErrs: []error{boom, boom, boom, boom, boom, boom},
	}
	s := NewSyncer(client, time.Millisecond)

	ch, _ := s.Start(context.Background())
	events := drain(t, ch)

	last := events[len(events)-1]
	failed, ok := last.(SyncFailed)
	if !ok {
		t.Fatalf("last event = %T, want SyncFailed", last)
	}
	if !errors.Is(failed.Err, boom) {
		t.Errorf("failure does not wrap the tick error: %v", failed.Err)
	}
	// Initial attempt plus the bounded retries, no more.
	if client.statusCalls != 4 {
		t.Errorf("status attempts = %d, want 4", client.statusCalls)
	}
}

func TestSyncRecoversAfterTransientError(t *testing.T) {
	boom := errors.New("flaky")
	client := &fakeSyncClient{
		statusErrs: []error{nil, boom, nil},
		statuses: []api.JobStatus{
			{IsUpdating: true},
			{}, // consumed by the error slot
			{IsUpdating: false},
		},
	}
	s := NewSyncer(client, time.Millisecond)

	ch, _ := s.Start(context.Background())
	events := drain(t, ch)

	for _, ev := range events {
		if _, failed := ev.(SyncFailed); failed {
			t.Fatalf("transient error escalated to failure: %v", ev)
		}
	}
	if _, isFinish := events[len(events)-1].(SyncFinished); !isFinish {
		t.Errorf("loop did not finish cleanly after recovery")
	}
}

func TestSyncStopsOnContextCancel(t *testing.T) {
	client := &fakeSyncClient{
		statuses: []api.JobStatus{{IsUpdating: true}, {IsUpdating: true}, {IsUpdating: true}},
	}
	s := NewSyncer(client, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := s.Start(ctx)

	// Let at least one tick happen, then cancel.
	<-ch
	cancel()
	drain(t, ch)

	deadline := time.Now().Add(time.Second)
	for s.Active() {
		if time.Now().After(deadline) {
			t.Fatal("loop still active after cancel")
		}
		time.Sleep(time.Millisecond)
	}
}
