package dashboard

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tubedash/tubedash/internal/api"
)

// Event is anything a background worker reports to the event loop.
type Event interface{ isEvent() }

// VideosRefreshed carries a full authoritative snapshot. It is a silent
// refresh: the UI swaps data without toggling any loading indicator.
type VideosRefreshed struct {
	Videos []api.Video
}

// SyncFinished means the server job completed; busy clears exactly once.
type SyncFinished struct{}

// SyncFailed means the trigger was rejected or polling gave up after
// exhausting its retries; busy clears, the loop is gone.
type SyncFailed struct {
	Err error
}

func (VideosRefreshed) isEvent() {}
func (SyncFinished) isEvent()    {}
func (SyncFailed) isEvent()      {}

// SyncClient is the slice of the API the refresh loop needs.
type SyncClient interface {
	TriggerRefresh(ctx context.Context) error
	Status(ctx context.Context) (api.JobStatus, error)
	Videos(ctx context.Context) ([]api.Video, error)
}

// Syncer triggers the server-side ingestion job and polls it to
// completion. At most one poll loop runs per Syncer: Start is a no-op
// while one is active.
type Syncer struct {
	client   SyncClient
	interval time.Duration

	// A transient tick failure retries with doubling delay up to
	// maxRetries extra attempts before the loop gives up.
	maxRetries int
	maxDelay   time.Duration

	active atomic.Bool
}

func NewSyncer(client SyncClient, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Syncer{
		client:     client,
		interval:   interval,
		maxRetries: 3,
		maxDelay:   16 * interval,
	}
}

// Active reports whether a poll loop is currently running.
func (s *Syncer) Active() bool {
	return s.active.Load()
}

// Start triggers the job and launches the poll loop. The returned
// channel delivers events in order and is closed when the loop stops;
// ok is false when a loop is already active and nothing was started.
func (s *Syncer) Start(ctx context.Context) (events <-chan Event, ok bool) {
	if !s.active.CompareAndSwap(false, true) {
		return nil, false
	}
	ch := make(chan Event, 8)
	go s.run(ctx, ch)
	return ch, true
}

func (s *Syncer) run(ctx context.Context, ch chan<- Event) {
	defer s.active.Store(false)
	defer close(ch)

	if err := s.client.TriggerRefresh(ctx); err != nil {
		s.emit(ctx, ch, SyncFailed{Err: fmt.Errorf("triggering refresh: %w", err)})
		return
	}

	delay := s.interval
	retries := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		// Status first, then data: the dataset is refreshed at least
		// once after every "still running" observation, and once more
		// alongside the final "done" one.
		status, err := s.client.Status(ctx)
		var videos []api.Video
		if err == nil {
			videos, err = s.client.Videos(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			retries++
			if retries > s.maxRetries {
				s.emit(ctx, ch, SyncFailed{Err: fmt.Errorf("polling refresh job: %w", err)})
				return
			}
			delay *= 2
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
			continue
		}
		retries = 0
		delay = s.interval

		if !s.emit(ctx, ch, VideosRefreshed{Videos: videos}) {
			return
		}
		if !status.IsUpdating {
			s.emit(ctx, ch, SyncFinished{})
			return
		}
	}
}

func (s *Syncer) emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
