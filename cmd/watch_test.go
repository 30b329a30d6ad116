package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tubedash/tubedash/internal/api"
	"github.com/tubedash/tubedash/internal/seen"
)

type staticSyncClient struct {
	videos []api.Video
}

func (c *staticSyncClient) TriggerRefresh(ctx context.Context) error { return nil }

func (c *staticSyncClient) Status(ctx context.Context) (api.JobStatus, error) {
	return api.JobStatus{IsUpdating: false}, nil
}

func (c *staticSyncClient) Videos(ctx context.Context) ([]api.Video, error) {
	return c.videos, nil
}

func TestWatchCycleNotifiesOnlyOnce(t *testing.T) {
	store, err := seen.Open(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	client := &staticSyncClient{videos: []api.Video{
		{ID: "v1", Title: "First upload", ChannelTitle: "GopherCon"},
		{ID: "v2", Title: "Second upload", ChannelTitle: "RustConf"},
	}}

	n, err := watchCycle(context.Background(), client, time.Millisecond, store, nil)
	if err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if n != 2 {
		t.Fatalf("first cycle found %d new videos, want 2", n)
	}

	n, err = watchCycle(context.Background(), client, time.Millisecond, store, nil)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if n != 0 {
		t.Errorf("second cycle found %d new videos, want 0", n)
	}

	client.videos = append(client.videos, api.Video{ID: "v3", Title: "Third upload"})
	n, err = watchCycle(context.Background(), client, time.Millisecond, store, nil)
	if err != nil {
		t.Fatalf("third cycle: %v", err)
	}
	if n != 1 {
		t.Errorf("third cycle found %d new videos, want 1", n)
	}
}

func TestSelectNewPreservesServerOrder(t *testing.T) {
	store, err := seen.Open(filepath.Join(t.TempDir(), "seen.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	if err := store.Mark("v2", "already seen"); err != nil {
		t.Fatalf("marking: %v", err)
	}

	snapshot := []api.Video{
		{ID: "v3", Title: "c"},
		{ID: "v2", Title: "b"},
		{ID: "v1", Title: "a"},
	}
	fresh, err := selectNew(snapshot, store)
	if err != nil {
		t.Fatalf("selectNew: %v", err)
	}
	if len(fresh) != 2 || fresh[0].ID != "v3" || fresh[1].ID != "v1" {
		t.Errorf("fresh = %+v, want v3 then v1", fresh)
	}
}
