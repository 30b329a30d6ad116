package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/tubedash/tubedash/internal/api"
	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/dashboard"
	"github.com/tubedash/tubedash/internal/notify"
	"github.com/tubedash/tubedash/internal/seen"
)

var flagWatchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically refresh the server and notify about new videos",
	Long: `Run refresh cycles on the configured schedule. Each cycle asks the
server to pull new uploads, waits for summarization to finish, and
sends a webhook notification for every video not seen before.

Seen videos are tracked locally, so restarting does not re-notify.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadSetup()
		if err != nil {
			return err
		}

		store, err := seen.Open(config.SeenDBPath())
		if err != nil {
			return fmt.Errorf("opening seen store: %w", err)
		}
		defer store.Close()

		var relay *notify.Relay
		if cfg.WebhookURL != "" {
			relay = notify.NewRelay(cfg.WebhookURL, cfg.TimeoutDuration())
		}

		cycle := func() {
			n, err := watchCycle(cmd.Context(), client, cfg.PollDuration(), store, relay)
			stamp := time.Now().Format("15:04:05")
			if err != nil {
				fmt.Printf("[%s] cycle failed: %v\n", stamp, err)
				return
			}
			fmt.Printf("[%s] cycle done, %d new video(s)\n", stamp, n)
		}

		if flagWatchOnce {
			cycle()
			return nil
		}

		c := cron.New()
		if _, err := c.AddFunc(cfg.Schedule(), cycle); err != nil {
			return fmt.Errorf("invalid watch schedule %q: %w", cfg.Schedule(), err)
		}
		fmt.Printf("Watching on schedule %q (ctrl+c to stop)\n", cfg.Schedule())
		cycle()
		c.Run()
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&flagWatchOnce, "once", false, "run a single cycle and exit")
}

// watchCycle runs one full refresh against the server and notifies
// about videos that were never seen before. Returns how many new
// videos were found.
func watchCycle(ctx context.Context, client dashboard.SyncClient, interval time.Duration, store *seen.Store, relay *notify.Relay) (int, error) {
	syncer := dashboard.NewSyncer(client, interval)
	ch, ok := syncer.Start(ctx)
	if !ok {
		return 0, errors.New("refresh already in flight")
	}

	// Drain the cycle, keeping the last dataset snapshot.
	var snapshot []api.Video
	var syncErr error
	for ev := range ch {
		switch ev := ev.(type) {
		case dashboard.VideosRefreshed:
			snapshot = ev.Videos
		case dashboard.SyncFailed:
			syncErr = ev.Err
		}
	}
	if syncErr != nil {
		return 0, syncErr
	}

	fresh, err := selectNew(snapshot, store)
	if err != nil {
		return 0, err
	}

	for _, v := range fresh {
		if relay != nil {
			err := relay.Send(ctx, notify.Notification{
				Title:   v.Title,
				Link:    v.Link,
				Summary: v.Preview,
				Channel: v.ChannelTitle,
			})
			if err != nil {
				return 0, fmt.Errorf("notifying about %s: %w", v.ID, err)
			}
		} else {
			fmt.Printf("  new: %s (%s)\n", v.Title, v.ChannelTitle)
		}
		if err := store.Mark(v.ID, v.Title); err != nil {
			return 0, fmt.Errorf("marking %s seen: %w", v.ID, err)
		}
	}

	return len(fresh), nil
}

// selectNew filters the snapshot down to videos the store has not
// seen, preserving server order.
func selectNew(snapshot []api.Video, store *seen.Store) ([]api.Video, error) {
	ids := make([]string, len(snapshot))
	byID := make(map[string]api.Video, len(snapshot))
	for i, v := range snapshot {
		ids[i] = v.ID
		byID[v.ID] = v
	}

	newIDs, err := store.Filter(ids)
	if err != nil {
		return nil, fmt.Errorf("filtering seen videos: %w", err)
	}

	out := make([]api.Video, 0, len(newIDs))
	for _, id := range newIDs {
		out = append(out, byID[id])
	}
	return out, nil
}
