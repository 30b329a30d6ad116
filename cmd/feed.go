package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/feed"
)

var feedCmd = &cobra.Command{
	Use:   "feed [channel]",
	Short: "List the latest uploads of a monitored channel",
	Long: `Resolve a channel reference to its uploads feed and print the latest
videos. With no argument, every channel in the config is listed.

The channel may be a handle URL (https://www.youtube.com/@Handle),
a /channel/ URL, a bare UC... id, or a name from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fetcher := feed.NewFetcher(cfg.TimeoutDuration())
		ctx := cmd.Context()

		if len(args) == 1 {
			ref := args[0]
			for _, ch := range cfg.Channels {
				if ch.Name == ref {
					ref = ch.URL
					break
				}
			}
			return printChannel(ctx, fetcher, ref)
		}

		for _, ch := range cfg.Channels {
			fmt.Printf("%s\n", ch.Name)
			if err := printChannel(ctx, fetcher, ch.URL); err != nil {
				fmt.Printf("  [warn] %v\n", err)
			}
			fmt.Println()
		}
		return nil
	},
}

func printChannel(ctx context.Context, fetcher *feed.Fetcher, ref string) error {
	channelID, err := fetcher.ResolveChannelID(ctx, ref)
	if err != nil {
		return fmt.Errorf("resolving channel: %w", err)
	}
	entries, err := fetcher.Latest(ctx, channelID)
	if err != nil {
		return fmt.Errorf("fetching feed: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("  no videos")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("  %s  %s\n", e.Published.Format("2006-01-02"), e.Title)
		fmt.Printf("              %s\n", e.Link)
	}
	return nil
}
