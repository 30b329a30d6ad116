package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tubedash/tubedash/internal/api"
	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/tui"
)

// loadSetup resolves config and builds the API client, honoring the
// --server override. Shared by every command that talks to the server.
func loadSetup() (*config.Config, *api.Client, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}

	client, err := api.New(cfg.ServerURL, cfg.TimeoutDuration())
	if err != nil {
		return nil, nil, fmt.Errorf("building client: %w", err)
	}
	return cfg, client, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, client, err := loadSetup()
	if err != nil {
		return err
	}
	return tui.Run(cfg, client)
}
