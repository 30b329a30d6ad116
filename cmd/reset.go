package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all data on the summary server",
	Long:  "Delete every video, summary and mindmap on the server. The server rebuilds from scratch on its next refresh.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadSetup()
		if err != nil {
			return err
		}

		if !flagResetYes {
			fmt.Printf("This deletes everything on %s. Type 'yes' to continue: ", cfg.ServerURL)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(line) != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TimeoutDuration())
		defer cancel()

		if err := client.Reset(ctx); err != nil {
			return fmt.Errorf("resetting server: %w", err)
		}
		fmt.Println("Server data wiped.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&flagResetYes, "yes", "y", false, "skip the confirmation prompt")
}
