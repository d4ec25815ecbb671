package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/deskmirror/internal/config"
)

// SyncCommand returns the CLI command for running a one-off full sync
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run a full sync against the remote helpdesk and exit",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			engine, _, db, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			summary, err := engine.RunFullSync(c.Context)
			if err != nil {
				return fmt.Errorf("full sync failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("failed to print summary: %w", err)
			}

			if len(summary.Errors) > 0 {
				return fmt.Errorf("sync finished with %d errors", len(summary.Errors))
			}
			return nil
		},
	}
}
