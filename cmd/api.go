package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/deskmirror/internal/api"
	"github.com/deskmirror/internal/config"
	"github.com/deskmirror/internal/database"
	"github.com/deskmirror/internal/jobqueue"
	"github.com/deskmirror/internal/mirror"
	"github.com/deskmirror/internal/remote"
	"github.com/deskmirror/internal/store"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the DeskMirror API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-queue",
				Usage: "Run webhook-triggered syncs inline instead of through the job queue",
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	port := cfg.Server.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}

	engine, st, db, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var queue api.SyncQueue
	if cfg.Sync.QueueEnabled && !c.Bool("no-queue") {
		dbURL, err := database.ResolveURL(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to resolve database URL for job queue: %w", err)
		}
		q, err := jobqueue.New(c.Context, dbURL, engine)
		if err != nil {
			return fmt.Errorf("failed to set up job queue: %w", err)
		}
		if err := q.Start(c.Context); err != nil {
			return fmt.Errorf("failed to start job queue: %w", err)
		}
		defer q.Stop(context.Background())
		queue = q
	}

	fmt.Printf("Starting DeskMirror API server on port %d...\n", port)
	server := api.NewServer(port, engine, queue, st)
	return server.Start()
}

// buildEngine wires the database, local store, remote client, and mirror
// engine from the loaded configuration. The caller owns the returned db.
func buildEngine(cfg *config.Config) (*mirror.Engine, *store.Store, *sql.DB, error) {
	db, err := database.NewDB(cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	st := store.New(db)
	client := remote.NewClient(cfg.Helpdesk.BaseURL, cfg.Helpdesk.APIKey)

	opts := []mirror.Option{
		mirror.WithConversationWorkers(cfg.Sync.ConversationWorkers),
	}
	if cfg.Sync.RunLogDir != "" {
		opts = append(opts, mirror.WithRunLogDir(cfg.Sync.RunLogDir))
	}

	return mirror.New(st, client, opts...), st, db, nil
}
