/*
Package jobqueue provides a River-based job queue for background full syncs.

For configuration options and tuning parameters, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog/log"

	"github.com/deskmirror/internal/mirror"
)

// FullSyncArgs represents the arguments for a full-sync job
type FullSyncArgs struct {
	TriggeredBy string `json:"triggered_by"`
}

// Kind returns the job kind for River
func (FullSyncArgs) Kind() string {
	return "full_sync"
}

// FullSyncWorker runs a complete mirror pass against the remote helpdesk
type FullSyncWorker struct {
	river.WorkerDefaults[FullSyncArgs]
	engine *mirror.Engine
	config *QueueConfig
}

// Timeout bounds a single full sync; River fails the job past this.
func (w *FullSyncWorker) Timeout(*river.Job[FullSyncArgs]) time.Duration {
	return w.config.JobTimeout
}

func (w *FullSyncWorker) Work(ctx context.Context, job *river.Job[FullSyncArgs]) error {
	log.Info().
		Int64("job_id", job.ID).
		Str("triggered_by", job.Args.TriggeredBy).
		Msg("full sync job started")

	summary, err := w.engine.RunFullSync(ctx)
	if err != nil {
		log.Error().Err(err).Int64("job_id", job.ID).Msg("full sync job failed")
		return fmt.Errorf("full sync failed: %w", err)
	}

	log.Info().
		Int64("job_id", job.ID).
		Str("run_id", summary.RunID).
		Int("errors", len(summary.Errors)).
		Msg("full sync job finished")
	return nil
}

// Queue manages the River job queue
type Queue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// New creates a new job queue instance backed by the given database
func New(ctx context.Context, databaseURL string, engine *mirror.Engine) (*Queue, error) {
	config := GetQueueConfig()

	// River needs its own pgx pool; the mirror store keeps using database/sql.
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &FullSyncWorker{engine: engine, config: config})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  config.RiverQueueConfig(),
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Queue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (q *Queue) Start(ctx context.Context) error {
	return q.client.Start(ctx)
}

// Stop stops the job queue workers and releases the pool
func (q *Queue) Stop(ctx context.Context) error {
	err := q.client.Stop(ctx)
	q.pool.Close()
	return err
}

// EnqueueFullSync queues a full-sync job and returns its River job id.
// A sync that is already queued or running absorbs the request: River's
// uniqueness check returns the existing job instead of inserting another.
func (q *Queue) EnqueueFullSync(ctx context.Context, triggeredBy string) (int64, error) {
	res, err := q.client.Insert(ctx, FullSyncArgs{TriggeredBy: triggeredBy}, &river.InsertOpts{
		MaxAttempts: q.config.MaxRetries,
		UniqueOpts: river.UniqueOpts{
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateScheduled,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to queue full sync job: %w", err)
	}

	if res.UniqueSkippedAsDuplicate {
		log.Debug().Int64("job_id", res.Job.ID).Msg("full sync already pending, reusing job")
	}

	return res.Job.ID, nil
}
