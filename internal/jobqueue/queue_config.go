/*
Package jobqueue configuration - Tunable parameters for the River job queue.

Full-sync jobs walk every entity collection on the remote helpdesk, so they
are long-running and deliberately serialized: one queue, few workers, and a
uniqueness constraint so an already-pending sync absorbs repeat requests.
*/
package jobqueue

import (
	"os"
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all tunable parameters for the job queue system
type QueueConfig struct {
	MaxWorkers int // Number of concurrent workers processing jobs

	MaxRetries int           // Maximum retry attempts per job
	JobTimeout time.Duration // Maximum time a single full sync can run
}

// GetQueueConfig returns the appropriate configuration based on environment
func GetQueueConfig() *QueueConfig {
	config := &QueueConfig{
		MaxWorkers: 2,
		MaxRetries: 8,
		JobTimeout: 30 * time.Minute,
	}

	if os.Getenv("DESKMIRROR_ENV") == "development" {
		config.MaxWorkers = 1
		config.MaxRetries = 2
		config.JobTimeout = 5 * time.Minute
	}

	return config
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
