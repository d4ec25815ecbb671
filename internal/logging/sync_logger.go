package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SyncLogger writes a per-run log file for one bulk sync pass so operators
// can inspect exactly what a run did after the fact. Lines also go to the
// process log at debug level.
type SyncLogger struct {
	mu    sync.Mutex
	file  *os.File
	runID string
}

// NewSyncLogger creates dir if needed and opens sync_<runID>.log inside it.
func NewSyncLogger(dir, runID string) (*SyncLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sync log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("sync_%s.log", runID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync log file: %w", err)
	}

	l := &SyncLogger{file: file, runID: runID}
	l.Log("sync run %s started", runID)
	return l, nil
}

// Log writes one timestamped line. Safe for concurrent use.
func (l *SyncLogger) Log(format string, args ...interface{}) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().Format("2006-01-02 15:04:05.000"), msg)
	l.mu.Unlock()

	log.Debug().Str("run_id", l.runID).Msg(msg)
}

// Close flushes and closes the log file.
func (l *SyncLogger) Close() error {
	if l == nil {
		return nil
	}
	l.Log("sync run %s finished", l.runID)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
