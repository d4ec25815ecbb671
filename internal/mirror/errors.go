package mirror

import (
	"errors"
	"fmt"
)

// ErrInvalidReference is returned when a required remote identifier is
// missing or zero. Optional references are skipped by callers before
// resolution, so hitting this means the payload itself is broken.
var ErrInvalidReference = errors.New("mirror: empty remote reference")

// RemoteEntityUnavailableError is returned when the remote representation
// of a referenced entity could not be fetched. The whole upsert chain that
// needed the reference is abandoned; nothing partial is written.
type RemoteEntityUnavailableError struct {
	Entity   EntityType
	RemoteID int64
	Err      error
}

func (e *RemoteEntityUnavailableError) Error() string {
	return fmt.Sprintf("mirror: remote %s %d unavailable: %v", e.Entity, e.RemoteID, e.Err)
}

func (e *RemoteEntityUnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(entity EntityType, remoteID int64, err error) error {
	return &RemoteEntityUnavailableError{Entity: entity, RemoteID: remoteID, Err: err}
}
