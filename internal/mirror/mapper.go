package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/deskmirror/internal/store"
)

// Resolve maps a remote identifier to a local primary key, creating the
// local row from the fetched remote representation when none exists yet.
// References inside the fetched payload are resolved recursively through
// the same path; chains in this domain are at most two levels deep
// (contact -> company), so there is no cycle risk.
//
// A zero remoteID is an invalid reference: callers must skip resolution
// entirely for optional references that are absent.
func (e *Engine) Resolve(ctx context.Context, entity EntityType, remoteID int64) (int64, error) {
	if remoteID == 0 {
		return 0, fmt.Errorf("%w for %s", ErrInvalidReference, entity)
	}

	key := fmt.Sprintf("%s:%d", entity, remoteID)
	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		return e.resolve(ctx, entity, remoteID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// resolveOptional resolves a nullable remote reference, returning nil for
// an absent one.
func (e *Engine) resolveOptional(ctx context.Context, entity EntityType, remoteID *int64) (*int64, error) {
	if remoteID == nil || *remoteID == 0 {
		return nil, nil
	}
	localID, err := e.Resolve(ctx, entity, *remoteID)
	if err != nil {
		return nil, err
	}
	return &localID, nil
}

func (e *Engine) resolve(ctx context.Context, entity EntityType, remoteID int64) (int64, error) {
	localID, err := e.lookupLocal(ctx, entity, remoteID)
	if err == nil {
		return localID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	localID, err = e.fetchAndCreate(ctx, entity, remoteID)
	if err != nil && store.IsUniqueViolation(err) {
		// Lost the insert race to a concurrent writer; the row exists now
		// and the intent is satisfied, so return the winner's row.
		return e.lookupLocal(ctx, entity, remoteID)
	}
	return localID, err
}

// lookupLocal finds the local primary key for a remote identifier without
// touching the network.
func (e *Engine) lookupLocal(ctx context.Context, entity EntityType, remoteID int64) (int64, error) {
	switch entity {
	case EntityCompany:
		c, err := e.store.CompanyByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	case EntityContact:
		c, err := e.store.ContactByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	case EntityAgent:
		a, err := e.store.AgentByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return a.ID, nil
	case EntityGroup:
		g, err := e.store.GroupByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return g.ID, nil
	case EntityTicket:
		t, err := e.store.TicketByRemoteID(ctx, remoteID)
		if err != nil {
			return 0, err
		}
		return t.ID, nil
	default:
		return 0, fmt.Errorf("mirror: cannot resolve entity type %q", entity)
	}
}

// fetchAndCreate fetches the remote representation of a single entity and
// creates the local row through the entity's upsert service, which resolves
// the payload's own references first.
func (e *Engine) fetchAndCreate(ctx context.Context, entity EntityType, remoteID int64) (int64, error) {
	switch entity {
	case EntityCompany:
		payload, err := e.remote.Company(ctx, remoteID)
		if err != nil {
			return 0, unavailable(entity, remoteID, err)
		}
		c, _, err := e.UpsertCompany(ctx, payload)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	case EntityContact:
		payload, err := e.remote.Contact(ctx, remoteID)
		if err != nil {
			return 0, unavailable(entity, remoteID, err)
		}
		c, _, err := e.UpsertContact(ctx, payload)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	case EntityAgent:
		payload, err := e.remote.Agent(ctx, remoteID)
		if err != nil {
			return 0, unavailable(entity, remoteID, err)
		}
		a, _, err := e.UpsertAgent(ctx, payload)
		if err != nil {
			return 0, err
		}
		return a.ID, nil
	case EntityGroup:
		payload, err := e.remote.Group(ctx, remoteID)
		if err != nil {
			return 0, unavailable(entity, remoteID, err)
		}
		g, _, err := e.UpsertGroup(ctx, payload)
		if err != nil {
			return 0, err
		}
		return g.ID, nil
	case EntityTicket:
		payload, err := e.remote.Ticket(ctx, remoteID)
		if err != nil {
			return 0, unavailable(entity, remoteID, err)
		}
		t, _, err := e.UpsertTicket(ctx, payload)
		if err != nil {
			return 0, err
		}
		return t.ID, nil
	default:
		return 0, fmt.Errorf("mirror: cannot fetch entity type %q", entity)
	}
}
