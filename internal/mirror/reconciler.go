package mirror

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/deskmirror/internal/store"
)

// ReconcileLatest fetches the full remote conversation thread of a ticket
// and upserts only the newest entry, which is the one the triggering
// note/reply webhook announced. Replayed deliveries and races with a bulk
// pass land on the same conversation row.
//
// A ticket that is not mirrored yet is a deliberate skip, not an error:
// conversations can only attach after the ticket-created event (or a bulk
// pass) has been processed, and a later bulk pass picks up whatever this
// call skipped.
func (e *Engine) ReconcileLatest(ctx context.Context, remoteTicketID int64, sourceTag string, private bool) (*store.Conversation, error) {
	if remoteTicketID == 0 {
		return nil, ErrInvalidReference
	}

	if _, err := e.store.TicketByRemoteID(ctx, remoteTicketID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Int64("remote_ticket_id", remoteTicketID).
				Msg("skipping conversation reconciliation, ticket not mirrored yet")
			return nil, nil
		}
		return nil, err
	}

	conversations, err := e.remote.ListConversations(ctx, remoteTicketID)
	if err != nil {
		return nil, unavailable(EntityConversation, remoteTicketID, err)
	}
	if len(conversations) == 0 {
		return nil, nil
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.Before(conversations[j].CreatedAt)
	})
	newest := conversations[len(conversations)-1]
	if newest.TicketID == 0 {
		newest.TicketID = remoteTicketID
	}

	conversation, created, err := e.UpsertConversation(ctx, &newest, sourceTag, private)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int64("remote_ticket_id", remoteTicketID).
		Int64("remote_conversation_id", newest.ID).
		Bool("created", created).
		Msg("reconciled latest conversation")
	return conversation, nil
}
