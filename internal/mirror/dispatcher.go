package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/deskmirror/internal/store"
)

// HandleWebhook classifies a parsed webhook delivery and runs the matching
// reconciliation. Unrecognized events are no-ops. The returned error means
// handling failed; the HTTP layer still acknowledges the delivery so the
// remote system does not redeliver a payload we can parse but not apply.
func (e *Engine) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	kind := Classify(event.TriggeredEvent)
	log.Info().
		Str("kind", kind.String()).
		Int64("ticket_id", event.TicketID).
		Msg("dispatching webhook event")

	switch kind {
	case EventTicketCreated:
		return e.handleTicketCreated(ctx, event.TicketID)
	case EventPrivateNoteCreated:
		_, err := e.ReconcileLatest(ctx, event.TicketID, "note", true)
		return err
	case EventPublicNoteCreated:
		_, err := e.ReconcileLatest(ctx, event.TicketID, "note", false)
		return err
	case EventReplySent:
		_, err := e.ReconcileLatest(ctx, event.TicketID, "reply", false)
		return err
	default:
		log.Debug().Str("triggered_event", event.TriggeredEvent).
			Msg("dropping unrecognized webhook event")
		return nil
	}
}

// handleTicketCreated mirrors a newly created remote ticket. A ticket that
// is already mapped means a duplicate delivery; that is a no-op, not an
// error.
func (e *Engine) handleTicketCreated(ctx context.Context, remoteTicketID int64) error {
	if remoteTicketID == 0 {
		return fmt.Errorf("%w: ticket-created event without ticket id", ErrInvalidReference)
	}

	_, err := e.store.TicketByRemoteID(ctx, remoteTicketID)
	if err == nil {
		log.Debug().Int64("remote_ticket_id", remoteTicketID).
			Msg("ticket already mirrored, ignoring duplicate delivery")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	payload, err := e.remote.Ticket(ctx, remoteTicketID)
	if err != nil {
		return unavailable(EntityTicket, remoteTicketID, err)
	}

	_, created, err := e.UpsertTicket(ctx, payload)
	if err != nil {
		return err
	}
	log.Info().Int64("remote_ticket_id", remoteTicketID).Bool("created", created).
		Msg("mirrored ticket from webhook")
	return nil
}
