package mirror

import "strings"

// EventKind is the closed set of webhook event kinds the engine reacts to.
// Anything outside the vocabulary classifies as EventUnrecognized, which is
// acknowledged and dropped so new remote event types never break ingestion.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventTicketCreated
	EventPrivateNoteCreated
	EventPublicNoteCreated
	EventReplySent
)

func (k EventKind) String() string {
	switch k {
	case EventTicketCreated:
		return "ticket_created"
	case EventPrivateNoteCreated:
		return "private_note_created"
	case EventPublicNoteCreated:
		return "public_note_created"
	case EventReplySent:
		return "reply_sent"
	default:
		return "unrecognized"
	}
}

// WebhookEvent is the parsed body of an inbound webhook delivery. The
// helpdesk sends the triggering condition as free text, e.g.
// "ticket_action:created" or "note_type:private note_type:public".
type WebhookEvent struct {
	TriggeredEvent string `json:"triggered_event"`
	TicketID       int64  `json:"ticket_id"`
}

// Classify matches the free-text triggered event against the known
// vocabulary. Substring matching is deliberate: the remote system composes
// the field out of condition fragments, not fixed labels.
func Classify(triggeredEvent string) EventKind {
	ev := strings.ToLower(triggeredEvent)
	switch {
	case strings.Contains(ev, "ticket_action:created"):
		return EventTicketCreated
	case strings.Contains(ev, "note_type:private"):
		return EventPrivateNoteCreated
	case strings.Contains(ev, "note_type:public"):
		return EventPublicNoteCreated
	case strings.Contains(ev, "reply_sent"):
		return EventReplySent
	default:
		return EventUnrecognized
	}
}
