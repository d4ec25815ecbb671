package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		triggered string
		want      EventKind
	}{
		{"ticket created", "ticket_action:created", EventTicketCreated},
		{"ticket created with noise", "Triggered when ticket_action:created fires", EventTicketCreated},
		{"private note", "note_type:private", EventPrivateNoteCreated},
		{"public note", "note_type:public", EventPublicNoteCreated},
		{"reply", "reply_sent", EventReplySent},
		{"mixed case", "REPLY_SENT", EventReplySent},
		{"unknown", "ticket_action:deleted", EventUnrecognized},
		{"empty", "", EventUnrecognized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.triggered))
		})
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "ticket_created", EventTicketCreated.String())
	assert.Equal(t, "private_note_created", EventPrivateNoteCreated.String())
	assert.Equal(t, "public_note_created", EventPublicNoteCreated.String())
	assert.Equal(t, "reply_sent", EventReplySent.String())
	assert.Equal(t, "unrecognized", EventUnrecognized.String())
	assert.Equal(t, "unrecognized", EventKind(99).String())
}
