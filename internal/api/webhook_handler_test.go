package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmirror/internal/mirror"
	"github.com/deskmirror/internal/store"
)

// fakeEngine records webhook events and returns canned results.
type fakeEngine struct {
	events     []mirror.WebhookEvent
	handleErr  error
	summary    *mirror.Summary
	syncErr    error
	syncCalled int
}

func (f *fakeEngine) HandleWebhook(_ context.Context, event mirror.WebhookEvent) error {
	f.events = append(f.events, event)
	return f.handleErr
}

func (f *fakeEngine) RunFullSync(_ context.Context) (*mirror.Summary, error) {
	f.syncCalled++
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &mirror.Summary{RunID: "test-run"}, nil
}

type fakeQueue struct {
	jobID      int64
	enqueueErr error
	calls      int
}

func (f *fakeQueue) EnqueueFullSync(context.Context, string) (int64, error) {
	f.calls++
	return f.jobID, f.enqueueErr
}

type fakeReader struct {
	tickets []*store.Ticket
}

func (f *fakeReader) ListTickets(context.Context, int, int) ([]*store.Ticket, error) {
	return f.tickets, nil
}
func (f *fakeReader) TicketByID(_ context.Context, id int64) (*store.Ticket, error) {
	for _, t := range f.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}
func (f *fakeReader) ConversationsForTicket(context.Context, int64) ([]*store.Conversation, error) {
	return nil, nil
}
func (f *fakeReader) ListContacts(context.Context, int, int) ([]*store.Contact, error) {
	return nil, nil
}
func (f *fakeReader) ListCompanies(context.Context, int, int) ([]*store.Company, error) {
	return nil, nil
}
func (f *fakeReader) Counts(context.Context) (map[string]int64, error) {
	return map[string]int64{"tickets": int64(len(f.tickets))}, nil
}

func newTestServer(engine SyncEngine, queue SyncQueue) *Server {
	return NewServer(0, engine, queue, &fakeReader{})
}

func postWebhook(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/helpdesk", strings.NewReader(body))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestWebhookHandlerDispatchesParsedEvent(t *testing.T) {
	engine := &fakeEngine{}
	server := newTestServer(engine, nil)

	rec := postWebhook(t, server, `{"triggered_event":"ticket_action:created","ticket_id":42}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, engine.events, 1)
	assert.Equal(t, int64(42), engine.events[0].TicketID)
	assert.Equal(t, "ticket_action:created", engine.events[0].TriggeredEvent)
}

func TestWebhookHandlerRejectsMalformedJSON(t *testing.T) {
	engine := &fakeEngine{}
	server := newTestServer(engine, nil)

	rec := postWebhook(t, server, `{"triggered_event": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, engine.events)
}

func TestWebhookHandlerAcknowledgesHandlingFailures(t *testing.T) {
	engine := &fakeEngine{handleErr: errors.New("remote entity unavailable")}
	server := newTestServer(engine, nil)

	rec := postWebhook(t, server, `{"triggered_event":"reply_sent","ticket_id":7}`)

	// failed handling is still a 200 so the helpdesk does not redeliver
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "received")
}

func TestWebhookHandlerAcceptsUnknownEventShape(t *testing.T) {
	engine := &fakeEngine{}
	server := newTestServer(engine, nil)

	rec := postWebhook(t, server, `{"triggered_event":"something_new","ticket_id":1,"extra":{"a":1}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, engine.events, 1)
}
