package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmirror/internal/retry"
)

// testClient points a Client at a httptest server with retries and rate
// limiting effectively disabled.
func testClient(server *httptest.Server) *Client {
	c := NewClient(server.URL, "test-key")
	c.retryCfg = retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}
	c.limiter.SetLimit(1000)
	return c
}

func TestClientFetchesTicket(t *testing.T) {
	companyID := int64(77)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/tickets/42", r.URL.Path)

		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test-key", user)

		json.NewEncoder(w).Encode(Ticket{
			ID:          42,
			Subject:     "Printer on fire",
			Status:      2,
			Priority:    1,
			RequesterID: 9,
			CompanyID:   &companyID,
		})
	}))
	defer server.Close()

	ticket, err := testClient(server).Ticket(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.ID)
	assert.Equal(t, "Printer on fire", ticket.Subject)
	require.NotNil(t, ticket.CompanyID)
	assert.Equal(t, companyID, *ticket.CompanyID)
}

func TestClientReturnsAPIErrorOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server).Contact(context.Background(), 123)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClientRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "upstream hiccup", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Company{ID: 1, Name: "Acme"})
	}))
	defer server.Close()

	company, err := testClient(server).Company(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", company.Name)
	assert.Equal(t, 3, attempts)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "no such agent", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server).Agent(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestListConversationsFollowsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/tickets/7/conversations", r.URL.Path)

		page := r.URL.Query().Get("page")
		var batch []Conversation
		switch page {
		case "1":
			for i := 0; i < perPage; i++ {
				batch = append(batch, Conversation{ID: int64(i + 1), TicketID: 7})
			}
		case "2":
			batch = []Conversation{{ID: int64(perPage + 1), TicketID: 7}}
		default:
			t.Errorf("unexpected page %q", page)
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer server.Close()

	conversations, err := testClient(server).ListConversations(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, conversations, perPage+1)
	assert.Equal(t, int64(perPage+1), conversations[len(conversations)-1].ID)
}

func TestListCompaniesSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"Acme","domains":["acme.com"]},{"id":2,"name":"Globex"}]`)
	}))
	defer server.Close()

	companies, err := testClient(server).ListCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, []string{"acme.com"}, companies[0].Domains)
}

func TestSourceTag(t *testing.T) {
	assert.Equal(t, "reply", SourceTag(SourceReply))
	assert.Equal(t, "note", SourceTag(SourceNote))
	assert.Equal(t, "forward", SourceTag(SourceForward))
	assert.Equal(t, "reply", SourceTag(99))
}
