package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/deskmirror/internal/retry"
)

const (
	defaultTimeout = 30 * time.Second
	perPage        = 100

	// The helpdesk API allows 50 requests per minute on the lowest plan.
	// Stay just under that so a bulk sync never trips the limit.
	requestsPerSecond = 0.75
)

// APIError represents a non-2xx response from the helpdesk API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("helpdesk API returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request can be retried. 429 and 5xx are
// transient; any other 4xx is a permanent failure for that entity.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 from the helpdesk API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is an HTTP client for the remote helpdesk API. All fetches go
// through a rate limiter and exponential backoff retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config
}

// NewClient creates a client for the given helpdesk domain, e.g.
// "https://acme.example-helpdesk.com". The API key is sent as the basic
// auth username, per the helpdesk API convention.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	return &Client{
		baseURL:    fmt.Sprintf("%s/api/v2", baseURL),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 5),
		retryCfg:   retry.RemoteAPIConfig(),
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body []byte
	result := retry.Do(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(c.apiKey, "X")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request to %s failed: %w", path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
		}

		body = data
		return nil
	})
	if !result.Success {
		return result.LastError
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// listPages fetches a paginated collection, calling page for each batch of
// raw JSON until the API returns a short page.
func listPaged[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		var batch []T
		url := fmt.Sprintf("%s?per_page=%d&page=%d", path, perPage, page)
		if err := c.get(ctx, url, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

// Company fetches a single company by its remote identifier.
func (c *Client) Company(ctx context.Context, id int64) (*Company, error) {
	var company Company
	if err := c.get(ctx, fmt.Sprintf("/companies/%d", id), &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// Contact fetches a single contact by its remote identifier.
func (c *Client) Contact(ctx context.Context, id int64) (*Contact, error) {
	var contact Contact
	if err := c.get(ctx, fmt.Sprintf("/contacts/%d", id), &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// Agent fetches a single agent by its remote identifier.
func (c *Client) Agent(ctx context.Context, id int64) (*Agent, error) {
	var agent Agent
	if err := c.get(ctx, fmt.Sprintf("/agents/%d", id), &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Group fetches a single group by its remote identifier.
func (c *Client) Group(ctx context.Context, id int64) (*Group, error) {
	var group Group
	if err := c.get(ctx, fmt.Sprintf("/groups/%d", id), &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Ticket fetches a single ticket by its remote identifier.
func (c *Client) Ticket(ctx context.Context, id int64) (*Ticket, error) {
	var ticket Ticket
	if err := c.get(ctx, fmt.Sprintf("/tickets/%d", id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListCompanies fetches all companies, following pagination.
func (c *Client) ListCompanies(ctx context.Context) ([]Company, error) {
	return listPaged[Company](ctx, c, "/companies")
}

// ListContacts fetches all contacts, following pagination.
func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	return listPaged[Contact](ctx, c, "/contacts")
}

// ListAgents fetches all agents, following pagination.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	return listPaged[Agent](ctx, c, "/agents")
}

// ListGroups fetches all groups, following pagination.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	return listPaged[Group](ctx, c, "/groups")
}

// ListTickets fetches all tickets, following pagination.
func (c *Client) ListTickets(ctx context.Context) ([]Ticket, error) {
	return listPaged[Ticket](ctx, c, "/tickets")
}

// ListConversations fetches the full conversation thread of a ticket,
// following pagination.
func (c *Client) ListConversations(ctx context.Context, ticketID int64) ([]Conversation, error) {
	return listPaged[Conversation](ctx, c, fmt.Sprintf("/tickets/%d/conversations", ticketID))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
