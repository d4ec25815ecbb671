package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("store: record not found")

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. The sync engine treats a lost insert race as success, so this
// is checked wherever two writers may race on the same remote identifier.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Store provides database operations for the local helpdesk mirror.
type Store struct {
	db *sql.DB
}

// New creates a store backed by the given database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Upserts are keyed on remote_id. The "(xmax = 0)" expression is true only
// for rows inserted by this statement, which is how callers learn whether
// the upsert created or updated.

// UpsertCompany inserts or updates a company by remote id and fills in the
// local primary key. It reports whether a new row was created.
func (s *Store) UpsertCompany(ctx context.Context, c *Company) (bool, error) {
	query := `
		INSERT INTO companies (remote_id, name, domains, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (remote_id) DO UPDATE
		SET name = EXCLUDED.name, domains = EXCLUDED.domains, updated_at = NOW()
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(ctx, query, c.RemoteID, c.Name, pq.Array(c.Domains)).
		Scan(&c.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert company %d: %w", c.RemoteID, err)
	}
	return created, nil
}

// UpsertContact inserts or updates a contact by remote id.
func (s *Store) UpsertContact(ctx context.Context, c *Contact) (bool, error) {
	query := `
		INSERT INTO contacts (remote_id, name, email, company_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (remote_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email,
		    company_id = EXCLUDED.company_id, updated_at = NOW()
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(ctx, query, c.RemoteID, c.Name, c.Email, c.CompanyID).
		Scan(&c.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert contact %d: %w", c.RemoteID, err)
	}
	return created, nil
}

// UpsertAgent inserts or updates an agent by remote id.
func (s *Store) UpsertAgent(ctx context.Context, a *Agent) (bool, error) {
	query := `
		INSERT INTO agents (remote_id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (remote_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = NOW()
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(ctx, query, a.RemoteID, a.Name, a.Email).
		Scan(&a.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert agent %d: %w", a.RemoteID, err)
	}
	return created, nil
}

// UpsertGroup inserts or updates a group by remote id.
func (s *Store) UpsertGroup(ctx context.Context, g *Group) (bool, error) {
	query := `
		INSERT INTO groups (remote_id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (remote_id) DO UPDATE
		SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(ctx, query, g.RemoteID, g.Name).Scan(&g.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert group %d: %w", g.RemoteID, err)
	}
	return created, nil
}

// UpsertTicket inserts or updates a ticket by remote id.
func (s *Store) UpsertTicket(ctx context.Context, t *Ticket) (bool, error) {
	query := `
		INSERT INTO tickets (remote_id, subject, description, status, priority,
		                     contact_id, company_id, agent_id, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (remote_id) DO UPDATE
		SET subject = EXCLUDED.subject, description = EXCLUDED.description,
		    status = EXCLUDED.status, priority = EXCLUDED.priority,
		    contact_id = EXCLUDED.contact_id, company_id = EXCLUDED.company_id,
		    agent_id = EXCLUDED.agent_id, group_id = EXCLUDED.group_id,
		    updated_at = NOW()
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(ctx, query,
		t.RemoteID, t.Subject, t.Description, t.Status, t.Priority,
		t.ContactID, t.CompanyID, t.AgentID, t.GroupID,
	).Scan(&t.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert ticket %d: %w", t.RemoteID, err)
	}
	return created, nil
}

// UpsertConversation inserts or updates a conversation by remote id.
func (s *Store) UpsertConversation(ctx context.Context, c *Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (remote_id, ticket_id, body, source, private, incoming,
		                           contact_id, agent_id, remote_created_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (remote_id) DO UPDATE
		SET body = EXCLUDED.body, source = EXCLUDED.source, private = EXCLUDED.private,
		    incoming = EXCLUDED.incoming, contact_id = EXCLUDED.contact_id,
		    agent_id = EXCLUDED.agent_id, remote_created_at = EXCLUDED.remote_created_at,
		    updated_at = NOW()
		RETURNING id, (xmax = 0)
	`
	var created bool
	err := s.db.QueryRowContext(ctx, query,
		c.RemoteID, c.TicketID, c.Body, c.Source, c.Private, c.Incoming,
		c.ContactID, c.AgentID, c.RemoteCreatedAt,
	).Scan(&c.ID, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert conversation %d: %w", c.RemoteID, err)
	}
	return created, nil
}

// CompanyByRemoteID looks up a company by its remote identifier.
func (s *Store) CompanyByRemoteID(ctx context.Context, remoteID int64) (*Company, error) {
	query := `
		SELECT id, remote_id, name, domains, created_at, updated_at
		FROM companies WHERE remote_id = $1
	`
	var c Company
	err := s.db.QueryRowContext(ctx, query, remoteID).Scan(
		&c.ID, &c.RemoteID, &c.Name, pq.Array(&c.Domains), &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company %d: %w", remoteID, err)
	}
	return &c, nil
}

// ContactByRemoteID looks up a contact by its remote identifier.
func (s *Store) ContactByRemoteID(ctx context.Context, remoteID int64) (*Contact, error) {
	query := `
		SELECT id, remote_id, name, email, company_id, created_at, updated_at
		FROM contacts WHERE remote_id = $1
	`
	var c Contact
	err := s.db.QueryRowContext(ctx, query, remoteID).Scan(
		&c.ID, &c.RemoteID, &c.Name, &c.Email, &c.CompanyID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact %d: %w", remoteID, err)
	}
	return &c, nil
}

// AgentByRemoteID looks up an agent by its remote identifier.
func (s *Store) AgentByRemoteID(ctx context.Context, remoteID int64) (*Agent, error) {
	query := `
		SELECT id, remote_id, name, email, created_at, updated_at
		FROM agents WHERE remote_id = $1
	`
	var a Agent
	err := s.db.QueryRowContext(ctx, query, remoteID).Scan(
		&a.ID, &a.RemoteID, &a.Name, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find agent %d: %w", remoteID, err)
	}
	return &a, nil
}

// GroupByRemoteID looks up a group by its remote identifier.
func (s *Store) GroupByRemoteID(ctx context.Context, remoteID int64) (*Group, error) {
	query := `
		SELECT id, remote_id, name, created_at, updated_at
		FROM groups WHERE remote_id = $1
	`
	var g Group
	err := s.db.QueryRowContext(ctx, query, remoteID).Scan(
		&g.ID, &g.RemoteID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group %d: %w", remoteID, err)
	}
	return &g, nil
}

// TicketByRemoteID looks up a ticket by its remote identifier.
func (s *Store) TicketByRemoteID(ctx context.Context, remoteID int64) (*Ticket, error) {
	query := `
		SELECT id, remote_id, subject, description, status, priority,
		       contact_id, company_id, agent_id, group_id, created_at, updated_at
		FROM tickets WHERE remote_id = $1
	`
	var t Ticket
	err := s.db.QueryRowContext(ctx, query, remoteID).Scan(
		&t.ID, &t.RemoteID, &t.Subject, &t.Description, &t.Status, &t.Priority,
		&t.ContactID, &t.CompanyID, &t.AgentID, &t.GroupID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket %d: %w", remoteID, err)
	}
	return &t, nil
}

// ConversationByRemoteID looks up a conversation by its remote identifier.
func (s *Store) ConversationByRemoteID(ctx context.Context, remoteID int64) (*Conversation, error) {
	query := `
		SELECT id, remote_id, ticket_id, body, source, private, incoming,
		       contact_id, agent_id, remote_created_at, created_at, updated_at
		FROM conversations WHERE remote_id = $1
	`
	var c Conversation
	err := s.db.QueryRowContext(ctx, query, remoteID).Scan(
		&c.ID, &c.RemoteID, &c.TicketID, &c.Body, &c.Source, &c.Private, &c.Incoming,
		&c.ContactID, &c.AgentID, &c.RemoteCreatedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation %d: %w", remoteID, err)
	}
	return &c, nil
}

// TicketByID fetches a ticket by local primary key, for the read API.
func (s *Store) TicketByID(ctx context.Context, id int64) (*Ticket, error) {
	query := `
		SELECT id, remote_id, subject, description, status, priority,
		       contact_id, company_id, agent_id, group_id, created_at, updated_at
		FROM tickets WHERE id = $1
	`
	var t Ticket
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.RemoteID, &t.Subject, &t.Description, &t.Status, &t.Priority,
		&t.ContactID, &t.CompanyID, &t.AgentID, &t.GroupID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticket %d: %w", id, err)
	}
	return &t, nil
}

// ListTickets returns tickets newest first, for the read API.
func (s *Store) ListTickets(ctx context.Context, limit, offset int) ([]*Ticket, error) {
	query := `
		SELECT id, remote_id, subject, description, status, priority,
		       contact_id, company_id, agent_id, group_id, created_at, updated_at
		FROM tickets ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(
			&t.ID, &t.RemoteID, &t.Subject, &t.Description, &t.Status, &t.Priority,
			&t.ContactID, &t.CompanyID, &t.AgentID, &t.GroupID, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

// ConversationsForTicket returns a ticket's thread in remote creation order.
func (s *Store) ConversationsForTicket(ctx context.Context, ticketID int64) ([]*Conversation, error) {
	query := `
		SELECT id, remote_id, ticket_id, body, source, private, incoming,
		       contact_id, agent_id, remote_created_at, created_at, updated_at
		FROM conversations WHERE ticket_id = $1 ORDER BY remote_created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for ticket %d: %w", ticketID, err)
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(
			&c.ID, &c.RemoteID, &c.TicketID, &c.Body, &c.Source, &c.Private, &c.Incoming,
			&c.ContactID, &c.AgentID, &c.RemoteCreatedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}

// ListContacts returns contacts ordered by name, for the read API.
func (s *Store) ListContacts(ctx context.Context, limit, offset int) ([]*Contact, error) {
	query := `
		SELECT id, remote_id, name, email, company_id, created_at, updated_at
		FROM contacts ORDER BY name ASC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.RemoteID, &c.Name, &c.Email, &c.CompanyID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// ListCompanies returns companies ordered by name, for the read API.
func (s *Store) ListCompanies(ctx context.Context, limit, offset int) ([]*Company, error) {
	query := `
		SELECT id, remote_id, name, domains, created_at, updated_at
		FROM companies ORDER BY name ASC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.RemoteID, &c.Name, pq.Array(&c.Domains), &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// Counts returns the number of mirrored rows per table, for the dashboard.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range []string{"companies", "contacts", "agents", "groups", "tickets", "conversations"} {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	log.Debug().Interface("counts", counts).Msg("collected mirror table counts")
	return counts, nil
}
