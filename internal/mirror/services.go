package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/deskmirror/internal/remote"
	"github.com/deskmirror/internal/store"
)

// Upsert services: one per entity type, each translating a remote payload
// into a local row. Foreign remote identifiers are resolved to local
// primary keys through the mapper before the row is written, so no row is
// ever stored with a dangling reference. All services are idempotent: the
// same payload twice yields one row. A failed reference resolution aborts
// the upsert with nothing written.

// statusName maps the helpdesk API's numeric ticket status to the label
// stored locally.
func statusName(status int) string {
	switch status {
	case 2:
		return "open"
	case 3:
		return "pending"
	case 4:
		return "resolved"
	case 5:
		return "closed"
	default:
		return "open"
	}
}

// priorityName maps the helpdesk API's numeric ticket priority to the
// label stored locally.
func priorityName(priority int) string {
	switch priority {
	case 1:
		return "low"
	case 2:
		return "medium"
	case 3:
		return "high"
	case 4:
		return "urgent"
	default:
		return "low"
	}
}

// UpsertCompany mirrors a remote company payload.
func (e *Engine) UpsertCompany(ctx context.Context, payload *remote.Company) (*store.Company, bool, error) {
	if payload.ID == 0 {
		return nil, false, fmt.Errorf("%w for company payload", ErrInvalidReference)
	}

	c := &store.Company{
		RemoteID: payload.ID,
		Name:     payload.Name,
		Domains:  payload.Domains,
	}
	created, err := e.store.UpsertCompany(ctx, c)
	if err != nil {
		return nil, false, err
	}
	return c, created, nil
}

// UpsertContact mirrors a remote contact payload, resolving the optional
// company reference first.
func (e *Engine) UpsertContact(ctx context.Context, payload *remote.Contact) (*store.Contact, bool, error) {
	if payload.ID == 0 {
		return nil, false, fmt.Errorf("%w for contact payload", ErrInvalidReference)
	}

	companyID, err := e.resolveOptional(ctx, EntityCompany, payload.CompanyID)
	if err != nil {
		return nil, false, err
	}

	c := &store.Contact{
		RemoteID:  payload.ID,
		Name:      payload.Name,
		Email:     payload.Email,
		CompanyID: companyID,
	}
	created, err := e.store.UpsertContact(ctx, c)
	if err != nil {
		return nil, false, err
	}
	return c, created, nil
}

// UpsertAgent mirrors a remote agent payload. Agents only ever reach this
// path through an explicit reference (a ticket's responder) or the bulk
// agent stage; arbitrary webhook payloads never create agents.
func (e *Engine) UpsertAgent(ctx context.Context, payload *remote.Agent) (*store.Agent, bool, error) {
	if payload.ID == 0 {
		return nil, false, fmt.Errorf("%w for agent payload", ErrInvalidReference)
	}

	a := &store.Agent{
		RemoteID: payload.ID,
		Name:     payload.Contact.Name,
		Email:    payload.Contact.Email,
	}
	created, err := e.store.UpsertAgent(ctx, a)
	if err != nil {
		return nil, false, err
	}
	return a, created, nil
}

// UpsertGroup mirrors a remote group payload.
func (e *Engine) UpsertGroup(ctx context.Context, payload *remote.Group) (*store.Group, bool, error) {
	if payload.ID == 0 {
		return nil, false, fmt.Errorf("%w for group payload", ErrInvalidReference)
	}

	g := &store.Group{
		RemoteID: payload.ID,
		Name:     payload.Name,
	}
	created, err := e.store.UpsertGroup(ctx, g)
	if err != nil {
		return nil, false, err
	}
	return g, created, nil
}

// UpsertTicket mirrors a remote ticket payload. The requester is required;
// company, responder and group are resolved only when present.
func (e *Engine) UpsertTicket(ctx context.Context, payload *remote.Ticket) (*store.Ticket, bool, error) {
	if payload.ID == 0 {
		return nil, false, fmt.Errorf("%w for ticket payload", ErrInvalidReference)
	}
	if payload.RequesterID == 0 {
		return nil, false, fmt.Errorf("%w: ticket %d has no requester", ErrInvalidReference, payload.ID)
	}

	contactID, err := e.Resolve(ctx, EntityContact, payload.RequesterID)
	if err != nil {
		return nil, false, err
	}
	companyID, err := e.resolveOptional(ctx, EntityCompany, payload.CompanyID)
	if err != nil {
		return nil, false, err
	}
	agentID, err := e.resolveOptional(ctx, EntityAgent, payload.ResponderID)
	if err != nil {
		return nil, false, err
	}
	groupID, err := e.resolveOptional(ctx, EntityGroup, payload.GroupID)
	if err != nil {
		return nil, false, err
	}

	t := &store.Ticket{
		RemoteID:    payload.ID,
		Subject:     payload.Subject,
		Description: payload.Description,
		Status:      statusName(payload.Status),
		Priority:    priorityName(payload.Priority),
		ContactID:   contactID,
		CompanyID:   companyID,
		AgentID:     agentID,
		GroupID:     groupID,
	}
	created, err := e.store.UpsertTicket(ctx, t)
	if err != nil {
		return nil, false, err
	}
	return t, created, nil
}

// UpsertConversation mirrors one conversation entry. The parent ticket is
// looked up locally and must already be mirrored; the author is resolved
// by lookup only and left null when unknown. sourceTag and private come
// from the trigger: the classified webhook event, or the payload's own
// fields on the bulk path.
func (e *Engine) UpsertConversation(ctx context.Context, payload *remote.Conversation, sourceTag string, private bool) (*store.Conversation, bool, error) {
	if payload.ID == 0 {
		return nil, false, fmt.Errorf("%w for conversation payload", ErrInvalidReference)
	}

	ticket, err := e.store.TicketByRemoteID(ctx, payload.TicketID)
	if err != nil {
		return nil, false, err
	}

	contactID, agentID, err := e.resolveAuthor(ctx, payload.UserID)
	if err != nil {
		return nil, false, err
	}

	c := &store.Conversation{
		RemoteID:        payload.ID,
		TicketID:        ticket.ID,
		Body:            payload.Body,
		Source:          sourceTag,
		Private:         private,
		Incoming:        payload.Incoming,
		ContactID:       contactID,
		AgentID:         agentID,
		RemoteCreatedAt: payload.CreatedAt,
	}
	created, err := e.store.UpsertConversation(ctx, c)
	if err != nil {
		return nil, false, err
	}
	return c, created, nil
}

// resolveAuthor maps a remote user id to a local contact or agent, trying
// contacts first. The helpdesk API reports conversation authors in a
// single user id namespace shared between contacts and agents; nothing
// guarantees those namespaces never collide, so a contact with the same
// remote id as the authoring agent would shadow it here. Authors are
// resolved by lookup only, never fetched: an unknown author leaves both
// references null rather than failing the conversation.
func (e *Engine) resolveAuthor(ctx context.Context, userID int64) (contactID, agentID *int64, err error) {
	if userID == 0 {
		return nil, nil, nil
	}

	contact, err := e.store.ContactByRemoteID(ctx, userID)
	if err == nil {
		return &contact.ID, nil, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}

	agent, err := e.store.AgentByRemoteID(ctx, userID)
	if err == nil {
		return nil, &agent.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}

	log.Warn().Int64("user_id", userID).
		Msg("conversation author matches neither contacts nor agents")
	return nil, nil, nil
}
