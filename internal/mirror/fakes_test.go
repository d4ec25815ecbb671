package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/deskmirror/internal/remote"
	"github.com/deskmirror/internal/store"
)

// memStore is an in-memory Store used by engine tests. It mirrors the
// Postgres store's semantics: one row per remote id, upserts update in
// place, lookups return store.ErrNotFound on a miss.
type memStore struct {
	mu     sync.Mutex
	nextID int64

	companies     map[int64]*store.Company
	contacts      map[int64]*store.Contact
	agents        map[int64]*store.Agent
	groups        map[int64]*store.Group
	tickets       map[int64]*store.Ticket
	conversations map[int64]*store.Conversation
}

func newMemStore() *memStore {
	return &memStore{
		companies:     make(map[int64]*store.Company),
		contacts:      make(map[int64]*store.Contact),
		agents:        make(map[int64]*store.Agent),
		groups:        make(map[int64]*store.Group),
		tickets:       make(map[int64]*store.Ticket),
		conversations: make(map[int64]*store.Conversation),
	}
}

func (m *memStore) allocID() int64 {
	m.nextID++
	return m.nextID
}

func upsertRow[T any](m *memStore, rows map[int64]*T, remoteID int64, row *T, setID func(*T, int64)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := rows[remoteID]; ok {
		var keep int64
		// preserve the existing local id through the update
		switch e := any(existing).(type) {
		case *store.Company:
			keep = e.ID
		case *store.Contact:
			keep = e.ID
		case *store.Agent:
			keep = e.ID
		case *store.Group:
			keep = e.ID
		case *store.Ticket:
			keep = e.ID
		case *store.Conversation:
			keep = e.ID
		}
		setID(row, keep)
		rows[remoteID] = row
		return false
	}
	setID(row, m.allocID())
	rows[remoteID] = row
	return true
}

func findRow[T any](m *memStore, rows map[int64]*T, remoteID int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := rows[remoteID]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpsertCompany(_ context.Context, c *store.Company) (bool, error) {
	return upsertRow(m, m.companies, c.RemoteID, c, func(r *store.Company, id int64) { r.ID = id }), nil
}

func (m *memStore) UpsertContact(_ context.Context, c *store.Contact) (bool, error) {
	return upsertRow(m, m.contacts, c.RemoteID, c, func(r *store.Contact, id int64) { r.ID = id }), nil
}

func (m *memStore) UpsertAgent(_ context.Context, a *store.Agent) (bool, error) {
	return upsertRow(m, m.agents, a.RemoteID, a, func(r *store.Agent, id int64) { r.ID = id }), nil
}

func (m *memStore) UpsertGroup(_ context.Context, g *store.Group) (bool, error) {
	return upsertRow(m, m.groups, g.RemoteID, g, func(r *store.Group, id int64) { r.ID = id }), nil
}

func (m *memStore) UpsertTicket(_ context.Context, t *store.Ticket) (bool, error) {
	return upsertRow(m, m.tickets, t.RemoteID, t, func(r *store.Ticket, id int64) { r.ID = id }), nil
}

func (m *memStore) UpsertConversation(_ context.Context, c *store.Conversation) (bool, error) {
	return upsertRow(m, m.conversations, c.RemoteID, c, func(r *store.Conversation, id int64) { r.ID = id }), nil
}

func (m *memStore) CompanyByRemoteID(_ context.Context, remoteID int64) (*store.Company, error) {
	return findRow(m, m.companies, remoteID)
}

func (m *memStore) ContactByRemoteID(_ context.Context, remoteID int64) (*store.Contact, error) {
	return findRow(m, m.contacts, remoteID)
}

func (m *memStore) AgentByRemoteID(_ context.Context, remoteID int64) (*store.Agent, error) {
	return findRow(m, m.agents, remoteID)
}

func (m *memStore) GroupByRemoteID(_ context.Context, remoteID int64) (*store.Group, error) {
	return findRow(m, m.groups, remoteID)
}

func (m *memStore) TicketByRemoteID(_ context.Context, remoteID int64) (*store.Ticket, error) {
	return findRow(m, m.tickets, remoteID)
}

func (m *memStore) ConversationByRemoteID(_ context.Context, remoteID int64) (*store.Conversation, error) {
	return findRow(m, m.conversations, remoteID)
}

// snapshot returns row counts per table for convergence assertions.
func (m *memStore) snapshot() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"companies":     len(m.companies),
		"contacts":      len(m.contacts),
		"agents":        len(m.agents),
		"groups":        len(m.groups),
		"tickets":       len(m.tickets),
		"conversations": len(m.conversations),
	}
}

// fakeRemote is an in-memory RemoteClient. Entities missing from its maps
// produce 404-shaped errors; paths listed in failures produce transient
// errors. fetches counts single-entity fetches per entity type.
type fakeRemote struct {
	mu sync.Mutex

	companies map[int64]remote.Company
	contacts  map[int64]remote.Contact
	agents    map[int64]remote.Agent
	groups    map[int64]remote.Group
	tickets   map[int64]remote.Ticket
	// conversations keyed by remote ticket id
	conversations map[int64][]remote.Conversation

	failures map[string]error
	fetches  map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		companies:     make(map[int64]remote.Company),
		contacts:      make(map[int64]remote.Contact),
		agents:        make(map[int64]remote.Agent),
		groups:        make(map[int64]remote.Group),
		tickets:       make(map[int64]remote.Ticket),
		conversations: make(map[int64][]remote.Conversation),
		failures:      make(map[string]error),
		fetches:       make(map[string]int),
	}
}

func (f *fakeRemote) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

func (f *fakeRemote) fetchCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[op]
}

func (f *fakeRemote) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[op]++
	return f.failures[op]
}

func notFoundErr() error {
	return &remote.APIError{StatusCode: 404, Body: "not found"}
}

func (f *fakeRemote) Company(_ context.Context, id int64) (*remote.Company, error) {
	if err := f.check("company"); err != nil {
		return nil, err
	}
	if c, ok := f.companies[id]; ok {
		return &c, nil
	}
	return nil, notFoundErr()
}

func (f *fakeRemote) Contact(_ context.Context, id int64) (*remote.Contact, error) {
	if err := f.check("contact"); err != nil {
		return nil, err
	}
	if c, ok := f.contacts[id]; ok {
		return &c, nil
	}
	return nil, notFoundErr()
}

func (f *fakeRemote) Agent(_ context.Context, id int64) (*remote.Agent, error) {
	if err := f.check("agent"); err != nil {
		return nil, err
	}
	if a, ok := f.agents[id]; ok {
		return &a, nil
	}
	return nil, notFoundErr()
}

func (f *fakeRemote) Group(_ context.Context, id int64) (*remote.Group, error) {
	if err := f.check("group"); err != nil {
		return nil, err
	}
	if g, ok := f.groups[id]; ok {
		return &g, nil
	}
	return nil, notFoundErr()
}

func (f *fakeRemote) Ticket(_ context.Context, id int64) (*remote.Ticket, error) {
	if err := f.check("ticket"); err != nil {
		return nil, err
	}
	if t, ok := f.tickets[id]; ok {
		return &t, nil
	}
	return nil, notFoundErr()
}

func (f *fakeRemote) ListCompanies(_ context.Context) ([]remote.Company, error) {
	if err := f.check("list_companies"); err != nil {
		return nil, err
	}
	return sortedValues(f.companies), nil
}

func (f *fakeRemote) ListContacts(_ context.Context) ([]remote.Contact, error) {
	if err := f.check("list_contacts"); err != nil {
		return nil, err
	}
	return sortedValues(f.contacts), nil
}

func (f *fakeRemote) ListAgents(_ context.Context) ([]remote.Agent, error) {
	if err := f.check("list_agents"); err != nil {
		return nil, err
	}
	return sortedValues(f.agents), nil
}

func (f *fakeRemote) ListGroups(_ context.Context) ([]remote.Group, error) {
	if err := f.check("list_groups"); err != nil {
		return nil, err
	}
	return sortedValues(f.groups), nil
}

func (f *fakeRemote) ListTickets(_ context.Context) ([]remote.Ticket, error) {
	if err := f.check("list_tickets"); err != nil {
		return nil, err
	}
	return sortedValues(f.tickets), nil
}

func (f *fakeRemote) ListConversations(_ context.Context, ticketID int64) ([]remote.Conversation, error) {
	if err := f.check(fmt.Sprintf("list_conversations_%d", ticketID)); err != nil {
		return nil, err
	}
	return append([]remote.Conversation(nil), f.conversations[ticketID]...), nil
}

func sortedValues[T any](in map[int64]T) []T {
	ids := make([]int64, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(in))
	for _, id := range ids {
		out = append(out, in[id])
	}
	return out
}
