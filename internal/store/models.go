package store

import "time"

// Local mirror rows. Every row keeps the remote system's identifier in
// RemoteID; that column is unique per table and is the join key between the
// two systems. Local foreign keys (CompanyID, ContactID, ...) always point
// at local primary keys, never at remote identifiers.

// Company is a locally mirrored company.
type Company struct {
	ID        int64     `json:"id"`
	RemoteID  int64     `json:"remote_id"`
	Name      string    `json:"name"`
	Domains   []string  `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a locally mirrored contact. CompanyID is null for contacts
// without a company.
type Contact struct {
	ID        int64     `json:"id"`
	RemoteID  int64     `json:"remote_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CompanyID *int64    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Agent is a locally mirrored agent. Agents are provisioned by sync only;
// the local UI never creates them.
type Agent struct {
	ID        int64     `json:"id"`
	RemoteID  int64     `json:"remote_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a locally mirrored agent group.
type Group struct {
	ID        int64     `json:"id"`
	RemoteID  int64     `json:"remote_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ticket is a locally mirrored ticket. ContactID is the requester and is
// always set; the other references are optional.
type Ticket struct {
	ID          int64     `json:"id"`
	RemoteID    int64     `json:"remote_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	ContactID   int64     `json:"contact_id"`
	CompanyID   *int64    `json:"company_id"`
	AgentID     *int64    `json:"agent_id"`
	GroupID     *int64    `json:"group_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conversation is one locally mirrored entry of a ticket's thread. Source
// is "reply", "note" or "forward". Exactly one of ContactID/AgentID is set
// when the author could be resolved; both are null otherwise.
type Conversation struct {
	ID              int64     `json:"id"`
	RemoteID        int64     `json:"remote_id"`
	TicketID        int64     `json:"ticket_id"`
	Body            string    `json:"body"`
	Source          string    `json:"source"`
	Private         bool      `json:"private"`
	Incoming        bool      `json:"incoming"`
	ContactID       *int64    `json:"contact_id"`
	AgentID         *int64    `json:"agent_id"`
	RemoteCreatedAt time.Time `json:"remote_created_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
