package remote

import "time"

// Conversation source values as reported by the helpdesk API.
const (
	SourceReply   = 0
	SourceNote    = 2
	SourceForward = 8
)

// Company is a company as returned by the helpdesk API.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Domains   []string  `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a customer contact. CompanyID is null for contacts that are
// not attached to any company.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CompanyID *int64    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Agent is a support agent. The helpdesk API nests the agent's person
// fields under a contact object.
type Agent struct {
	ID      int64 `json:"id"`
	Contact struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is an agent group.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ticket is a helpdesk ticket. All references to other entities are remote
// identifiers; RequesterID is always set, the rest are optional.
type Ticket struct {
	ID          int64     `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description_text"`
	Status      int       `json:"status"`
	Priority    int       `json:"priority"`
	RequesterID int64     `json:"requester_id"`
	CompanyID   *int64    `json:"company_id"`
	ResponderID *int64    `json:"responder_id"`
	GroupID     *int64    `json:"group_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conversation is one entry in a ticket's conversation thread: a customer
// reply, an agent note, or a forward. UserID identifies the author in the
// helpdesk's shared contact/agent id namespace.
type Conversation struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	Body      string    `json:"body_text"`
	Source    int       `json:"source"`
	Private   bool      `json:"private"`
	Incoming  bool      `json:"incoming"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceTag converts the numeric conversation source to the tag stored
// locally.
func SourceTag(source int) string {
	switch source {
	case SourceReply:
		return "reply"
	case SourceNote:
		return "note"
	case SourceForward:
		return "forward"
	default:
		return "reply"
	}
}
