package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/deskmirror/internal/logging"
	"github.com/deskmirror/internal/remote"
)

// EntityCounts tallies what a bulk pass did for one entity type.
type EntityCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Summary is the result of one full sync run, suitable for direct display
// in the operator UI. Its wire shape is not a compatibility surface.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Companies     EntityCounts `json:"companies"`
	Contacts      EntityCounts `json:"contacts"`
	Agents        EntityCounts `json:"agents"`
	Groups        EntityCounts `json:"groups"`
	Tickets       EntityCounts `json:"tickets"`
	Conversations EntityCounts `json:"conversations"`

	Errors []string `json:"errors,omitempty"`
}

// RunFullSync walks all remote entities in dependency order (companies,
// contacts, agents, groups, tickets, then conversations per ticket) and
// reconciles each through the same upsert services the webhook path uses.
// A failing entity is recorded and skipped, never aborting the rest of the
// run. Rerunning against an unchanged remote creates zero new rows.
func (e *Engine) RunFullSync(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	var mu sync.Mutex

	var runLog *logging.SyncLogger
	if e.runLogDir != "" {
		var err error
		runLog, err = logging.NewSyncLogger(e.runLogDir, summary.RunID)
		if err != nil {
			// the run log is a convenience, not a requirement
			log.Warn().Err(err).Msg("continuing full sync without run log file")
		} else {
			defer runLog.Close()
		}
	}
	log.Info().Str("run_id", summary.RunID).Msg("starting full sync")

	fail := func(counts *EntityCounts, desc string, err error) {
		mu.Lock()
		counts.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", desc, err))
		mu.Unlock()
		runLog.Log("FAILED %s: %v", desc, err)
	}
	tally := func(counts *EntityCounts, created bool) {
		mu.Lock()
		if created {
			counts.Created++
		} else {
			counts.Updated++
		}
		mu.Unlock()
	}

	// Stage 1: companies (no references).
	companies, err := e.remote.ListCompanies(ctx)
	if err != nil {
		fail(&summary.Companies, "list companies", err)
	}
	for i := range companies {
		if _, created, err := e.UpsertCompany(ctx, &companies[i]); err != nil {
			fail(&summary.Companies, fmt.Sprintf("company %d", companies[i].ID), err)
		} else {
			tally(&summary.Companies, created)
		}
	}
	runLog.Log("companies: %+v", summary.Companies)

	// Stage 2: contacts (may reference companies).
	contacts, err := e.remote.ListContacts(ctx)
	if err != nil {
		fail(&summary.Contacts, "list contacts", err)
	}
	for i := range contacts {
		if _, created, err := e.UpsertContact(ctx, &contacts[i]); err != nil {
			fail(&summary.Contacts, fmt.Sprintf("contact %d", contacts[i].ID), err)
		} else {
			tally(&summary.Contacts, created)
		}
	}
	runLog.Log("contacts: %+v", summary.Contacts)

	// Stage 3: agents and groups (no references).
	agents, err := e.remote.ListAgents(ctx)
	if err != nil {
		fail(&summary.Agents, "list agents", err)
	}
	for i := range agents {
		if _, created, err := e.UpsertAgent(ctx, &agents[i]); err != nil {
			fail(&summary.Agents, fmt.Sprintf("agent %d", agents[i].ID), err)
		} else {
			tally(&summary.Agents, created)
		}
	}
	groups, err := e.remote.ListGroups(ctx)
	if err != nil {
		fail(&summary.Groups, "list groups", err)
	}
	for i := range groups {
		if _, created, err := e.UpsertGroup(ctx, &groups[i]); err != nil {
			fail(&summary.Groups, fmt.Sprintf("group %d", groups[i].ID), err)
		} else {
			tally(&summary.Groups, created)
		}
	}
	runLog.Log("agents: %+v groups: %+v", summary.Agents, summary.Groups)

	// Stage 4: tickets (may reference everything above).
	tickets, err := e.remote.ListTickets(ctx)
	if err != nil {
		fail(&summary.Tickets, "list tickets", err)
	}
	var syncedTickets []int64
	for i := range tickets {
		if _, created, err := e.UpsertTicket(ctx, &tickets[i]); err != nil {
			fail(&summary.Tickets, fmt.Sprintf("ticket %d", tickets[i].ID), err)
		} else {
			tally(&summary.Tickets, created)
			syncedTickets = append(syncedTickets, tickets[i].ID)
		}
	}
	runLog.Log("tickets: %+v", summary.Tickets)

	// Stage 5: full conversation threads, fanned out across tickets.
	// Workers never return an error: a bad thread is tallied and skipped.
	g := new(errgroup.Group)
	g.SetLimit(e.conversationWorkers)
	for _, remoteTicketID := range syncedTickets {
		g.Go(func() error {
			conversations, err := e.remote.ListConversations(ctx, remoteTicketID)
			if err != nil {
				fail(&summary.Conversations, fmt.Sprintf("list conversations for ticket %d", remoteTicketID), err)
				return nil
			}
			for i := range conversations {
				conv := &conversations[i]
				if conv.TicketID == 0 {
					conv.TicketID = remoteTicketID
				}
				_, created, err := e.UpsertConversation(ctx, conv, remote.SourceTag(conv.Source), conv.Private)
				if err != nil {
					fail(&summary.Conversations, fmt.Sprintf("conversation %d", conv.ID), err)
					continue
				}
				tally(&summary.Conversations, created)
			}
			return nil
		})
	}
	g.Wait()
	runLog.Log("conversations: %+v", summary.Conversations)

	summary.FinishedAt = time.Now().UTC()
	log.Info().
		Str("run_id", summary.RunID).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Int("errors", len(summary.Errors)).
		Msg("full sync finished")
	return summary, nil
}
