package database

import (
	"database/sql"
	"fmt"
)

// The unique index on remote_id in every table enforces the core sync
// invariant: one local row per (entity type, remote identifier). Concurrent
// writers racing on the same remote id converge through ON CONFLICT upserts
// instead of creating duplicates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id         BIGSERIAL PRIMARY KEY,
		remote_id  BIGINT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		domains    TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id         BIGSERIAL PRIMARY KEY,
		remote_id  BIGINT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		company_id BIGINT REFERENCES companies(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS agents (
		id         BIGSERIAL PRIMARY KEY,
		remote_id  BIGINT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id         BIGSERIAL PRIMARY KEY,
		remote_id  BIGINT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id          BIGSERIAL PRIMARY KEY,
		remote_id   BIGINT NOT NULL UNIQUE,
		subject     TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		priority    TEXT NOT NULL,
		contact_id  BIGINT NOT NULL REFERENCES contacts(id),
		company_id  BIGINT REFERENCES companies(id),
		agent_id    BIGINT REFERENCES agents(id),
		group_id    BIGINT REFERENCES groups(id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id                BIGSERIAL PRIMARY KEY,
		remote_id         BIGINT NOT NULL UNIQUE,
		ticket_id         BIGINT NOT NULL REFERENCES tickets(id),
		body              TEXT NOT NULL DEFAULT '',
		source            TEXT NOT NULL,
		private           BOOLEAN NOT NULL DEFAULT FALSE,
		incoming          BOOLEAN NOT NULL DEFAULT FALSE,
		contact_id        BIGINT REFERENCES contacts(id),
		agent_id          BIGINT REFERENCES agents(id),
		remote_created_at TIMESTAMPTZ NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_ticket_id ON conversations (ticket_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_company_id ON contacts (company_id)`,
}

// Migrate creates the mirror tables if they do not exist. It is idempotent
// and runs at every startup.
func Migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
