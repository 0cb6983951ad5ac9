package db

import "context"

// EnsureSchema - 기동 시 테이블이 없으면 생성
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			id BIGSERIAL PRIMARY KEY,
			ticket_number TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			issue_category TEXT NOT NULL DEFAULT 'general',
			issue_title TEXT NOT NULL,
			issue_description TEXT NOT NULL DEFAULT '',
			steps_attempted TEXT[] NOT NULL DEFAULT '{}',
			browser_info TEXT NOT NULL DEFAULT 'Not specified',
			device_info TEXT NOT NULL DEFAULT 'Not specified',
			urgency_level TEXT NOT NULL DEFAULT 'medium',
			status TEXT NOT NULL DEFAULT 'open',
			conversation_context TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ,
			resolution_notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_chat_created ON tickets (chat_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS knowledge_entries (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			ticket_source TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS admin_users (
			id BIGSERIAL PRIMARY KEY,
			login_id TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
