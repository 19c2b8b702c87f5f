package storage

import (
	"context"
	"fmt"
)

// Timestamps are stored as Unix nanoseconds so both backends compare and sort
// them the same way.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS polls (
		id TEXT PRIMARY KEY,
		creator_id TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		min_value DOUBLE PRECISION,
		max_value DOUBLE PRECISION,
		options TEXT NOT NULL DEFAULT '[]',
		demographic_filters TEXT NOT NULL DEFAULT '[]',
		upvotes INTEGER NOT NULL DEFAULT 0,
		response_count INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_polls_active ON polls(is_active)`,

	`CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		value TEXT NOT NULL,
		age_range TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		occupation TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		UNIQUE (poll_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_poll_id ON responses(poll_id)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_user_id ON responses(user_id)`,

	`CREATE TABLE IF NOT EXISTS user_demographics (
		user_id TEXT PRIMARY KEY,
		age_range TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		occupation TEXT NOT NULL DEFAULT '',
		updated_at BIGINT NOT NULL
	)`,
}

// createSchema creates all tables. Safe to call multiple times.
func (s *Storage) createSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
