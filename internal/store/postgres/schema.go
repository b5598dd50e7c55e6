package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name           TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_opened_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		campaign_id        BIGINT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		title              TEXT NOT NULL,
		current_scene      TEXT NOT NULL DEFAULT '',
		session_state      TEXT NOT NULL DEFAULT '',
		pinned_world_notes TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_campaign ON sessions (campaign_id);

	CREATE TABLE IF NOT EXISTS world_bible_entries (
		id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		campaign_id       BIGINT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		entry_type        TEXT NOT NULL,
		title             TEXT NOT NULL,
		content           TEXT NOT NULL,
		tags              TEXT NOT NULL DEFAULT '',
		related_locations TEXT NOT NULL DEFAULT '',
		related_npcs      TEXT NOT NULL DEFAULT '',
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_world_bible_title UNIQUE (campaign_id, title)
	);
	CREATE INDEX IF NOT EXISTS idx_world_bible_campaign ON world_bible_entries (campaign_id);
	CREATE INDEX IF NOT EXISTS idx_world_bible_type ON world_bible_entries (entry_type);

	CREATE TABLE IF NOT EXISTS story_journal_entries (
		id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		session_id   BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_index   INTEGER,
		scene_id     TEXT NOT NULL DEFAULT '',
		summary      TEXT NOT NULL,
		open_threads TEXT NOT NULL DEFAULT '',
		key_facts    TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_story_journal_session ON story_journal_entries (session_id);
	CREATE INDEX IF NOT EXISTS idx_story_journal_turn ON story_journal_entries (session_id, turn_index);

	CREATE TABLE IF NOT EXISTS session_summaries (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		level      TEXT NOT NULL,
		start_turn INTEGER NOT NULL,
		end_turn   INTEGER NOT NULL,
		summary    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_session_summaries_level ON session_summaries (session_id, level);

	CREATE TABLE IF NOT EXISTS plot_threads (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'open',
		priority   INTEGER NOT NULL DEFAULT 0,
		summary    TEXT NOT NULL DEFAULT '',
		next_step  TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_plot_threads_session ON plot_threads (session_id);
	CREATE INDEX IF NOT EXISTS idx_plot_threads_status ON plot_threads (session_id, status);

	CREATE TABLE IF NOT EXISTS turn_logs (
		id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		session_id  BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_index  INTEGER NOT NULL,
		player_text TEXT NOT NULL,
		dm_text     TEXT NOT NULL,
		dice_events TEXT NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_turn_logs_turn UNIQUE (session_id, turn_index)
	);

	CREATE TABLE IF NOT EXISTS character_sheets (
		session_id BIGINT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
		json_text  TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS state_change_requests (
		id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		session_id      BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_index      INTEGER NOT NULL,
		kind            TEXT NOT NULL DEFAULT 'state_delta',
		delta_json_text TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending',
		error_text      TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_change_requests_status ON state_change_requests (session_id, status);
	`

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("executing DDL: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}
