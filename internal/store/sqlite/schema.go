package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		last_opened_at TEXT
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign_id        INTEGER NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		title              TEXT NOT NULL,
		current_scene      TEXT DEFAULT '',
		session_state      TEXT DEFAULT '',
		pinned_world_notes TEXT DEFAULT '',
		created_at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_campaign ON sessions (campaign_id);

	CREATE TABLE IF NOT EXISTS world_bible_entries (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign_id       INTEGER NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		entry_type        TEXT NOT NULL,
		title             TEXT NOT NULL,
		content           TEXT NOT NULL,
		tags              TEXT DEFAULT '',
		related_locations TEXT DEFAULT '',
		related_npcs      TEXT DEFAULT '',
		updated_at        TEXT NOT NULL,
		CONSTRAINT uq_world_bible_title UNIQUE (campaign_id, title)
	);
	CREATE INDEX IF NOT EXISTS idx_world_bible_campaign ON world_bible_entries (campaign_id);
	CREATE INDEX IF NOT EXISTS idx_world_bible_type ON world_bible_entries (entry_type);

	CREATE TABLE IF NOT EXISTS story_journal_entries (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_index   INTEGER,
		scene_id     TEXT DEFAULT '',
		summary      TEXT NOT NULL,
		open_threads TEXT DEFAULT '',
		key_facts    TEXT DEFAULT '',
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_story_journal_session ON story_journal_entries (session_id);
	CREATE INDEX IF NOT EXISTS idx_story_journal_turn ON story_journal_entries (session_id, turn_index);

	CREATE TABLE IF NOT EXISTS session_summaries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		level      TEXT NOT NULL,
		start_turn INTEGER NOT NULL,
		end_turn   INTEGER NOT NULL,
		summary    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_summaries_level ON session_summaries (session_id, level);

	CREATE TABLE IF NOT EXISTS plot_threads (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'open',
		priority   INTEGER NOT NULL DEFAULT 0,
		summary    TEXT DEFAULT '',
		next_step  TEXT DEFAULT '',
		tags       TEXT DEFAULT '',
		updated_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plot_threads_session ON plot_threads (session_id);
	CREATE INDEX IF NOT EXISTS idx_plot_threads_status ON plot_threads (session_id, status);

	CREATE TABLE IF NOT EXISTS turn_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_index  INTEGER NOT NULL,
		player_text TEXT NOT NULL,
		dm_text     TEXT NOT NULL,
		dice_events TEXT DEFAULT '[]',
		created_at  TEXT NOT NULL,
		CONSTRAINT uq_turn_logs_turn UNIQUE (session_id, turn_index)
	);

	CREATE TABLE IF NOT EXISTS character_sheets (
		session_id INTEGER PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
		json_text  TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS state_change_requests (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id      INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_index      INTEGER NOT NULL,
		kind            TEXT NOT NULL DEFAULT 'state_delta',
		delta_json_text TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending',
		error_text      TEXT DEFAULT '',
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_change_requests_status ON state_change_requests (session_id, status);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
