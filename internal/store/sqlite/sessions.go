package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) CreateSession(ctx context.Context, campaignID int64, title, currentScene string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO sessions (campaign_id, title, current_scene, session_state, pinned_world_notes, created_at)
		 VALUES (?, ?, ?, '', '', ?)`,
		campaignID, title, currentScene, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) GetSession(ctx context.Context, id int64) (*store.Session, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, campaign_id, title, COALESCE(current_scene, ''), COALESCE(session_state, ''),
		        COALESCE(pinned_world_notes, ''), created_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	var s store.Session
	var createdAt string
	err := row.Scan(&s.ID, &s.CampaignID, &s.Title, &s.CurrentScene, &s.SessionState, &s.PinnedWorldNotes, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

func (t *Tx) ListSessions(ctx context.Context, campaignID int64) ([]store.Session, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, campaign_id, title, COALESCE(current_scene, ''), COALESCE(session_state, ''),
		        COALESCE(pinned_world_notes, ''), created_at
		 FROM sessions WHERE campaign_id = ?
		 ORDER BY id DESC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []store.Session
	for rows.Next() {
		var s store.Session
		var createdAt string
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Title, &s.CurrentScene, &s.SessionState, &s.PinnedWorldNotes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.CreatedAt = parseTime(createdAt)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (t *Tx) UpdateSessionSidebar(ctx context.Context, id int64, currentScene, sessionState, pinnedWorldNotes string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE sessions SET current_scene = ?, session_state = ?, pinned_world_notes = ? WHERE id = ?`,
		currentScene, sessionState, pinnedWorldNotes, id,
	); err != nil {
		return fmt.Errorf("updating session sidebar: %w", err)
	}
	return nil
}
