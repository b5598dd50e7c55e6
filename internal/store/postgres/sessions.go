package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) CreateSession(ctx context.Context, campaignID int64, title, currentScene string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO sessions (campaign_id, title, current_scene) VALUES ($1, $2, $3) RETURNING id`,
		campaignID, title, currentScene,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

func (t *Tx) GetSession(ctx context.Context, id int64) (*store.Session, error) {
	var s store.Session
	err := t.tx.QueryRow(ctx,
		`SELECT id, campaign_id, title, current_scene, session_state, pinned_world_notes, created_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.CampaignID, &s.Title, &s.CurrentScene, &s.SessionState, &s.PinnedWorldNotes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &s, nil
}

func (t *Tx) ListSessions(ctx context.Context, campaignID int64) ([]store.Session, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, campaign_id, title, current_scene, session_state, pinned_world_notes, created_at
		 FROM sessions WHERE campaign_id = $1
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
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Title, &s.CurrentScene, &s.SessionState, &s.PinnedWorldNotes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (t *Tx) UpdateSessionSidebar(ctx context.Context, id int64, currentScene, sessionState, pinnedWorldNotes string) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE sessions SET current_scene = $1, session_state = $2, pinned_world_notes = $3 WHERE id = $4`,
		currentScene, sessionState, pinnedWorldNotes, id,
	); err != nil {
		return fmt.Errorf("updating session sidebar: %w", err)
	}
	return nil
}
