package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) LatestSummary(ctx context.Context, sessionID int64, level string) (*store.SessionSummary, error) {
	var s store.SessionSummary
	err := t.tx.QueryRow(ctx,
		`SELECT id, session_id, level, start_turn, end_turn, summary, created_at
		 FROM session_summaries
		 WHERE session_id = $1 AND level = $2
		 ORDER BY end_turn DESC, id DESC
		 LIMIT 1`,
		sessionID, level,
	).Scan(&s.ID, &s.SessionID, &s.Level, &s.StartTurn, &s.EndTurn, &s.Summary, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest summary: %w", err)
	}
	return &s, nil
}

func (t *Tx) ListSummaries(ctx context.Context, sessionID int64, level string) ([]store.SessionSummary, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, level, start_turn, end_turn, summary, created_at
		 FROM session_summaries
		 WHERE session_id = $1 AND level = $2
		 ORDER BY start_turn ASC, id ASC`,
		sessionID, level,
	)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var summaries []store.SessionSummary
	for rows.Next() {
		var s store.SessionSummary
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Level, &s.StartTurn, &s.EndTurn, &s.Summary, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (t *Tx) InsertSummary(ctx context.Context, sessionID int64, level string, startTurn, endTurn int, summary string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO session_summaries (session_id, level, start_turn, end_turn, summary)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		sessionID, level, startTurn, endTurn, summary,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting summary: %w", err)
	}
	return id, nil
}

func (t *Tx) DeleteCampaignSummaries(ctx context.Context, sessionID int64) error {
	if _, err := t.tx.Exec(ctx,
		`DELETE FROM session_summaries WHERE session_id = $1 AND level = 'campaign'`,
		sessionID,
	); err != nil {
		return fmt.Errorf("deleting campaign summaries: %w", err)
	}
	return nil
}

func (t *Tx) ChapterProgress(ctx context.Context, sessionID int64) (int, error) {
	var endTurn int
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(end_turn), -1)
		 FROM session_summaries
		 WHERE session_id = $1 AND level = 'chapter'`,
		sessionID,
	).Scan(&endTurn)
	if err != nil {
		return -1, fmt.Errorf("getting chapter progress: %w", err)
	}
	return endTurn, nil
}
