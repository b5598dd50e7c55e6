package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) LatestSummary(ctx context.Context, sessionID int64, level string) (*store.SessionSummary, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, session_id, level, start_turn, end_turn, summary, created_at
		 FROM session_summaries
		 WHERE session_id = ? AND level = ?
		 ORDER BY end_turn DESC, id DESC
		 LIMIT 1`,
		sessionID, level,
	)

	var s store.SessionSummary
	var createdAt string
	err := row.Scan(&s.ID, &s.SessionID, &s.Level, &s.StartTurn, &s.EndTurn, &s.Summary, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest summary: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

func (t *Tx) ListSummaries(ctx context.Context, sessionID int64, level string) ([]store.SessionSummary, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, level, start_turn, end_turn, summary, created_at
		 FROM session_summaries
		 WHERE session_id = ? AND level = ?
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
		var createdAt string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Level, &s.StartTurn, &s.EndTurn, &s.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		s.CreatedAt = parseTime(createdAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (t *Tx) InsertSummary(ctx context.Context, sessionID int64, level string, startTurn, endTurn int, summary string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO session_summaries (session_id, level, start_turn, end_turn, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, level, startTurn, endTurn, summary, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting summary: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) DeleteCampaignSummaries(ctx context.Context, sessionID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM session_summaries WHERE session_id = ? AND level = 'campaign'`,
		sessionID,
	); err != nil {
		return fmt.Errorf("deleting campaign summaries: %w", err)
	}
	return nil
}

// ChapterProgress returns the end_turn of the newest chapter summary, or -1
// when no chapter has been rolled up yet.
func (t *Tx) ChapterProgress(ctx context.Context, sessionID int64) (int, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(end_turn), -1)
		 FROM session_summaries
		 WHERE session_id = ? AND level = 'chapter'`,
		sessionID,
	)

	var endTurn int
	if err := row.Scan(&endTurn); err != nil {
		return -1, fmt.Errorf("getting chapter progress: %w", err)
	}
	return endTurn, nil
}
