package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) CreateThread(ctx context.Context, in store.PlotThreadInput) (int64, error) {
	now := nowText()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO plot_threads (session_id, title, status, priority, summary, next_step, tags, updated_at, created_at)
		 VALUES (?, ?, 'open', ?, ?, ?, ?, ?, ?)`,
		in.SessionID, in.Title, in.Priority, in.Summary, in.NextStep, in.Tags, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("creating plot thread: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) GetThread(ctx context.Context, id int64) (*store.PlotThread, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, session_id, title, status, priority, COALESCE(summary, ''),
		        COALESCE(next_step, ''), COALESCE(tags, ''), updated_at, created_at
		 FROM plot_threads WHERE id = ?`,
		id,
	)

	var p store.PlotThread
	var updatedAt, createdAt string
	err := row.Scan(&p.ID, &p.SessionID, &p.Title, &p.Status, &p.Priority, &p.Summary,
		&p.NextStep, &p.Tags, &updatedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting plot thread: %w", err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (t *Tx) UpdateThread(ctx context.Context, id int64, in store.PlotThreadInput) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE plot_threads SET title = ?, priority = ?, summary = ?, next_step = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		in.Title, in.Priority, in.Summary, in.NextStep, in.Tags, nowText(), id,
	); err != nil {
		return fmt.Errorf("updating plot thread: %w", err)
	}
	return nil
}

func (t *Tx) SetThreadStatus(ctx context.Context, id int64, status string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE plot_threads SET status = ?, updated_at = ? WHERE id = ?`,
		status, nowText(), id,
	); err != nil {
		return fmt.Errorf("setting plot thread status: %w", err)
	}
	return nil
}

// ListThreads returns threads ordered by priority (highest first), then most
// recently updated. An empty status means all statuses.
func (t *Tx) ListThreads(ctx context.Context, sessionID int64, status string, limit int) ([]store.PlotThread, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, title, status, priority, COALESCE(summary, ''),
		        COALESCE(next_step, ''), COALESCE(tags, ''), updated_at, created_at
		 FROM plot_threads
		 WHERE session_id = ? AND (? = '' OR status = ?)
		 ORDER BY priority DESC, updated_at DESC, id DESC
		 LIMIT ?`,
		sessionID, status, status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing plot threads: %w", err)
	}
	defer rows.Close()

	var threads []store.PlotThread
	for rows.Next() {
		var p store.PlotThread
		var updatedAt, createdAt string
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Title, &p.Status, &p.Priority, &p.Summary,
			&p.NextStep, &p.Tags, &updatedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning plot thread: %w", err)
		}
		p.UpdatedAt = parseTime(updatedAt)
		p.CreatedAt = parseTime(createdAt)
		threads = append(threads, p)
	}
	return threads, rows.Err()
}
