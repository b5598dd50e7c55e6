package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) CreateThread(ctx context.Context, in store.PlotThreadInput) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO plot_threads (session_id, title, priority, summary, next_step, tags)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		in.SessionID, in.Title, in.Priority, in.Summary, in.NextStep, in.Tags,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating plot thread: %w", err)
	}
	return id, nil
}

func (t *Tx) GetThread(ctx context.Context, id int64) (*store.PlotThread, error) {
	var p store.PlotThread
	err := t.tx.QueryRow(ctx,
		`SELECT id, session_id, title, status, priority, summary, next_step, tags, updated_at, created_at
		 FROM plot_threads WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.SessionID, &p.Title, &p.Status, &p.Priority, &p.Summary, &p.NextStep, &p.Tags, &p.UpdatedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting plot thread: %w", err)
	}
	return &p, nil
}

func (t *Tx) UpdateThread(ctx context.Context, id int64, in store.PlotThreadInput) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE plot_threads SET title = $1, priority = $2, summary = $3, next_step = $4, tags = $5, updated_at = now()
		 WHERE id = $6`,
		in.Title, in.Priority, in.Summary, in.NextStep, in.Tags, id,
	); err != nil {
		return fmt.Errorf("updating plot thread: %w", err)
	}
	return nil
}

func (t *Tx) SetThreadStatus(ctx context.Context, id int64, status string) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE plot_threads SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	); err != nil {
		return fmt.Errorf("setting plot thread status: %w", err)
	}
	return nil
}

func (t *Tx) ListThreads(ctx context.Context, sessionID int64, status string, limit int) ([]store.PlotThread, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, title, status, priority, summary, next_step, tags, updated_at, created_at
		 FROM plot_threads
		 WHERE session_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY priority DESC, updated_at DESC, id DESC
		 LIMIT $3`,
		sessionID, status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing plot threads: %w", err)
	}
	defer rows.Close()

	var threads []store.PlotThread
	for rows.Next() {
		var p store.PlotThread
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Title, &p.Status, &p.Priority, &p.Summary,
			&p.NextStep, &p.Tags, &p.UpdatedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plot thread: %w", err)
		}
		threads = append(threads, p)
	}
	return threads, rows.Err()
}
