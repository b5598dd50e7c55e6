package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) CreateChangeRequest(ctx context.Context, sessionID int64, turnIndex int, kind, deltaJSONText string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO state_change_requests (session_id, turn_index, kind, delta_json_text, status, error_text, created_at)
		 VALUES (?, ?, ?, ?, 'pending', '', ?)`,
		sessionID, turnIndex, kind, deltaJSONText, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating change request: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) GetChangeRequest(ctx context.Context, id int64) (*store.StateChangeRequest, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, session_id, turn_index, kind, delta_json_text, status, COALESCE(error_text, ''), created_at
		 FROM state_change_requests WHERE id = ?`,
		id,
	)

	var r store.StateChangeRequest
	var createdAt string
	err := row.Scan(&r.ID, &r.SessionID, &r.TurnIndex, &r.Kind, &r.DeltaJSONText, &r.Status, &r.ErrorText, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting change request: %w", err)
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func (t *Tx) ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]store.StateChangeRequest, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, turn_index, kind, delta_json_text, status, COALESCE(error_text, ''), created_at
		 FROM state_change_requests
		 WHERE session_id = ? AND (? = '' OR status = ?)
		 ORDER BY id DESC
		 LIMIT ?`,
		sessionID, status, status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing change requests: %w", err)
	}
	defer rows.Close()

	var requests []store.StateChangeRequest
	for rows.Next() {
		var r store.StateChangeRequest
		var createdAt string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.TurnIndex, &r.Kind, &r.DeltaJSONText, &r.Status, &r.ErrorText, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning change request: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (t *Tx) SetChangeRequestStatus(ctx context.Context, id int64, status, errorText string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE state_change_requests SET status = ?, error_text = ? WHERE id = ?`,
		status, errorText, id,
	); err != nil {
		return fmt.Errorf("setting change request status: %w", err)
	}
	return nil
}
