package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) CreateChangeRequest(ctx context.Context, sessionID int64, turnIndex int, kind, deltaJSONText string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO state_change_requests (session_id, turn_index, kind, delta_json_text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		sessionID, turnIndex, kind, deltaJSONText,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating change request: %w", err)
	}
	return id, nil
}

func (t *Tx) GetChangeRequest(ctx context.Context, id int64) (*store.StateChangeRequest, error) {
	var r store.StateChangeRequest
	err := t.tx.QueryRow(ctx,
		`SELECT id, session_id, turn_index, kind, delta_json_text, status, error_text, created_at
		 FROM state_change_requests WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.SessionID, &r.TurnIndex, &r.Kind, &r.DeltaJSONText, &r.Status, &r.ErrorText, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting change request: %w", err)
	}
	return &r, nil
}

func (t *Tx) ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]store.StateChangeRequest, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, turn_index, kind, delta_json_text, status, error_text, created_at
		 FROM state_change_requests
		 WHERE session_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY id DESC
		 LIMIT $3`,
		sessionID, status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing change requests: %w", err)
	}
	defer rows.Close()

	var requests []store.StateChangeRequest
	for rows.Next() {
		var r store.StateChangeRequest
		if err := rows.Scan(&r.ID, &r.SessionID, &r.TurnIndex, &r.Kind, &r.DeltaJSONText, &r.Status, &r.ErrorText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning change request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (t *Tx) SetChangeRequestStatus(ctx context.Context, id int64, status, errorText string) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE state_change_requests SET status = $1, error_text = $2 WHERE id = $3`,
		status, errorText, id,
	); err != nil {
		return fmt.Errorf("setting change request status: %w", err)
	}
	return nil
}
