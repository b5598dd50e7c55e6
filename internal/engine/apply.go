package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"soloquest/internal/guardrail"
	"soloquest/internal/store"
)

// ErrRequestNotFound marks an apply/reject call against an unknown request id.
var ErrRequestNotFound = errors.New("change request not found")

const reasonManualReviewOnly = "only state_delta requests auto-apply; thread updates need manual review"

// ApplyChange validates a pending request's delta and merges it into the
// character sheet. A request of the wrong kind or with an invalid delta is
// marked rejected with the reason; that is a successful outcome here, not an
// error. Runs inside its own transaction.
func (e *Engine) ApplyChange(ctx context.Context, st store.Store, requestID int64) (*store.StateChangeRequest, error) {
	tx, err := st.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}

	req, err := e.applyChange(ctx, tx, requestID)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}
	return req, nil
}

func (e *Engine) applyChange(ctx context.Context, q store.Queries, requestID int64) (*store.StateChangeRequest, error) {
	req, err := q.GetChangeRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("applying change %d: %w", requestID, ErrRequestNotFound)
	}

	reject := func(reason string) (*store.StateChangeRequest, error) {
		if err := q.SetChangeRequestStatus(ctx, requestID, store.StatusRejected, reason); err != nil {
			return nil, fmt.Errorf("applying change: %w", err)
		}
		e.log.Info("change request rejected",
			zap.Int64("request_id", requestID),
			zap.String("reason", reason),
		)
		req.Status = store.StatusRejected
		req.ErrorText = reason
		return req, nil
	}

	if req.Kind != store.KindStateDelta {
		return reject(reasonManualReviewOnly)
	}

	delta, err := guardrail.Validate(req.DeltaJSONText)
	if err != nil {
		return reject(err.Error())
	}

	sheet, err := q.GetCharacterSheet(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}
	current := map[string]any{}
	if sheet != nil {
		// A sheet that no longer parses as an object starts over empty
		// rather than blocking the apply.
		var parsed any
		if jsonErr := json.Unmarshal([]byte(sheet.JSONText), &parsed); jsonErr == nil {
			if obj, ok := parsed.(map[string]any); ok {
				current = obj
			}
		}
	}

	merged := deepMerge(current, delta)
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}
	if err := q.PutCharacterSheet(ctx, req.SessionID, string(out)); err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}
	if err := q.SetChangeRequestStatus(ctx, requestID, store.StatusApplied, ""); err != nil {
		return nil, fmt.Errorf("applying change: %w", err)
	}
	e.log.Info("change request applied",
		zap.Int64("request_id", requestID),
		zap.Int64("session_id", req.SessionID),
	)
	req.Status = store.StatusApplied
	req.ErrorText = ""
	return req, nil
}

// RejectChange unconditionally marks a request rejected.
func (e *Engine) RejectChange(ctx context.Context, st store.Store, requestID int64, reason string) error {
	tx, err := st.Begin(ctx)
	if err != nil {
		return fmt.Errorf("rejecting change: %w", err)
	}
	req, err := tx.GetChangeRequest(ctx, requestID)
	if err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("rejecting change: %w", err)
	}
	if req == nil {
		tx.Rollback(ctx)
		return fmt.Errorf("rejecting change %d: %w", requestID, ErrRequestNotFound)
	}
	if err := tx.SetChangeRequestStatus(ctx, requestID, store.StatusRejected, reason); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("rejecting change: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("rejecting change: %w", err)
	}
	return nil
}

// deepMerge merges incoming into current recursively: when both sides of a
// key are objects they merge key by key; everything else (lists included) is
// replaced wholesale by the incoming value. Neither input map is mutated.
func deepMerge(current, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(current)+len(incoming))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range incoming {
		existing, ok := out[k].(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		incomingObj, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		out[k] = deepMerge(existing, incomingObj)
	}
	return out
}
