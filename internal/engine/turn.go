package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"soloquest/internal/parser"
	"soloquest/internal/store"
)

// TurnResult is everything one resolved turn produced.
type TurnResult struct {
	TurnIndex        int
	RawText          string
	Response         parser.Response
	WorldPreview     []WorldPreview
	ChangeRequestIDs []int64
}

// RunTurn resolves one player input end to end: retrieve context, call the
// model, parse, persist, roll up. Nothing is written unless the model call
// succeeds, and all writes commit at a single point.
func (e *Engine) RunTurn(ctx context.Context, st store.Store, ref SessionRef, playerText, extraContext string) (*TurnResult, error) {
	return e.runTurn(ctx, st, ref, playerText, extraContext, nil)
}

// RunTurnStream is RunTurn with the model reply streamed through onDelta as
// it arrives. Parsing and persistence happen only after the stream completes;
// a cancelled stream persists nothing.
func (e *Engine) RunTurnStream(ctx context.Context, st store.Store, ref SessionRef, playerText, extraContext string, onDelta func(string)) (*TurnResult, error) {
	if onDelta == nil {
		onDelta = func(string) {}
	}
	return e.runTurn(ctx, st, ref, playerText, extraContext, onDelta)
}

func (e *Engine) runTurn(ctx context.Context, st store.Store, ref SessionRef, playerText, extraContext string, onDelta func(string)) (*TurnResult, error) {
	start := time.Now()

	// Retrieval runs in its own read transaction so no lock is held while
	// the model call blocks.
	readTx, err := st.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("running turn: %w", err)
	}
	messages, previews, err := e.BuildMessages(ctx, readTx, ref, playerText, extraContext)
	readTx.Rollback(ctx)
	if err != nil {
		return nil, err
	}
	promptDone := time.Now()

	var rawText string
	if onDelta != nil {
		rawText, err = e.client.ChatStream(ctx, messages, onDelta)
	} else {
		rawText, err = e.client.Chat(ctx, messages)
	}
	if err != nil {
		return nil, err
	}
	llmDone := time.Now()

	resp := parser.Parse(rawText)
	parseDone := time.Now()

	tx, err := st.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("running turn: %w", err)
	}
	result, err := e.PersistTurn(ctx, tx, ref, playerText, rawText, resp)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("running turn: %w", err)
	}
	result.WorldPreview = previews

	e.log.Info("turn_done",
		zap.Int64("session_id", ref.SessionID),
		zap.Int("turn_index", result.TurnIndex),
		zap.Int64("prompt_ms", promptDone.Sub(start).Milliseconds()),
		zap.Int64("llm_ms", llmDone.Sub(promptDone).Milliseconds()),
		zap.Int64("parse_ms", parseDone.Sub(llmDone).Milliseconds()),
		zap.Int64("persist_ms", time.Since(parseDone).Milliseconds()),
	)
	return result, nil
}

// PersistTurn writes one resolved turn inside the caller's transaction:
// the turn log row, zero to two pending change requests, the journal entry
// when the model suggested one, and the rollup pass. The caller commits.
func (e *Engine) PersistTurn(ctx context.Context, q store.Queries, ref SessionRef, playerText, rawText string, resp parser.Response) (*TurnResult, error) {
	turnIndex, err := q.NextTurnIndex(ctx, ref.SessionID)
	if err != nil {
		return nil, fmt.Errorf("persisting turn: %w", err)
	}
	if _, err := q.InsertTurnLog(ctx, ref.SessionID, turnIndex, playerText, rawText, "[]"); err != nil {
		return nil, fmt.Errorf("persisting turn: %w", err)
	}

	var requestIDs []int64
	if resp.StateDeltaJSON != "" {
		id, err := q.CreateChangeRequest(ctx, ref.SessionID, turnIndex, store.KindStateDelta, resp.StateDeltaJSON)
		if err != nil {
			return nil, fmt.Errorf("persisting turn: %w", err)
		}
		requestIDs = append(requestIDs, id)
	}
	if resp.ThreadUpdatesJSON != "" {
		id, err := q.CreateChangeRequest(ctx, ref.SessionID, turnIndex, store.KindThreadUpdates, resp.ThreadUpdatesJSON)
		if err != nil {
			return nil, fmt.Errorf("persisting turn: %w", err)
		}
		requestIDs = append(requestIDs, id)
	}

	if resp.MemorySuggestions != "" {
		session, err := q.GetSession(ctx, ref.SessionID)
		if err != nil {
			return nil, fmt.Errorf("persisting turn: %w", err)
		}
		sceneID := ""
		if session != nil {
			sceneID = session.CurrentScene
		}
		if _, err := q.InsertJournalEntry(ctx, ref.SessionID, sceneID, resp.MemorySuggestions, turnIndex); err != nil {
			return nil, fmt.Errorf("persisting turn: %w", err)
		}
	}

	if err := q.TouchCampaign(ctx, ref.CampaignID); err != nil {
		return nil, fmt.Errorf("persisting turn: %w", err)
	}

	if err := e.Rollup(ctx, q, ref.SessionID, turnIndex); err != nil {
		return nil, err
	}

	return &TurnResult{
		TurnIndex:        turnIndex,
		RawText:          rawText,
		Response:         resp,
		ChangeRequestIDs: requestIDs,
	}, nil
}
