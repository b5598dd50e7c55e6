package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"soloquest/internal/engine"
	"soloquest/internal/store"
)

type PlayTurnInput struct {
	CampaignID   int64  `json:"campaign_id" jsonschema:"campaign to play in"`
	SessionID    int64  `json:"session_id" jsonschema:"session to play in"`
	PlayerText   string `json:"player_text" jsonschema:"the player's action or speech for this turn"`
	ExtraContext string `json:"extra_context,omitempty" jsonschema:"optional out-of-band context for the game master"`
}

type PlayTurnOutput struct {
	TurnIndex        int                   `json:"turn_index"`
	Narration        string                `json:"narration"`
	Choices          []string              `json:"choices"`
	DMNotes          string                `json:"dm_notes,omitempty"`
	ChangeRequestIDs []int64               `json:"change_request_ids,omitempty"`
	WorldPreview     []engine.WorldPreview `json:"world_preview,omitempty"`
}

type SearchWorldBibleInput struct {
	CampaignID int64    `json:"campaign_id" jsonschema:"campaign whose world bible to search"`
	Tags       []string `json:"tags,omitempty" jsonschema:"tags to match; empty returns the most recently updated entries"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum entries to return"`
}

type WorldBibleEntryOutput struct {
	ID        int64  `json:"id"`
	EntryType string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Tags      string `json:"tags,omitempty"`
}

type SearchWorldBibleOutput struct {
	Entries []WorldBibleEntryOutput `json:"entries"`
}

type ListPlotThreadsInput struct {
	SessionID int64  `json:"session_id" jsonschema:"session whose threads to list"`
	Status    string `json:"status,omitempty" jsonschema:"open, closed, or empty for all"`
}

type PlotThreadOutput struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	Summary  string `json:"summary,omitempty"`
	NextStep string `json:"next_step,omitempty"`
	Tags     string `json:"tags,omitempty"`
}

type ListPlotThreadsOutput struct {
	Threads []PlotThreadOutput `json:"threads"`
}

type UpdatePlotThreadInput struct {
	ThreadID int64  `json:"thread_id" jsonschema:"thread to update"`
	Title    string `json:"title,omitempty" jsonschema:"new title"`
	Priority *int   `json:"priority,omitempty" jsonschema:"new priority, higher is more urgent"`
	Summary  string `json:"summary,omitempty" jsonschema:"new progress summary"`
	NextStep string `json:"next_step,omitempty" jsonschema:"new next step"`
	Tags     string `json:"tags,omitempty" jsonschema:"new comma-separated tags"`
	Status   string `json:"status,omitempty" jsonschema:"open or closed"`
}

type ListPendingChangesInput struct {
	SessionID int64 `json:"session_id" jsonschema:"session whose pending change requests to list"`
}

type ChangeRequestOutput struct {
	ID        int64  `json:"id"`
	TurnIndex int    `json:"turn_index"`
	Kind      string `json:"kind"`
	DeltaJSON string `json:"delta_json"`
	Status    string `json:"status"`
	ErrorText string `json:"error_text,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ListPendingChangesOutput struct {
	Requests []ChangeRequestOutput `json:"requests"`
}

type ApplyChangeInput struct {
	RequestID int64 `json:"request_id" jsonschema:"change request to apply"`
}

type RejectChangeInput struct {
	RequestID int64  `json:"request_id" jsonschema:"change request to reject"`
	Reason    string `json:"reason,omitempty" jsonschema:"why the change is rejected"`
}

type GetCharacterSheetInput struct {
	SessionID int64 `json:"session_id" jsonschema:"session whose character sheet to fetch"`
}

type GetCharacterSheetOutput struct {
	JSONText  string `json:"json_text"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "play_turn",
		Description: "Resolve one game turn: send the player's action to the game master and get the narrated result",
	}, s.handlePlayTurn)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_world_bible",
		Description: "Search a campaign's world bible entries by tags",
	}, s.handleSearchWorldBible)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_plot_threads",
		Description: "List a session's plot threads, optionally filtered by status",
	}, s.handleListPlotThreads)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "update_plot_thread",
		Description: "Edit a plot thread's fields or toggle its status",
	}, s.handleUpdatePlotThread)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_pending_changes",
		Description: "List change requests awaiting review for a session",
	}, s.handleListPendingChanges)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "apply_change",
		Description: "Validate and apply a pending state change to the character sheet",
	}, s.handleApplyChange)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "reject_change",
		Description: "Reject a change request",
	}, s.handleRejectChange)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_character_sheet",
		Description: "Fetch the session's character sheet document",
	}, s.handleGetCharacterSheet)
}

func (s *Server) handlePlayTurn(ctx context.Context, req *sdk.CallToolRequest, input PlayTurnInput) (*sdk.CallToolResult, PlayTurnOutput, error) {
	if input.PlayerText == "" {
		return nil, PlayTurnOutput{}, fmt.Errorf("player_text is required")
	}
	if input.CampaignID == 0 || input.SessionID == 0 {
		return nil, PlayTurnOutput{}, fmt.Errorf("campaign_id and session_id are required")
	}

	ref := engine.SessionRef{CampaignID: input.CampaignID, SessionID: input.SessionID}
	result, err := s.eng.RunTurn(ctx, s.db, ref, input.PlayerText, input.ExtraContext)
	if err != nil {
		return nil, PlayTurnOutput{}, err
	}
	return nil, PlayTurnOutput{
		TurnIndex:        result.TurnIndex,
		Narration:        result.Response.Narration,
		Choices:          result.Response.Choices,
		DMNotes:          result.Response.DMNotes,
		ChangeRequestIDs: result.ChangeRequestIDs,
		WorldPreview:     result.WorldPreview,
	}, nil
}

func (s *Server) handleSearchWorldBible(ctx context.Context, req *sdk.CallToolRequest, input SearchWorldBibleInput) (*sdk.CallToolResult, SearchWorldBibleOutput, error) {
	if input.CampaignID == 0 {
		return nil, SearchWorldBibleOutput{}, fmt.Errorf("campaign_id is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = engine.WorldBibleLimit
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, SearchWorldBibleOutput{}, err
	}
	defer tx.Rollback(ctx)

	entries, err := tx.SelectWorldBibleForPrompt(ctx, input.CampaignID, input.Tags, limit)
	if err != nil {
		return nil, SearchWorldBibleOutput{}, err
	}

	out := make([]WorldBibleEntryOutput, 0, len(entries))
	for _, entry := range entries {
		out = append(out, WorldBibleEntryOutput{
			ID:        entry.ID,
			EntryType: entry.EntryType,
			Title:     entry.Title,
			Content:   entry.Content,
			Tags:      entry.Tags,
		})
	}
	return nil, SearchWorldBibleOutput{Entries: out}, nil
}

func (s *Server) handleListPlotThreads(ctx context.Context, req *sdk.CallToolRequest, input ListPlotThreadsInput) (*sdk.CallToolResult, ListPlotThreadsOutput, error) {
	if input.SessionID == 0 {
		return nil, ListPlotThreadsOutput{}, fmt.Errorf("session_id is required")
	}
	switch input.Status {
	case "", store.ThreadOpen, store.ThreadClosed:
	default:
		return nil, ListPlotThreadsOutput{}, fmt.Errorf("status must be open or closed")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, ListPlotThreadsOutput{}, err
	}
	defer tx.Rollback(ctx)

	threads, err := tx.ListThreads(ctx, input.SessionID, input.Status, engine.PlotThreadsLimit)
	if err != nil {
		return nil, ListPlotThreadsOutput{}, err
	}

	out := make([]PlotThreadOutput, 0, len(threads))
	for _, thread := range threads {
		out = append(out, PlotThreadOutput{
			ID:       thread.ID,
			Title:    thread.Title,
			Status:   thread.Status,
			Priority: thread.Priority,
			Summary:  thread.Summary,
			NextStep: thread.NextStep,
			Tags:     thread.Tags,
		})
	}
	return nil, ListPlotThreadsOutput{Threads: out}, nil
}

func (s *Server) handleUpdatePlotThread(ctx context.Context, req *sdk.CallToolRequest, input UpdatePlotThreadInput) (*sdk.CallToolResult, PlotThreadOutput, error) {
	if input.ThreadID == 0 {
		return nil, PlotThreadOutput{}, fmt.Errorf("thread_id is required")
	}
	switch input.Status {
	case "", store.ThreadOpen, store.ThreadClosed:
	default:
		return nil, PlotThreadOutput{}, fmt.Errorf("status must be open or closed")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, PlotThreadOutput{}, err
	}
	defer tx.Rollback(ctx)

	thread, err := tx.GetThread(ctx, input.ThreadID)
	if err != nil {
		return nil, PlotThreadOutput{}, err
	}
	if thread == nil {
		return nil, PlotThreadOutput{}, fmt.Errorf("thread %d not found", input.ThreadID)
	}

	updated := store.PlotThreadInput{
		SessionID: thread.SessionID,
		Title:     thread.Title,
		Priority:  thread.Priority,
		Summary:   thread.Summary,
		NextStep:  thread.NextStep,
		Tags:      thread.Tags,
	}
	if input.Title != "" {
		updated.Title = input.Title
	}
	if input.Priority != nil {
		updated.Priority = *input.Priority
	}
	if input.Summary != "" {
		updated.Summary = input.Summary
	}
	if input.NextStep != "" {
		updated.NextStep = input.NextStep
	}
	if input.Tags != "" {
		updated.Tags = input.Tags
	}

	if err := tx.UpdateThread(ctx, input.ThreadID, updated); err != nil {
		return nil, PlotThreadOutput{}, err
	}
	status := thread.Status
	if input.Status != "" && input.Status != thread.Status {
		if err := tx.SetThreadStatus(ctx, input.ThreadID, input.Status); err != nil {
			return nil, PlotThreadOutput{}, err
		}
		status = input.Status
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, PlotThreadOutput{}, err
	}

	return nil, PlotThreadOutput{
		ID:       input.ThreadID,
		Title:    updated.Title,
		Status:   status,
		Priority: updated.Priority,
		Summary:  updated.Summary,
		NextStep: updated.NextStep,
		Tags:     updated.Tags,
	}, nil
}

func (s *Server) handleListPendingChanges(ctx context.Context, req *sdk.CallToolRequest, input ListPendingChangesInput) (*sdk.CallToolResult, ListPendingChangesOutput, error) {
	if input.SessionID == 0 {
		return nil, ListPendingChangesOutput{}, fmt.Errorf("session_id is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, ListPendingChangesOutput{}, err
	}
	defer tx.Rollback(ctx)

	requests, err := tx.ListChangeRequests(ctx, input.SessionID, store.StatusPending, 100)
	if err != nil {
		return nil, ListPendingChangesOutput{}, err
	}

	out := make([]ChangeRequestOutput, 0, len(requests))
	for _, r := range requests {
		out = append(out, changeRequestOutput(&r))
	}
	return nil, ListPendingChangesOutput{Requests: out}, nil
}

func (s *Server) handleApplyChange(ctx context.Context, req *sdk.CallToolRequest, input ApplyChangeInput) (*sdk.CallToolResult, ChangeRequestOutput, error) {
	if input.RequestID == 0 {
		return nil, ChangeRequestOutput{}, fmt.Errorf("request_id is required")
	}
	result, err := s.eng.ApplyChange(ctx, s.db, input.RequestID)
	if err != nil {
		return nil, ChangeRequestOutput{}, err
	}
	return nil, changeRequestOutput(result), nil
}

func (s *Server) handleRejectChange(ctx context.Context, req *sdk.CallToolRequest, input RejectChangeInput) (*sdk.CallToolResult, ChangeRequestOutput, error) {
	if input.RequestID == 0 {
		return nil, ChangeRequestOutput{}, fmt.Errorf("request_id is required")
	}
	reason := input.Reason
	if reason == "" {
		reason = "rejected via mcp"
	}
	if err := s.eng.RejectChange(ctx, s.db, input.RequestID, reason); err != nil {
		return nil, ChangeRequestOutput{}, err
	}
	return nil, ChangeRequestOutput{ID: input.RequestID, Status: store.StatusRejected, ErrorText: reason}, nil
}

func (s *Server) handleGetCharacterSheet(ctx context.Context, req *sdk.CallToolRequest, input GetCharacterSheetInput) (*sdk.CallToolResult, GetCharacterSheetOutput, error) {
	if input.SessionID == 0 {
		return nil, GetCharacterSheetOutput{}, fmt.Errorf("session_id is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, GetCharacterSheetOutput{}, err
	}
	defer tx.Rollback(ctx)

	sheet, err := tx.GetCharacterSheet(ctx, input.SessionID)
	if err != nil {
		return nil, GetCharacterSheetOutput{}, err
	}
	if sheet == nil {
		return nil, GetCharacterSheetOutput{JSONText: "{}"}, nil
	}
	return nil, GetCharacterSheetOutput{
		JSONText:  sheet.JSONText,
		UpdatedAt: sheet.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func changeRequestOutput(r *store.StateChangeRequest) ChangeRequestOutput {
	return ChangeRequestOutput{
		ID:        r.ID,
		TurnIndex: r.TurnIndex,
		Kind:      r.Kind,
		DeltaJSON: r.DeltaJSONText,
		Status:    r.Status,
		ErrorText: r.ErrorText,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}
