package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"soloquest/internal/engine"
	"soloquest/internal/parser"
	"soloquest/internal/store"
)

type mockEngine struct {
	turnResult *engine.TurnResult
	turnErr    error
	applied    *store.StateChangeRequest
	applyErr   error
	rejectErr  error

	lastRef        engine.SessionRef
	lastPlayerText string
	lastRequestID  int64
	lastReason     string
}

func (m *mockEngine) RunTurn(ctx context.Context, st store.Store, ref engine.SessionRef, playerText, extraContext string) (*engine.TurnResult, error) {
	m.lastRef = ref
	m.lastPlayerText = playerText
	return m.turnResult, m.turnErr
}

func (m *mockEngine) ApplyChange(ctx context.Context, st store.Store, requestID int64) (*store.StateChangeRequest, error) {
	m.lastRequestID = requestID
	return m.applied, m.applyErr
}

func (m *mockEngine) RejectChange(ctx context.Context, st store.Store, requestID int64, reason string) error {
	m.lastRequestID = requestID
	m.lastReason = reason
	return m.rejectErr
}

// mockTx embeds the Queries interface so only the methods a test exercises
// need real bodies.
type mockTx struct {
	store.Queries

	worldEntries []store.WorldBibleEntry
	threads      []store.PlotThread
	thread       *store.PlotThread
	requests     []store.StateChangeRequest
	sheet        *store.CharacterSheet

	updatedThread *store.PlotThreadInput
	setStatus     string
	commits       int
}

func (m *mockTx) Commit(ctx context.Context) error   { m.commits++; return nil }
func (m *mockTx) Rollback(ctx context.Context) error { return nil }

func (m *mockTx) SelectWorldBibleForPrompt(ctx context.Context, campaignID int64, tags []string, limit int) ([]store.WorldBibleEntry, error) {
	return m.worldEntries, nil
}

func (m *mockTx) ListThreads(ctx context.Context, sessionID int64, status string, limit int) ([]store.PlotThread, error) {
	return m.threads, nil
}

func (m *mockTx) GetThread(ctx context.Context, id int64) (*store.PlotThread, error) {
	return m.thread, nil
}

func (m *mockTx) UpdateThread(ctx context.Context, id int64, in store.PlotThreadInput) error {
	m.updatedThread = &in
	return nil
}

func (m *mockTx) SetThreadStatus(ctx context.Context, id int64, status string) error {
	m.setStatus = status
	return nil
}

func (m *mockTx) ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]store.StateChangeRequest, error) {
	return m.requests, nil
}

func (m *mockTx) GetCharacterSheet(ctx context.Context, sessionID int64) (*store.CharacterSheet, error) {
	return m.sheet, nil
}

type mockStore struct {
	tx *mockTx
}

func (m *mockStore) Close(ctx context.Context) error        { return nil }
func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }
func (m *mockStore) Begin(ctx context.Context) (store.Tx, error) {
	return m.tx, nil
}

func newTestServer(eng *mockEngine, tx *mockTx) *Server {
	if tx == nil {
		tx = &mockTx{}
	}
	return NewServer(eng, &mockStore{tx: tx}, "test")
}

func TestPlayTurn(t *testing.T) {
	t.Run("requires player text", func(t *testing.T) {
		server := newTestServer(&mockEngine{}, nil)
		_, _, err := server.handlePlayTurn(context.Background(), nil, PlayTurnInput{CampaignID: 1, SessionID: 2})
		if err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("requires ids", func(t *testing.T) {
		server := newTestServer(&mockEngine{}, nil)
		_, _, err := server.handlePlayTurn(context.Background(), nil, PlayTurnInput{PlayerText: "go"})
		if err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("maps the turn result", func(t *testing.T) {
		eng := &mockEngine{turnResult: &engine.TurnResult{
			TurnIndex:        3,
			Response:         parser.Response{Narration: "The door opens.", Choices: []string{"Enter", "Wait"}},
			ChangeRequestIDs: []int64{7},
		}}
		server := newTestServer(eng, nil)

		_, output, err := server.handlePlayTurn(context.Background(), nil, PlayTurnInput{
			CampaignID: 1, SessionID: 2, PlayerText: "open the door",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.TurnIndex != 3 || output.Narration != "The door opens." {
			t.Fatalf("unexpected output: %+v", output)
		}
		if len(output.Choices) != 2 || len(output.ChangeRequestIDs) != 1 {
			t.Fatalf("unexpected output: %+v", output)
		}
		if eng.lastRef.CampaignID != 1 || eng.lastRef.SessionID != 2 || eng.lastPlayerText != "open the door" {
			t.Fatalf("engine called with wrong arguments: %+v", eng.lastRef)
		}
	})

	t.Run("engine error propagates", func(t *testing.T) {
		server := newTestServer(&mockEngine{turnErr: errors.New("model down")}, nil)
		_, _, err := server.handlePlayTurn(context.Background(), nil, PlayTurnInput{
			CampaignID: 1, SessionID: 2, PlayerText: "go",
		})
		if err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestSearchWorldBible(t *testing.T) {
	tx := &mockTx{worldEntries: []store.WorldBibleEntry{
		{ID: 1, EntryType: "Location", Title: "The Sunken Market", Content: "Flooded bazaar.", Tags: "market"},
	}}
	server := newTestServer(&mockEngine{}, tx)

	_, output, err := server.handleSearchWorldBible(context.Background(), nil, SearchWorldBibleInput{CampaignID: 1, Tags: []string{"market"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(output.Entries) != 1 || output.Entries[0].Title != "The Sunken Market" {
		t.Fatalf("unexpected output: %+v", output)
	}

	if _, _, err := server.handleSearchWorldBible(context.Background(), nil, SearchWorldBibleInput{}); err == nil {
		t.Fatalf("expected error for missing campaign_id")
	}
}

func TestListPlotThreads(t *testing.T) {
	tx := &mockTx{threads: []store.PlotThread{{ID: 1, Title: "The flood wards fail", Status: store.ThreadOpen, Priority: 9}}}
	server := newTestServer(&mockEngine{}, tx)

	_, output, err := server.handleListPlotThreads(context.Background(), nil, ListPlotThreadsInput{SessionID: 1, Status: store.ThreadOpen})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(output.Threads) != 1 || output.Threads[0].Priority != 9 {
		t.Fatalf("unexpected output: %+v", output)
	}

	if _, _, err := server.handleListPlotThreads(context.Background(), nil, ListPlotThreadsInput{SessionID: 1, Status: "stalled"}); err == nil {
		t.Fatalf("expected error for bad status")
	}
}

func TestUpdatePlotThread(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		tx := &mockTx{thread: &store.PlotThread{
			ID: 5, SessionID: 1, Title: "Old title", Status: store.ThreadOpen, Priority: 2, Summary: "old summary",
		}}
		server := newTestServer(&mockEngine{}, tx)

		priority := 8
		_, output, err := server.handleUpdatePlotThread(context.Background(), nil, UpdatePlotThreadInput{
			ThreadID: 5, Priority: &priority, Status: store.ThreadClosed,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tx.updatedThread.Title != "Old title" || tx.updatedThread.Priority != 8 {
			t.Fatalf("unexpected update: %+v", tx.updatedThread)
		}
		if tx.setStatus != store.ThreadClosed || output.Status != store.ThreadClosed {
			t.Fatalf("status not toggled: %q / %+v", tx.setStatus, output)
		}
		if tx.commits != 1 {
			t.Fatalf("expected commit, got %d", tx.commits)
		}
	})

	t.Run("unknown thread", func(t *testing.T) {
		server := newTestServer(&mockEngine{}, &mockTx{})
		if _, _, err := server.handleUpdatePlotThread(context.Background(), nil, UpdatePlotThreadInput{ThreadID: 99}); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestListPendingChanges(t *testing.T) {
	tx := &mockTx{requests: []store.StateChangeRequest{
		{ID: 4, TurnIndex: 2, Kind: store.KindStateDelta, DeltaJSONText: `{"hp": 1}`, Status: store.StatusPending, CreatedAt: time.Now()},
	}}
	server := newTestServer(&mockEngine{}, tx)

	_, output, err := server.handleListPendingChanges(context.Background(), nil, ListPendingChangesInput{SessionID: 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(output.Requests) != 1 || output.Requests[0].Kind != store.KindStateDelta {
		t.Fatalf("unexpected output: %+v", output)
	}
}

func TestApplyAndRejectChange(t *testing.T) {
	t.Run("apply maps the result", func(t *testing.T) {
		eng := &mockEngine{applied: &store.StateChangeRequest{ID: 4, Status: store.StatusApplied, CreatedAt: time.Now()}}
		server := newTestServer(eng, nil)

		_, output, err := server.handleApplyChange(context.Background(), nil, ApplyChangeInput{RequestID: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Status != store.StatusApplied || eng.lastRequestID != 4 {
			t.Fatalf("unexpected output: %+v", output)
		}
	})

	t.Run("reject passes the reason", func(t *testing.T) {
		eng := &mockEngine{}
		server := newTestServer(eng, nil)

		_, output, err := server.handleRejectChange(context.Background(), nil, RejectChangeInput{RequestID: 4, Reason: "nope"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Status != store.StatusRejected || eng.lastReason != "nope" {
			t.Fatalf("unexpected output: %+v", output)
		}
	})

	t.Run("zero request id", func(t *testing.T) {
		server := newTestServer(&mockEngine{}, nil)
		if _, _, err := server.handleApplyChange(context.Background(), nil, ApplyChangeInput{}); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestGetCharacterSheet(t *testing.T) {
	t.Run("missing sheet is an empty object", func(t *testing.T) {
		server := newTestServer(&mockEngine{}, &mockTx{})
		_, output, err := server.handleGetCharacterSheet(context.Background(), nil, GetCharacterSheetInput{SessionID: 1})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.JSONText != "{}" {
			t.Fatalf("unexpected output: %+v", output)
		}
	})

	t.Run("existing sheet passes through", func(t *testing.T) {
		tx := &mockTx{sheet: &store.CharacterSheet{SessionID: 1, JSONText: `{"hp": 9}`, UpdatedAt: time.Now()}}
		server := newTestServer(&mockEngine{}, tx)
		_, output, err := server.handleGetCharacterSheet(context.Background(), nil, GetCharacterSheetInput{SessionID: 1})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.JSONText != `{"hp": 9}` {
			t.Fatalf("unexpected output: %+v", output)
		}
	})
}
