//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"soloquest/internal/store"
)

// Needs a live postgres; point SOLOQUEST_TEST_DSN at a scratch database and
// run with -tags integration.
func newIntegrationTx(t *testing.T) store.Tx {
	t.Helper()
	dsn := os.Getenv("SOLOQUEST_TEST_DSN")
	if dsn == "" {
		t.Skip("SOLOQUEST_TEST_DSN not set")
	}

	ctx := context.Background()
	client, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })

	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	tx, err := client.Begin(ctx)
	if err != nil {
		t.Fatalf("beginning transaction: %v", err)
	}
	// Everything rolls back, so repeated runs leave the database clean.
	t.Cleanup(func() { tx.Rollback(ctx) })
	return tx
}

func TestTurnRoundTrip(t *testing.T) {
	ctx := context.Background()
	tx := newIntegrationTx(t)

	campaignID, err := tx.CreateCampaign(ctx, fmt.Sprintf("it-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("creating campaign: %v", err)
	}
	sessionID, err := tx.CreateSession(ctx, campaignID, "integration", "scene-1")
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	next, err := tx.NextTurnIndex(ctx, sessionID)
	if err != nil {
		t.Fatalf("next turn index: %v", err)
	}
	if next != 0 {
		t.Fatalf("fresh session should start at 0, got %d", next)
	}
	if _, err := tx.InsertTurnLog(ctx, sessionID, 0, "player", "dm", "[]"); err != nil {
		t.Fatalf("inserting turn: %v", err)
	}
	if _, err := tx.InsertJournalEntry(ctx, sessionID, "scene-1", "it begins", 0); err != nil {
		t.Fatalf("inserting journal: %v", err)
	}

	turns, err := tx.ListRecentTurns(ctx, sessionID, 10)
	if err != nil {
		t.Fatalf("listing turns: %v", err)
	}
	if len(turns) != 1 || turns[0].TurnIndex != 0 {
		t.Fatalf("unexpected turns: %+v", turns)
	}

	requestID, err := tx.CreateChangeRequest(ctx, sessionID, 0, store.KindStateDelta, `{"hp": -1}`)
	if err != nil {
		t.Fatalf("creating change request: %v", err)
	}
	if err := tx.SetChangeRequestStatus(ctx, requestID, store.StatusApplied, ""); err != nil {
		t.Fatalf("setting status: %v", err)
	}
	request, err := tx.GetChangeRequest(ctx, requestID)
	if err != nil {
		t.Fatalf("getting request: %v", err)
	}
	if request.Status != store.StatusApplied {
		t.Fatalf("status not persisted: %+v", request)
	}
}
