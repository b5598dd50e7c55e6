package validate

import (
	"context"
	"testing"

	"soloquest/internal/store"
)

type fakeRows struct {
	turns    []store.TurnLog
	chapters []store.SessionSummary
	campaign []store.SessionSummary
	requests []store.StateChangeRequest
	journal  []store.StoryJournalEntry
}

func (f *fakeRows) ListRecentTurns(ctx context.Context, sessionID int64, limit int) ([]store.TurnLog, error) {
	// Newest-first, like the real store.
	out := make([]store.TurnLog, len(f.turns))
	for i, turn := range f.turns {
		out[len(f.turns)-1-i] = turn
	}
	return out, nil
}

func (f *fakeRows) ListSummaries(ctx context.Context, sessionID int64, level string) ([]store.SessionSummary, error) {
	if level == store.LevelCampaign {
		return f.campaign, nil
	}
	return f.chapters, nil
}

func (f *fakeRows) ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]store.StateChangeRequest, error) {
	return f.requests, nil
}

func (f *fakeRows) ListRecentJournal(ctx context.Context, sessionID int64, limit int) ([]store.StoryJournalEntry, error) {
	return f.journal, nil
}

func turnSeq(indexes ...int) []store.TurnLog {
	out := make([]store.TurnLog, len(indexes))
	for i, idx := range indexes {
		out[i] = store.TurnLog{ID: int64(i + 1), TurnIndex: idx}
	}
	return out
}

func codes(report *Report) []string {
	var out []string
	for _, issue := range report.Issues {
		out = append(out, issue.Code)
	}
	return out
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("clean session", func(t *testing.T) {
		rows := &fakeRows{
			turns: turnSeq(0, 1, 2, 3),
			chapters: []store.SessionSummary{
				{ID: 1, Level: store.LevelChapter, StartTurn: 0, EndTurn: 1},
				{ID: 2, Level: store.LevelChapter, StartTurn: 2, EndTurn: 3},
			},
			campaign: []store.SessionSummary{{ID: 3, Level: store.LevelCampaign, StartTurn: 0, EndTurn: 3}},
			requests: []store.StateChangeRequest{{ID: 1, Status: store.StatusApplied}},
			journal:  []store.StoryJournalEntry{{ID: 1, TurnIndex: 2, HasTurn: true}},
		}
		report, err := Run(ctx, rows, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(report.Issues) != 0 {
			t.Fatalf("expected clean report, got %v", codes(report))
		}
		if report.Errors() {
			t.Fatalf("Errors() on a clean report")
		}
	})

	t.Run("empty session", func(t *testing.T) {
		report, err := Run(ctx, &fakeRows{}, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(report.Issues) != 0 {
			t.Fatalf("expected clean report, got %v", codes(report))
		}
	})

	t.Run("turn gap and bad start", func(t *testing.T) {
		report, err := Run(ctx, &fakeRows{turns: turnSeq(1, 2, 4)}, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		got := codes(report)
		if len(got) != 2 || got[0] != codeTurnStart || got[1] != codeTurnGap {
			t.Fatalf("unexpected issues: %v", got)
		}
		if !report.Errors() {
			t.Fatalf("expected error severity")
		}
	})

	t.Run("overlapping chapters", func(t *testing.T) {
		report, err := Run(ctx, &fakeRows{
			chapters: []store.SessionSummary{
				{ID: 1, StartTurn: 0, EndTurn: 19},
				{ID: 2, StartTurn: 15, EndTurn: 30},
			},
		}, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if got := codes(report); len(got) != 1 || got[0] != codeChapterOverlap {
			t.Fatalf("unexpected issues: %v", got)
		}
	})

	t.Run("duplicate campaign summary and range mismatch", func(t *testing.T) {
		report, err := Run(ctx, &fakeRows{
			chapters: []store.SessionSummary{{ID: 1, StartTurn: 0, EndTurn: 19}},
			campaign: []store.SessionSummary{
				{ID: 2, StartTurn: 0, EndTurn: 19},
				{ID: 3, StartTurn: 0, EndTurn: 10},
			},
		}, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		got := codes(report)
		if len(got) != 2 || got[0] != codeCampaignDuplicate || got[1] != codeCampaignRange {
			t.Fatalf("unexpected issues: %v", got)
		}
	})

	t.Run("unknown request status", func(t *testing.T) {
		report, err := Run(ctx, &fakeRows{
			requests: []store.StateChangeRequest{{ID: 1, Status: "limbo"}},
		}, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if got := codes(report); len(got) != 1 || got[0] != codeRequestStatus {
			t.Fatalf("unexpected issues: %v", got)
		}
	})

	t.Run("journal beyond turn log is a warning", func(t *testing.T) {
		report, err := Run(ctx, &fakeRows{
			turns:   turnSeq(0, 1),
			journal: []store.StoryJournalEntry{{ID: 1, TurnIndex: 9, HasTurn: true}},
		}, 1)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if got := codes(report); len(got) != 1 || got[0] != codeJournalBeyondLog {
			t.Fatalf("unexpected issues: %v", got)
		}
		if report.Errors() {
			t.Fatalf("warning must not count as error")
		}
	})
}
