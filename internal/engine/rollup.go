package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"soloquest/internal/store"
)

// Rollup tuning. Chapter summaries are only ever built from full chunks, and
// the most recent turns stay out of summarization entirely so near-term
// detail survives verbatim in the journal.
const (
	RecentBuffer          = 12
	ChapterChunk          = 20
	ChapterMaxChars       = 1200
	CampaignMaxChars      = 1500
	CampaignRegenChapters = 3
)

const emptySummaryPlaceholder = "(uneventful)"

// Rollup incrementally compresses the story journal: journal entries fold
// into chapter summaries one full chunk at a time, and once enough chapters
// exist the single campaign summary is rebuilt from all of them. It is
// deterministic and idempotent for a given journal state and makes no model
// calls.
func (e *Engine) Rollup(ctx context.Context, q store.Queries, sessionID int64, currentTurn int) error {
	progressEnd, err := q.ChapterProgress(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("rollup: %w", err)
	}

	windowStart := progressEnd + 1
	windowEnd := currentTurn - RecentBuffer
	if windowEnd < windowStart {
		return nil
	}

	entries, err := q.SelectJournalRange(ctx, sessionID, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("rollup: %w", err)
	}
	if len(entries) < ChapterChunk {
		return nil
	}
	chunk := entries[:ChapterChunk]

	var parts []string
	for _, entry := range chunk {
		if strings.TrimSpace(entry.Summary) != "" {
			parts = append(parts, entry.Summary)
		}
	}
	text := truncateSummary(strings.Join(parts, "\n"), ChapterMaxChars)

	startTurn := chunk[0].TurnIndex
	endTurn := chunk[len(chunk)-1].TurnIndex
	if _, err := q.InsertSummary(ctx, sessionID, store.LevelChapter, startTurn, endTurn, text); err != nil {
		return fmt.Errorf("rollup: %w", err)
	}
	e.log.Info("chapter summary created",
		zap.Int64("session_id", sessionID),
		zap.Int("start_turn", startTurn),
		zap.Int("end_turn", endTurn),
	)

	return e.regenCampaignSummary(ctx, q, sessionID)
}

// regenCampaignSummary rebuilds the single campaign-level summary from every
// chapter summary. The old row is deleted, never edited in place.
func (e *Engine) regenCampaignSummary(ctx context.Context, q store.Queries, sessionID int64) error {
	chapters, err := q.ListSummaries(ctx, sessionID, store.LevelChapter)
	if err != nil {
		return fmt.Errorf("rollup: %w", err)
	}
	if len(chapters) < CampaignRegenChapters {
		return nil
	}

	maxEnd := 0
	parts := make([]string, 0, len(chapters))
	for _, chapter := range chapters {
		parts = append(parts, fmt.Sprintf("[%d-%d] %s", chapter.StartTurn, chapter.EndTurn, chapter.Summary))
		if chapter.EndTurn > maxEnd {
			maxEnd = chapter.EndTurn
		}
	}
	text := truncateSummary(strings.Join(parts, "\n\n"), CampaignMaxChars)

	if err := q.DeleteCampaignSummaries(ctx, sessionID); err != nil {
		return fmt.Errorf("rollup: %w", err)
	}
	if _, err := q.InsertSummary(ctx, sessionID, store.LevelCampaign, 0, maxEnd, text); err != nil {
		return fmt.Errorf("rollup: %w", err)
	}
	e.log.Info("campaign summary regenerated",
		zap.Int64("session_id", sessionID),
		zap.Int("end_turn", maxEnd),
		zap.Int("chapters", len(chapters)),
	)
	return nil
}

// truncateSummary caps text at max characters, trimming trailing whitespace
// before appending the ellipsis so the cut is visible but tidy. Empty input
// becomes a placeholder rather than an empty summary row.
func truncateSummary(text string, max int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return emptySummaryPlaceholder
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	// The ellipsis counts toward the cap.
	return strings.TrimRight(string(runes[:max-1]), " \t\n") + "…"
}
