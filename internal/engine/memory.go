package engine

import (
	"context"
	"fmt"
	"strings"

	"soloquest/internal/llm"
	"soloquest/internal/parser"
	"soloquest/internal/store"
)

// Retrieval caps. The prompt must stay bounded no matter how long the
// campaign has run.
const (
	WorldBibleLimit  = 10
	PlotThreadsLimit = 20
)

// WorldPreview is the lightweight echo of a recalled world bible entry,
// returned alongside the turn so surfaces can show what the DM "remembered".
type WorldPreview struct {
	EntryType string `json:"entry_type"`
	Title     string `json:"title"`
	Tags      string `json:"tags,omitempty"`
}

// FetchWorldBible returns the prompt block and preview list for the most
// relevant world bible entries. With no tags it takes the most recently
// updated entries; with tags, entries whose tag field contains any of them.
func (e *Engine) FetchWorldBible(ctx context.Context, q store.Queries, campaignID int64, tags []string) (string, []WorldPreview, error) {
	entries, err := q.SelectWorldBibleForPrompt(ctx, campaignID, tags, WorldBibleLimit)
	if err != nil {
		return "", nil, fmt.Errorf("fetching world bible: %w", err)
	}

	var blocks []string
	previews := make([]WorldPreview, 0, len(entries))
	for _, entry := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "[%s] %s\n", entry.EntryType, entry.Title)
		if entry.Tags != "" {
			fmt.Fprintf(&b, "tags: %s\n", entry.Tags)
		}
		b.WriteString(entry.Content)
		blocks = append(blocks, b.String())
		previews = append(previews, WorldPreview{EntryType: entry.EntryType, Title: entry.Title, Tags: entry.Tags})
	}
	return strings.Join(blocks, "\n\n"), previews, nil
}

// FetchOpenPlotThreads renders the open threads, highest priority first, as
// short blocks. Empty fields are omitted rather than rendered blank.
func (e *Engine) FetchOpenPlotThreads(ctx context.Context, q store.Queries, sessionID int64) (string, error) {
	threads, err := q.ListThreads(ctx, sessionID, store.ThreadOpen, PlotThreadsLimit)
	if err != nil {
		return "", fmt.Errorf("fetching plot threads: %w", err)
	}

	var blocks []string
	for _, thread := range threads {
		var b strings.Builder
		fmt.Fprintf(&b, "(P%d) %s", thread.Priority, thread.Title)
		if thread.Tags != "" {
			fmt.Fprintf(&b, " [%s]", thread.Tags)
		}
		if thread.Summary != "" {
			b.WriteString("\n" + thread.Summary)
		}
		if thread.NextStep != "" {
			b.WriteString("\nnext: " + thread.NextStep)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n"), nil
}

// FetchStoryMemory renders the compressed history: latest campaign summary,
// latest chapter summary, then the most recent journal entries in
// chronological order.
func (e *Engine) FetchStoryMemory(ctx context.Context, q store.Queries, sessionID int64) (string, error) {
	var blocks []string

	campaign, err := q.LatestSummary(ctx, sessionID, store.LevelCampaign)
	if err != nil {
		return "", fmt.Errorf("fetching story memory: %w", err)
	}
	if campaign != nil {
		blocks = append(blocks, "== Campaign so far ==\n"+campaign.Summary)
	}

	chapter, err := q.LatestSummary(ctx, sessionID, store.LevelChapter)
	if err != nil {
		return "", fmt.Errorf("fetching story memory: %w", err)
	}
	if chapter != nil {
		blocks = append(blocks, fmt.Sprintf("== Last chapter (turns %d-%d) ==\n%s", chapter.StartTurn, chapter.EndTurn, chapter.Summary))
	}

	entries, err := q.ListRecentJournal(ctx, sessionID, e.journalEntries)
	if err != nil {
		return "", fmt.Errorf("fetching story memory: %w", err)
	}
	// Storage returns newest-first; the prompt wants chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	for _, entry := range entries {
		if entry.HasTurn {
			blocks = append(blocks, fmt.Sprintf("turn %d: %s", entry.TurnIndex, entry.Summary))
		} else {
			blocks = append(blocks, entry.Summary)
		}
	}

	return strings.Join(blocks, "\n"), nil
}

// FetchRecentTurns converts the latest turns into alternating user/assistant
// messages. Assistant content is rebuilt from the stored raw reply so the
// model sees clean narration and choices, not its own delimiter scaffolding.
// A limit of zero returns no messages.
func (e *Engine) FetchRecentTurns(ctx context.Context, q store.Queries, sessionID int64) ([]llm.Message, error) {
	if e.historyTurns <= 0 {
		return nil, nil
	}
	turns, err := q.ListRecentTurns(ctx, sessionID, e.historyTurns)
	if err != nil {
		return nil, fmt.Errorf("fetching recent turns: %w", err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	// Blank sides of a pair are skipped rather than sent as empty messages.
	messages := make([]llm.Message, 0, len(turns)*2)
	for _, turn := range turns {
		if turn.PlayerText != "" {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn.PlayerText})
		}
		if turn.DMText != "" {
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: renderAssistantTurn(turn.DMText)})
		}
	}
	return messages, nil
}

func renderAssistantTurn(rawText string) string {
	resp := parser.Parse(rawText)
	if resp.Narration == "" && len(resp.Choices) == 0 {
		return rawText
	}

	var b strings.Builder
	b.WriteString(resp.Narration)
	if len(resp.Choices) > 0 {
		b.WriteString("\n\nChoices:")
		for _, choice := range resp.Choices {
			b.WriteString("\n- " + choice)
		}
	}
	return b.String()
}
