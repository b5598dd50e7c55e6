// Package engine runs the turn loop: retrieve bounded context, assemble the
// prompt, call the model, parse the reply, persist the turn, and roll the
// journal up into summaries. Storage and transport are injected, so every
// piece is testable against fakes.
package engine

import (
	"context"

	"go.uber.org/zap"

	"soloquest/internal/llm"
)

// SessionRef identifies the campaign/session a call operates on. It is
// caller-supplied on every operation; the engine keeps no current-session
// state of its own.
type SessionRef struct {
	CampaignID int64
	SessionID  int64
}

// Chatter is the model surface the engine needs.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
	ChatStream(ctx context.Context, messages []llm.Message, onDelta func(string)) (string, error)
}

// Options tune retrieval breadth and prompt language.
type Options struct {
	// HistoryTurns is how many recent turns enter the prompt verbatim.
	HistoryTurns int
	// JournalEntries is how many story journal lines enter the prompt.
	JournalEntries int
	// Language is "en" or "zh"; anything else falls back to "en".
	Language string
	Logger   *zap.Logger
}

type Engine struct {
	client         Chatter
	log            *zap.Logger
	historyTurns   int
	journalEntries int
	language       string
}

func New(client Chatter, opts Options) *Engine {
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = 6
	}
	if opts.JournalEntries <= 0 {
		opts.JournalEntries = 12
	}
	if opts.Language != "zh" {
		opts.Language = "en"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		client:         client,
		log:            opts.Logger,
		historyTurns:   opts.HistoryTurns,
		journalEntries: opts.JournalEntries,
		language:       opts.Language,
	}
}
