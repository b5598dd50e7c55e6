package store

import (
	"context"
)

// Store is the persistence boundary shared by the sqlite and postgres
// backends. All reads and writes happen inside a Tx so a whole turn
// (persist + rollup) commits atomically at a single point.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Queries
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Queries interface {
	CreateCampaign(ctx context.Context, name string) (int64, error)
	GetCampaign(ctx context.Context, id int64) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	RenameCampaign(ctx context.Context, id int64, name string) error
	TouchCampaign(ctx context.Context, id int64) error

	CreateSession(ctx context.Context, campaignID int64, title, currentScene string) (int64, error)
	GetSession(ctx context.Context, id int64) (*Session, error)
	ListSessions(ctx context.Context, campaignID int64) ([]Session, error)
	UpdateSessionSidebar(ctx context.Context, id int64, currentScene, sessionState, pinnedWorldNotes string) error

	UpsertWorldBibleEntry(ctx context.Context, in WorldBibleEntryInput) (int64, error)
	ListWorldBibleEntries(ctx context.Context, campaignID int64, limit int) ([]WorldBibleEntry, error)
	SelectWorldBibleForPrompt(ctx context.Context, campaignID int64, tags []string, limit int) ([]WorldBibleEntry, error)

	InsertJournalEntry(ctx context.Context, sessionID int64, sceneID, summary string, turnIndex int) (int64, error)
	ListRecentJournal(ctx context.Context, sessionID int64, limit int) ([]StoryJournalEntry, error)
	SelectJournalRange(ctx context.Context, sessionID int64, startTurn, endTurn int) ([]StoryJournalEntry, error)

	LatestSummary(ctx context.Context, sessionID int64, level string) (*SessionSummary, error)
	ListSummaries(ctx context.Context, sessionID int64, level string) ([]SessionSummary, error)
	InsertSummary(ctx context.Context, sessionID int64, level string, startTurn, endTurn int, summary string) (int64, error)
	DeleteCampaignSummaries(ctx context.Context, sessionID int64) error
	ChapterProgress(ctx context.Context, sessionID int64) (int, error)

	CreateThread(ctx context.Context, in PlotThreadInput) (int64, error)
	GetThread(ctx context.Context, id int64) (*PlotThread, error)
	UpdateThread(ctx context.Context, id int64, in PlotThreadInput) error
	SetThreadStatus(ctx context.Context, id int64, status string) error
	ListThreads(ctx context.Context, sessionID int64, status string, limit int) ([]PlotThread, error)

	NextTurnIndex(ctx context.Context, sessionID int64) (int, error)
	InsertTurnLog(ctx context.Context, sessionID int64, turnIndex int, playerText, dmText, diceEventsJSON string) (int64, error)
	ListRecentTurns(ctx context.Context, sessionID int64, limit int) ([]TurnLog, error)

	GetCharacterSheet(ctx context.Context, sessionID int64) (*CharacterSheet, error)
	PutCharacterSheet(ctx context.Context, sessionID int64, jsonText string) error

	CreateChangeRequest(ctx context.Context, sessionID int64, turnIndex int, kind, deltaJSONText string) (int64, error)
	GetChangeRequest(ctx context.Context, id int64) (*StateChangeRequest, error)
	ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]StateChangeRequest, error)
	SetChangeRequestStatus(ctx context.Context, id int64, status, errorText string) error
}
