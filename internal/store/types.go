package store

import "time"

const (
	LevelChapter  = "chapter"
	LevelCampaign = "campaign"

	ThreadOpen   = "open"
	ThreadClosed = "closed"

	KindStateDelta    = "state_delta"
	KindThreadUpdates = "thread_updates"

	StatusPending  = "pending"
	StatusApplied  = "applied"
	StatusRejected = "rejected"
)

type Campaign struct {
	ID           int64
	Name         string
	CreatedAt    time.Time
	LastOpenedAt time.Time
}

type Session struct {
	ID               int64
	CampaignID       int64
	Title            string
	CurrentScene     string
	SessionState     string
	PinnedWorldNotes string
	CreatedAt        time.Time
}

type WorldBibleEntryInput struct {
	CampaignID       int64
	EntryType        string
	Title            string
	Content          string
	Tags             string
	RelatedLocations string
	RelatedNPCs      string
}

type WorldBibleEntry struct {
	ID               int64
	CampaignID       int64
	EntryType        string
	Title            string
	Content          string
	Tags             string
	RelatedLocations string
	RelatedNPCs      string
	UpdatedAt        time.Time
}

type StoryJournalEntry struct {
	ID          int64
	SessionID   int64
	TurnIndex   int
	HasTurn     bool
	SceneID     string
	Summary     string
	OpenThreads string
	KeyFacts    string
	CreatedAt   time.Time
}

type SessionSummary struct {
	ID        int64
	SessionID int64
	Level     string
	StartTurn int
	EndTurn   int
	Summary   string
	CreatedAt time.Time
}

type PlotThreadInput struct {
	SessionID int64
	Title     string
	Priority  int
	Summary   string
	NextStep  string
	Tags      string
}

type PlotThread struct {
	ID        int64
	SessionID int64
	Title     string
	Status    string
	Priority  int
	Summary   string
	NextStep  string
	Tags      string
	UpdatedAt time.Time
	CreatedAt time.Time
}

type TurnLog struct {
	ID         int64
	SessionID  int64
	TurnIndex  int
	PlayerText string
	DMText     string
	DiceEvents string
	CreatedAt  time.Time
}

type CharacterSheet struct {
	SessionID int64
	JSONText  string
	UpdatedAt time.Time
}

type StateChangeRequest struct {
	ID            int64
	SessionID     int64
	TurnIndex     int
	Kind          string
	DeltaJSONText string
	Status        string
	ErrorText     string
	CreatedAt     time.Time
}
