package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"soloquest/internal/store"
)

// fakeStore keeps everything in slices/maps and hands out the same Tx for
// every Begin, which is enough to exercise the engine's read/persist split.
type fakeStore struct {
	tx        *fakeTx
	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	s := &fakeStore{}
	s.tx = &fakeTx{
		store:     s,
		campaigns: map[int64]*store.Campaign{},
		sessions:  map[int64]*store.Session{},
		sheets:    map[int64]string{},
	}
	return s
}

func (s *fakeStore) Close(ctx context.Context) error        { return nil }
func (s *fakeStore) EnsureSchema(ctx context.Context) error { return nil }
func (s *fakeStore) Begin(ctx context.Context) (store.Tx, error) {
	return s.tx, nil
}

type fakeTx struct {
	store *fakeStore

	campaigns map[int64]*store.Campaign
	sessions  map[int64]*store.Session
	world     []store.WorldBibleEntry
	journal   []store.StoryJournalEntry
	summaries []store.SessionSummary
	threads   []store.PlotThread
	turns     []store.TurnLog
	sheets    map[int64]string
	requests  []store.StateChangeRequest

	nextID int64
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.store.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.store.rollbacks++
	return nil
}

func (t *fakeTx) id() int64 {
	t.nextID++
	return t.nextID
}

func (t *fakeTx) CreateCampaign(ctx context.Context, name string) (int64, error) {
	id := t.id()
	t.campaigns[id] = &store.Campaign{ID: id, Name: name, CreatedAt: time.Now()}
	return id, nil
}

func (t *fakeTx) GetCampaign(ctx context.Context, id int64) (*store.Campaign, error) {
	return t.campaigns[id], nil
}

func (t *fakeTx) ListCampaigns(ctx context.Context) ([]store.Campaign, error) {
	var out []store.Campaign
	for _, c := range t.campaigns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *fakeTx) RenameCampaign(ctx context.Context, id int64, name string) error {
	if c, ok := t.campaigns[id]; ok {
		c.Name = name
	}
	return nil
}

func (t *fakeTx) TouchCampaign(ctx context.Context, id int64) error {
	if c, ok := t.campaigns[id]; ok {
		c.LastOpenedAt = time.Now()
	}
	return nil
}

func (t *fakeTx) CreateSession(ctx context.Context, campaignID int64, title, currentScene string) (int64, error) {
	id := t.id()
	t.sessions[id] = &store.Session{ID: id, CampaignID: campaignID, Title: title, CurrentScene: currentScene, CreatedAt: time.Now()}
	return id, nil
}

func (t *fakeTx) GetSession(ctx context.Context, id int64) (*store.Session, error) {
	return t.sessions[id], nil
}

func (t *fakeTx) ListSessions(ctx context.Context, campaignID int64) ([]store.Session, error) {
	var out []store.Session
	for _, s := range t.sessions {
		if s.CampaignID == campaignID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *fakeTx) UpdateSessionSidebar(ctx context.Context, id int64, currentScene, sessionState, pinnedWorldNotes string) error {
	if s, ok := t.sessions[id]; ok {
		s.CurrentScene = currentScene
		s.SessionState = sessionState
		s.PinnedWorldNotes = pinnedWorldNotes
	}
	return nil
}

func (t *fakeTx) UpsertWorldBibleEntry(ctx context.Context, in store.WorldBibleEntryInput) (int64, error) {
	for i := range t.world {
		if t.world[i].CampaignID == in.CampaignID && t.world[i].Title == in.Title {
			t.world[i].EntryType = in.EntryType
			t.world[i].Content = in.Content
			t.world[i].Tags = in.Tags
			t.world[i].RelatedLocations = in.RelatedLocations
			t.world[i].RelatedNPCs = in.RelatedNPCs
			t.world[i].UpdatedAt = time.Now()
			return t.world[i].ID, nil
		}
	}
	id := t.id()
	t.world = append(t.world, store.WorldBibleEntry{
		ID: id, CampaignID: in.CampaignID, EntryType: in.EntryType, Title: in.Title,
		Content: in.Content, Tags: in.Tags, RelatedLocations: in.RelatedLocations,
		RelatedNPCs: in.RelatedNPCs, UpdatedAt: time.Now(),
	})
	return id, nil
}

func (t *fakeTx) ListWorldBibleEntries(ctx context.Context, campaignID int64, limit int) ([]store.WorldBibleEntry, error) {
	return t.SelectWorldBibleForPrompt(ctx, campaignID, nil, limit)
}

func (t *fakeTx) SelectWorldBibleForPrompt(ctx context.Context, campaignID int64, tags []string, limit int) ([]store.WorldBibleEntry, error) {
	var out []store.WorldBibleEntry
	for _, e := range t.world {
		if e.CampaignID != campaignID {
			continue
		}
		if len(tags) > 0 && !anyTagMatch(e.Tags, tags) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func anyTagMatch(field string, tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(field, tag) {
			return true
		}
	}
	return false
}

func (t *fakeTx) InsertJournalEntry(ctx context.Context, sessionID int64, sceneID, summary string, turnIndex int) (int64, error) {
	id := t.id()
	t.journal = append(t.journal, store.StoryJournalEntry{
		ID: id, SessionID: sessionID, SceneID: sceneID, Summary: summary,
		TurnIndex: turnIndex, HasTurn: true, CreatedAt: time.Now(),
	})
	return id, nil
}

func (t *fakeTx) ListRecentJournal(ctx context.Context, sessionID int64, limit int) ([]store.StoryJournalEntry, error) {
	var out []store.StoryJournalEntry
	for _, e := range t.journal {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *fakeTx) SelectJournalRange(ctx context.Context, sessionID int64, startTurn, endTurn int) ([]store.StoryJournalEntry, error) {
	var out []store.StoryJournalEntry
	for _, e := range t.journal {
		if e.SessionID == sessionID && e.HasTurn && e.TurnIndex >= startTurn && e.TurnIndex <= endTurn {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TurnIndex != out[j].TurnIndex {
			return out[i].TurnIndex < out[j].TurnIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *fakeTx) LatestSummary(ctx context.Context, sessionID int64, level string) (*store.SessionSummary, error) {
	var latest *store.SessionSummary
	for i := range t.summaries {
		s := &t.summaries[i]
		if s.SessionID == sessionID && s.Level == level {
			if latest == nil || s.ID > latest.ID {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (t *fakeTx) ListSummaries(ctx context.Context, sessionID int64, level string) ([]store.SessionSummary, error) {
	var out []store.SessionSummary
	for _, s := range t.summaries {
		if s.SessionID == sessionID && s.Level == level {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTurn < out[j].StartTurn })
	return out, nil
}

func (t *fakeTx) InsertSummary(ctx context.Context, sessionID int64, level string, startTurn, endTurn int, summary string) (int64, error) {
	id := t.id()
	t.summaries = append(t.summaries, store.SessionSummary{
		ID: id, SessionID: sessionID, Level: level, StartTurn: startTurn,
		EndTurn: endTurn, Summary: summary, CreatedAt: time.Now(),
	})
	return id, nil
}

func (t *fakeTx) DeleteCampaignSummaries(ctx context.Context, sessionID int64) error {
	kept := t.summaries[:0]
	for _, s := range t.summaries {
		if !(s.SessionID == sessionID && s.Level == store.LevelCampaign) {
			kept = append(kept, s)
		}
	}
	t.summaries = kept
	return nil
}

func (t *fakeTx) ChapterProgress(ctx context.Context, sessionID int64) (int, error) {
	progress := -1
	for _, s := range t.summaries {
		if s.SessionID == sessionID && s.Level == store.LevelChapter && s.EndTurn > progress {
			progress = s.EndTurn
		}
	}
	return progress, nil
}

func (t *fakeTx) CreateThread(ctx context.Context, in store.PlotThreadInput) (int64, error) {
	id := t.id()
	t.threads = append(t.threads, store.PlotThread{
		ID: id, SessionID: in.SessionID, Title: in.Title, Status: store.ThreadOpen,
		Priority: in.Priority, Summary: in.Summary, NextStep: in.NextStep, Tags: in.Tags,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	return id, nil
}

func (t *fakeTx) GetThread(ctx context.Context, id int64) (*store.PlotThread, error) {
	for i := range t.threads {
		if t.threads[i].ID == id {
			copied := t.threads[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) UpdateThread(ctx context.Context, id int64, in store.PlotThreadInput) error {
	for i := range t.threads {
		if t.threads[i].ID == id {
			t.threads[i].Title = in.Title
			t.threads[i].Priority = in.Priority
			t.threads[i].Summary = in.Summary
			t.threads[i].NextStep = in.NextStep
			t.threads[i].Tags = in.Tags
			t.threads[i].UpdatedAt = time.Now()
		}
	}
	return nil
}

func (t *fakeTx) SetThreadStatus(ctx context.Context, id int64, status string) error {
	for i := range t.threads {
		if t.threads[i].ID == id {
			t.threads[i].Status = status
		}
	}
	return nil
}

func (t *fakeTx) ListThreads(ctx context.Context, sessionID int64, status string, limit int) ([]store.PlotThread, error) {
	var out []store.PlotThread
	for _, th := range t.threads {
		if th.SessionID != sessionID {
			continue
		}
		if status != "" && th.Status != status {
			continue
		}
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *fakeTx) NextTurnIndex(ctx context.Context, sessionID int64) (int, error) {
	next := 0
	for _, turn := range t.turns {
		if turn.SessionID == sessionID && turn.TurnIndex >= next {
			next = turn.TurnIndex + 1
		}
	}
	return next, nil
}

func (t *fakeTx) InsertTurnLog(ctx context.Context, sessionID int64, turnIndex int, playerText, dmText, diceEventsJSON string) (int64, error) {
	id := t.id()
	t.turns = append(t.turns, store.TurnLog{
		ID: id, SessionID: sessionID, TurnIndex: turnIndex,
		PlayerText: playerText, DMText: dmText, DiceEvents: diceEventsJSON,
		CreatedAt: time.Now(),
	})
	return id, nil
}

func (t *fakeTx) ListRecentTurns(ctx context.Context, sessionID int64, limit int) ([]store.TurnLog, error) {
	var out []store.TurnLog
	for _, turn := range t.turns {
		if turn.SessionID == sessionID {
			out = append(out, turn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnIndex > out[j].TurnIndex })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *fakeTx) GetCharacterSheet(ctx context.Context, sessionID int64) (*store.CharacterSheet, error) {
	text, ok := t.sheets[sessionID]
	if !ok {
		return nil, nil
	}
	return &store.CharacterSheet{SessionID: sessionID, JSONText: text, UpdatedAt: time.Now()}, nil
}

func (t *fakeTx) PutCharacterSheet(ctx context.Context, sessionID int64, jsonText string) error {
	t.sheets[sessionID] = jsonText
	return nil
}

func (t *fakeTx) CreateChangeRequest(ctx context.Context, sessionID int64, turnIndex int, kind, deltaJSONText string) (int64, error) {
	id := t.id()
	t.requests = append(t.requests, store.StateChangeRequest{
		ID: id, SessionID: sessionID, TurnIndex: turnIndex, Kind: kind,
		DeltaJSONText: deltaJSONText, Status: store.StatusPending, CreatedAt: time.Now(),
	})
	return id, nil
}

func (t *fakeTx) GetChangeRequest(ctx context.Context, id int64) (*store.StateChangeRequest, error) {
	for i := range t.requests {
		if t.requests[i].ID == id {
			copied := t.requests[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) ListChangeRequests(ctx context.Context, sessionID int64, status string, limit int) ([]store.StateChangeRequest, error) {
	var out []store.StateChangeRequest
	for _, r := range t.requests {
		if r.SessionID != sessionID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *fakeTx) SetChangeRequestStatus(ctx context.Context, id int64, status, errorText string) error {
	for i := range t.requests {
		if t.requests[i].ID == id {
			t.requests[i].Status = status
			t.requests[i].ErrorText = errorText
		}
	}
	return nil
}
