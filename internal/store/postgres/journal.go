package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) InsertJournalEntry(ctx context.Context, sessionID int64, sceneID, summary string, turnIndex int) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO story_journal_entries (session_id, turn_index, scene_id, summary)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		sessionID, turnIndex, sceneID, summary,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting journal entry: %w", err)
	}
	return id, nil
}

func (t *Tx) ListRecentJournal(ctx context.Context, sessionID int64, limit int) ([]store.StoryJournalEntry, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, turn_index, scene_id, summary, open_threads, key_facts, created_at
		 FROM story_journal_entries
		 WHERE session_id = $1
		 ORDER BY id DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent journal entries: %w", err)
	}
	defer rows.Close()
	return scanJournalRows(rows)
}

func (t *Tx) SelectJournalRange(ctx context.Context, sessionID int64, startTurn, endTurn int) ([]store.StoryJournalEntry, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, turn_index, scene_id, summary, open_threads, key_facts, created_at
		 FROM story_journal_entries
		 WHERE session_id = $1 AND turn_index IS NOT NULL AND turn_index BETWEEN $2 AND $3
		 ORDER BY turn_index ASC, id ASC`,
		sessionID, startTurn, endTurn,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting journal range: %w", err)
	}
	defer rows.Close()
	return scanJournalRows(rows)
}

func scanJournalRows(rows pgx.Rows) ([]store.StoryJournalEntry, error) {
	var entries []store.StoryJournalEntry
	for rows.Next() {
		var e store.StoryJournalEntry
		var turnIndex *int32
		if err := rows.Scan(&e.ID, &e.SessionID, &turnIndex, &e.SceneID, &e.Summary,
			&e.OpenThreads, &e.KeyFacts, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		if turnIndex != nil {
			e.TurnIndex = int(*turnIndex)
			e.HasTurn = true
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
