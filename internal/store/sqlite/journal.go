package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) InsertJournalEntry(ctx context.Context, sessionID int64, sceneID, summary string, turnIndex int) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO story_journal_entries (session_id, turn_index, scene_id, summary, open_threads, key_facts, created_at)
		 VALUES (?, ?, ?, ?, '', '', ?)`,
		sessionID, turnIndex, sceneID, summary, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting journal entry: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) ListRecentJournal(ctx context.Context, sessionID int64, limit int) ([]store.StoryJournalEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, turn_index, COALESCE(scene_id, ''), summary,
		        COALESCE(open_threads, ''), COALESCE(key_facts, ''), created_at
		 FROM story_journal_entries
		 WHERE session_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent journal entries: %w", err)
	}
	defer rows.Close()
	return scanJournalRows(rows)
}

func (t *Tx) SelectJournalRange(ctx context.Context, sessionID int64, startTurn, endTurn int) ([]store.StoryJournalEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, turn_index, COALESCE(scene_id, ''), summary,
		        COALESCE(open_threads, ''), COALESCE(key_facts, ''), created_at
		 FROM story_journal_entries
		 WHERE session_id = ? AND turn_index IS NOT NULL AND turn_index BETWEEN ? AND ?
		 ORDER BY turn_index ASC, id ASC`,
		sessionID, startTurn, endTurn,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting journal range: %w", err)
	}
	defer rows.Close()
	return scanJournalRows(rows)
}

func scanJournalRows(rows rowScanner) ([]store.StoryJournalEntry, error) {
	var entries []store.StoryJournalEntry
	for rows.Next() {
		var e store.StoryJournalEntry
		var turnIndex sql.NullInt64
		var createdAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &turnIndex, &e.SceneID, &e.Summary,
			&e.OpenThreads, &e.KeyFacts, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		if turnIndex.Valid {
			e.TurnIndex = int(turnIndex.Int64)
			e.HasTurn = true
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
