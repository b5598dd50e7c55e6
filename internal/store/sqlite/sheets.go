package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) GetCharacterSheet(ctx context.Context, sessionID int64) (*store.CharacterSheet, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT session_id, json_text, updated_at FROM character_sheets WHERE session_id = ?`,
		sessionID,
	)

	var s store.CharacterSheet
	var updatedAt string
	if err := row.Scan(&s.SessionID, &s.JSONText, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting character sheet: %w", err)
	}
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func (t *Tx) PutCharacterSheet(ctx context.Context, sessionID int64, jsonText string) error {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO character_sheets (session_id, json_text, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
		   json_text = excluded.json_text,
		   updated_at = excluded.updated_at`,
		sessionID, jsonText, nowText(),
	); err != nil {
		return fmt.Errorf("putting character sheet: %w", err)
	}
	return nil
}
