package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) GetCharacterSheet(ctx context.Context, sessionID int64) (*store.CharacterSheet, error) {
	var s store.CharacterSheet
	err := t.tx.QueryRow(ctx,
		`SELECT session_id, json_text, updated_at FROM character_sheets WHERE session_id = $1`,
		sessionID,
	).Scan(&s.SessionID, &s.JSONText, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting character sheet: %w", err)
	}
	return &s, nil
}

func (t *Tx) PutCharacterSheet(ctx context.Context, sessionID int64, jsonText string) error {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO character_sheets (session_id, json_text)
		 VALUES ($1, $2)
		 ON CONFLICT (session_id) DO UPDATE SET
		   json_text = EXCLUDED.json_text,
		   updated_at = now()`,
		sessionID, jsonText,
	); err != nil {
		return fmt.Errorf("putting character sheet: %w", err)
	}
	return nil
}
