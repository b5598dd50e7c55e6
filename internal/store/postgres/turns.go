package postgres

import (
	"context"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) NextTurnIndex(ctx context.Context, sessionID int64) (int, error) {
	var max int
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(turn_index), -1) FROM turn_logs WHERE session_id = $1`,
		sessionID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("getting next turn index: %w", err)
	}
	return max + 1, nil
}

func (t *Tx) InsertTurnLog(ctx context.Context, sessionID int64, turnIndex int, playerText, dmText, diceEventsJSON string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO turn_logs (session_id, turn_index, player_text, dm_text, dice_events)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		sessionID, turnIndex, playerText, dmText, diceEventsJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting turn log: %w", err)
	}
	return id, nil
}

func (t *Tx) ListRecentTurns(ctx context.Context, sessionID int64, limit int) ([]store.TurnLog, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, session_id, turn_index, player_text, dm_text, dice_events, created_at
		 FROM turn_logs
		 WHERE session_id = $1
		 ORDER BY turn_index DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent turns: %w", err)
	}
	defer rows.Close()

	var turns []store.TurnLog
	for rows.Next() {
		var tl store.TurnLog
		if err := rows.Scan(&tl.ID, &tl.SessionID, &tl.TurnIndex, &tl.PlayerText, &tl.DMText, &tl.DiceEvents, &tl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn log: %w", err)
		}
		turns = append(turns, tl)
	}
	return turns, rows.Err()
}
