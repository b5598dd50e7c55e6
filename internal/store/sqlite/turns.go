package sqlite

import (
	"context"
	"fmt"

	"soloquest/internal/store"
)

// NextTurnIndex allocates the next dense turn index for a session: one past
// the current maximum, or 0 for a fresh session.
func (t *Tx) NextTurnIndex(ctx context.Context, sessionID int64) (int, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(turn_index), -1) FROM turn_logs WHERE session_id = ?`,
		sessionID,
	)

	var max int
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("getting next turn index: %w", err)
	}
	return max + 1, nil
}

func (t *Tx) InsertTurnLog(ctx context.Context, sessionID int64, turnIndex int, playerText, dmText, diceEventsJSON string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO turn_logs (session_id, turn_index, player_text, dm_text, dice_events, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, turnIndex, playerText, dmText, diceEventsJSON, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting turn log: %w", err)
	}
	return res.LastInsertId()
}

// ListRecentTurns returns the newest turns first; callers reverse the slice
// when they need chronological order.
func (t *Tx) ListRecentTurns(ctx context.Context, sessionID int64, limit int) ([]store.TurnLog, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, session_id, turn_index, player_text, dm_text, COALESCE(dice_events, '[]'), created_at
		 FROM turn_logs
		 WHERE session_id = ?
		 ORDER BY turn_index DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent turns: %w", err)
	}
	defer rows.Close()

	var turns []store.TurnLog
	for rows.Next() {
		var tl store.TurnLog
		var createdAt string
		if err := rows.Scan(&tl.ID, &tl.SessionID, &tl.TurnIndex, &tl.PlayerText, &tl.DMText, &tl.DiceEvents, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn log: %w", err)
		}
		tl.CreatedAt = parseTime(createdAt)
		turns = append(turns, tl)
	}
	return turns, rows.Err()
}
