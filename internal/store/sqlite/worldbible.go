package sqlite

import (
	"context"
	"fmt"
	"strings"

	"soloquest/internal/store"
)

func (t *Tx) UpsertWorldBibleEntry(ctx context.Context, in store.WorldBibleEntryInput) (int64, error) {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO world_bible_entries
		   (campaign_id, entry_type, title, content, tags, related_locations, related_npcs, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (campaign_id, title) DO UPDATE SET
		   entry_type = excluded.entry_type,
		   content = excluded.content,
		   tags = excluded.tags,
		   related_locations = excluded.related_locations,
		   related_npcs = excluded.related_npcs,
		   updated_at = excluded.updated_at`,
		in.CampaignID, in.EntryType, in.Title, in.Content, in.Tags, in.RelatedLocations, in.RelatedNPCs, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("upserting world bible entry: %w", err)
	}

	// The rowid from ExecContext is unreliable on conflict-update, so read
	// the id back by its natural key.
	var id int64
	err = t.tx.QueryRowContext(ctx,
		`SELECT id FROM world_bible_entries WHERE campaign_id = ? AND title = ?`,
		in.CampaignID, in.Title,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reading upserted world bible entry id: %w", err)
	}
	return id, nil
}

const worldBibleColumns = `id, campaign_id, entry_type, title, content, COALESCE(tags, ''),
	COALESCE(related_locations, ''), COALESCE(related_npcs, ''), updated_at`

func (t *Tx) ListWorldBibleEntries(ctx context.Context, campaignID int64, limit int) ([]store.WorldBibleEntry, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+worldBibleColumns+`
		 FROM world_bible_entries
		 WHERE campaign_id = ?
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ?`,
		campaignID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing world bible entries: %w", err)
	}
	defer rows.Close()
	return scanWorldBibleRows(rows)
}

// SelectWorldBibleForPrompt returns the most recently updated entries for the
// campaign. When tags are given, an entry matches if its tag field contains
// any of them as a substring (OR semantics).
func (t *Tx) SelectWorldBibleForPrompt(ctx context.Context, campaignID int64, tags []string, limit int) ([]store.WorldBibleEntry, error) {
	if len(tags) == 0 {
		return t.ListWorldBibleEntries(ctx, campaignID, limit)
	}

	clauses := make([]string, 0, len(tags))
	params := []any{campaignID}
	for _, tag := range tags {
		clauses = append(clauses, "tags LIKE ?")
		params = append(params, "%"+tag+"%")
	}
	params = append(params, limit)

	query := fmt.Sprintf(
		`SELECT `+worldBibleColumns+`
		 FROM world_bible_entries
		 WHERE campaign_id = ? AND (%s)
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ?`,
		strings.Join(clauses, " OR "),
	)

	rows, err := t.tx.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("selecting world bible for prompt: %w", err)
	}
	defer rows.Close()
	return scanWorldBibleRows(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanWorldBibleRows(rows rowScanner) ([]store.WorldBibleEntry, error) {
	var entries []store.WorldBibleEntry
	for rows.Next() {
		var e store.WorldBibleEntry
		var updatedAt string
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.EntryType, &e.Title, &e.Content, &e.Tags,
			&e.RelatedLocations, &e.RelatedNPCs, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning world bible entry: %w", err)
		}
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
