package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) UpsertWorldBibleEntry(ctx context.Context, in store.WorldBibleEntryInput) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO world_bible_entries
		   (campaign_id, entry_type, title, content, tags, related_locations, related_npcs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (campaign_id, title) DO UPDATE SET
		   entry_type = EXCLUDED.entry_type,
		   content = EXCLUDED.content,
		   tags = EXCLUDED.tags,
		   related_locations = EXCLUDED.related_locations,
		   related_npcs = EXCLUDED.related_npcs,
		   updated_at = now()
		 RETURNING id`,
		in.CampaignID, in.EntryType, in.Title, in.Content, in.Tags, in.RelatedLocations, in.RelatedNPCs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting world bible entry: %w", err)
	}
	return id, nil
}

const worldBibleColumns = `id, campaign_id, entry_type, title, content, tags, related_locations, related_npcs, updated_at`

func (t *Tx) ListWorldBibleEntries(ctx context.Context, campaignID int64, limit int) ([]store.WorldBibleEntry, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+worldBibleColumns+`
		 FROM world_bible_entries
		 WHERE campaign_id = $1
		 ORDER BY updated_at DESC, id DESC
		 LIMIT $2`,
		campaignID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing world bible entries: %w", err)
	}
	defer rows.Close()
	return scanWorldBibleRows(rows)
}

func (t *Tx) SelectWorldBibleForPrompt(ctx context.Context, campaignID int64, tags []string, limit int) ([]store.WorldBibleEntry, error) {
	if len(tags) == 0 {
		return t.ListWorldBibleEntries(ctx, campaignID, limit)
	}

	clauses := make([]string, 0, len(tags))
	params := []any{campaignID}
	for i, tag := range tags {
		clauses = append(clauses, fmt.Sprintf("tags LIKE $%d", i+2))
		params = append(params, "%"+tag+"%")
	}
	params = append(params, limit)

	query := fmt.Sprintf(
		`SELECT `+worldBibleColumns+`
		 FROM world_bible_entries
		 WHERE campaign_id = $1 AND (%s)
		 ORDER BY updated_at DESC, id DESC
		 LIMIT $%d`,
		strings.Join(clauses, " OR "), len(tags)+2,
	)

	rows, err := t.tx.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("selecting world bible for prompt: %w", err)
	}
	defer rows.Close()
	return scanWorldBibleRows(rows)
}

func scanWorldBibleRows(rows pgx.Rows) ([]store.WorldBibleEntry, error) {
	var entries []store.WorldBibleEntry
	for rows.Next() {
		var e store.WorldBibleEntry
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.EntryType, &e.Title, &e.Content, &e.Tags,
			&e.RelatedLocations, &e.RelatedNPCs, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning world bible entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
