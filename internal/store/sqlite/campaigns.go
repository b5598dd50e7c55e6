package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soloquest/internal/store"
)

func (t *Tx) CreateCampaign(ctx context.Context, name string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO campaigns (name, created_at) VALUES (?, ?)`,
		name, nowText(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating campaign: %w", err)
	}
	return res.LastInsertId()
}

func (t *Tx) GetCampaign(ctx context.Context, id int64) (*store.Campaign, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, name, created_at, COALESCE(last_opened_at, '') FROM campaigns WHERE id = ?`,
		id,
	)

	var c store.Campaign
	var createdAt, lastOpenedAt string
	if err := row.Scan(&c.ID, &c.Name, &createdAt, &lastOpenedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting campaign: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.LastOpenedAt = parseTime(lastOpenedAt)
	return &c, nil
}

func (t *Tx) ListCampaigns(ctx context.Context) ([]store.Campaign, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, name, created_at, COALESCE(last_opened_at, '')
		 FROM campaigns
		 ORDER BY COALESCE(last_opened_at, created_at) DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []store.Campaign
	for rows.Next() {
		var c store.Campaign
		var createdAt, lastOpenedAt string
		if err := rows.Scan(&c.ID, &c.Name, &createdAt, &lastOpenedAt); err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		c.LastOpenedAt = parseTime(lastOpenedAt)
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (t *Tx) RenameCampaign(ctx context.Context, id int64, name string) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE campaigns SET name = ? WHERE id = ?`, name, id,
	); err != nil {
		return fmt.Errorf("renaming campaign: %w", err)
	}
	return nil
}

func (t *Tx) TouchCampaign(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE campaigns SET last_opened_at = ? WHERE id = ?`, nowText(), id,
	); err != nil {
		return fmt.Errorf("touching campaign: %w", err)
	}
	return nil
}
