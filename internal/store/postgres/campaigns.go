package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"soloquest/internal/store"
)

func (t *Tx) CreateCampaign(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO campaigns (name) VALUES ($1) RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating campaign: %w", err)
	}
	return id, nil
}

func (t *Tx) GetCampaign(ctx context.Context, id int64) (*store.Campaign, error) {
	var c store.Campaign
	var lastOpened *time.Time
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, created_at, last_opened_at FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &lastOpened)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting campaign: %w", err)
	}
	if lastOpened != nil {
		c.LastOpenedAt = *lastOpened
	}
	return &c, nil
}

func (t *Tx) ListCampaigns(ctx context.Context) ([]store.Campaign, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, name, created_at, last_opened_at
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
		var lastOpened *time.Time
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &lastOpened); err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		if lastOpened != nil {
			c.LastOpenedAt = *lastOpened
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (t *Tx) RenameCampaign(ctx context.Context, id int64, name string) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE campaigns SET name = $1 WHERE id = $2`, name, id,
	); err != nil {
		return fmt.Errorf("renaming campaign: %w", err)
	}
	return nil
}

func (t *Tx) TouchCampaign(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx,
		`UPDATE campaigns SET last_opened_at = now() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("touching campaign: %w", err)
	}
	return nil
}
