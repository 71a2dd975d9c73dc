package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Vovarama1992/teetimes/internal/ports"
)

type assetRepo struct {
	db *sql.DB
}

func NewAssetRepo(db *sql.DB) ports.AssetRepo {
	return &assetRepo{db: db}
}

func (r *assetRepo) Create(ctx context.Context, a *ports.Asset) error {
	query := `
		INSERT INTO assets (id, key, cdn, extension, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return r.db.QueryRowContext(
		ctx,
		query,
		a.ID,
		a.Key,
		a.CDN,
		a.Extension,
		time.Now(),
	).Scan(&a.CreatedAt)
}

func (r *assetRepo) Get(ctx context.Context, id string) (*ports.Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, key, cdn, extension, created_at
		FROM assets
		WHERE id = $1
	`, id)

	var a ports.Asset
	err := row.Scan(&a.ID, &a.Key, &a.CDN, &a.Extension, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	return err
}
