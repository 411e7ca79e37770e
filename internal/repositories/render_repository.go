package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"socialcard/internal/models"
	"socialcard/internal/output"
	"socialcard/internal/util"
)

type RenderRepository struct {
	db *pgxpool.Pool
}

func NewRenderRepository(db *pgxpool.Pool) *RenderRepository {
	return &RenderRepository{db: db}
}

// RecordRender implements output.Recorder.
func (r *RenderRepository) RecordRender(ctx context.Context, s output.StoredRender) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO renders (id, object_key, url, provider, size_bytes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, util.NewID("render"), s.Key, s.URL, s.Provider, s.Size, time.Now().UTC())
	return err
}

// List returns the most recent stored renders, newest first.
func (r *RenderRepository) List(ctx context.Context, limit int) ([]models.Render, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, object_key, url, provider, size_bytes, created_at
		FROM renders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Render, 0, limit)
	for rows.Next() {
		var it models.Render
		if err := rows.Scan(&it.ID, &it.ObjectKey, &it.URL, &it.Provider, &it.SizeBytes, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
