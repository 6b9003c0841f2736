package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/puppymart/rewards-service/internal/model"
)

// AdRepository provides data access for advertisements using pgx.
type AdRepository struct {
	pool PoolInterface
}

// NewAdRepository creates a new AdRepository with the given pool.
func NewAdRepository(pool *pgxpool.Pool) *AdRepository {
	return &AdRepository{pool: pool}
}

// NewAdRepositoryWithPool creates a new AdRepository with a custom pool interface.
// This is primarily used for testing.
func NewAdRepositoryWithPool(pool PoolInterface) *AdRepository {
	return &AdRepository{pool: pool}
}

// Insert inserts a new advertisement.
func (r *AdRepository) Insert(ctx context.Context, ad *model.Ad) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ads (id, title, media_url, orbit_value, duration_ms, active) VALUES ($1, $2, $3, $4, $5, $6)`,
		ad.ID, ad.Title, ad.MediaURL, ad.OrbitValue, ad.DurationMs, ad.Active)
	if err != nil {
		return fmt.Errorf("insert ad: %w", err)
	}
	return nil
}

// PickActive returns one active advertisement, randomly chosen so repeated
// redemption attempts rotate through the inventory.
// Returns nil, nil when no active ad exists.
func (r *AdRepository) PickActive(ctx context.Context) (*model.Ad, error) {
	query := `SELECT id, title, media_url, orbit_value, duration_ms, active, created_at
	          FROM ads WHERE active ORDER BY random() LIMIT 1`

	var ad model.Ad
	err := r.pool.QueryRow(ctx, query).Scan(
		&ad.ID,
		&ad.Title,
		&ad.MediaURL,
		&ad.OrbitValue,
		&ad.DurationMs,
		&ad.Active,
		&ad.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No inventory - let service handle
		}
		return nil, fmt.Errorf("pick active ad: %w", err)
	}
	return &ad, nil
}

// GetByID retrieves an advertisement by ID.
// Returns nil, nil if the ad is not found.
func (r *AdRepository) GetByID(ctx context.Context, id string) (*model.Ad, error) {
	query := `SELECT id, title, media_url, orbit_value, duration_ms, active, created_at FROM ads WHERE id = $1`

	var ad model.Ad
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ad.ID,
		&ad.Title,
		&ad.MediaURL,
		&ad.OrbitValue,
		&ad.DurationMs,
		&ad.Active,
		&ad.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ad by id %s: %w", id, err)
	}
	return &ad, nil
}
