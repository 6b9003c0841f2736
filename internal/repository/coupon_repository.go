package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/internal/service"
	"github.com/puppymart/rewards-service/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (code, orbit_value, status, expires_at) VALUES ($1, $2, $3, $4)`,
		coupon.Code, coupon.OrbitValue, coupon.Status, coupon.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its normalized code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT code, orbit_value, status, expires_at, redeemed_at, created_at FROM coupons WHERE code = $1`

	var coupon model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&coupon.Code,
		&coupon.OrbitValue,
		&coupon.Status,
		&coupon.ExpiresAt,
		&coupon.RedeemedAt,
		&coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return &coupon, nil
}

// GetCouponForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetCouponForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT code, orbit_value, status, expires_at, redeemed_at, created_at FROM coupons WHERE code = $1 FOR UPDATE`

	var coupon model.Coupon
	err := tx.QueryRow(ctx, query, code).Scan(
		&coupon.Code,
		&coupon.OrbitValue,
		&coupon.Status,
		&coupon.ExpiresAt,
		&coupon.RedeemedAt,
		&coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return &coupon, nil
}

// MarkRedeemed flips a coupon to redeemed at the given time.
// Must be called within a transaction after locking the row.
func (r *CouponRepository) MarkRedeemed(ctx context.Context, tx database.TxQuerier, code string, at time.Time) error {
	query := `UPDATE coupons SET status = $2, redeemed_at = $3 WHERE code = $1`

	_, err := tx.Exec(ctx, query, code, model.CouponStatusRedeemed, at)
	if err != nil {
		return fmt.Errorf("mark coupon redeemed %s: %w", code, err)
	}
	return nil
}

// ExpireOverdue marks all active coupons past their expiry as expired and
// returns how many rows were affected. Used by the background sweeper.
func (r *CouponRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE coupons SET status = $1 WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < $3`

	tag, err := r.pool.Exec(ctx, query, model.CouponStatusExpired, model.CouponStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue coupons: %w", err)
	}
	return tag.RowsAffected(), nil
}
