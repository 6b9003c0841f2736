package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/pkg/database"
)

// WalletRepository provides data access for wallets using pgx.
type WalletRepository struct {
	pool PoolInterface
}

// NewWalletRepository creates a new WalletRepository with the given pool.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// NewWalletRepositoryWithPool creates a new WalletRepository with a custom pool interface.
// This is primarily used for testing.
func NewWalletRepositoryWithPool(pool PoolInterface) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// GetByUserID retrieves a wallet by user ID.
// Returns nil, nil if no wallet exists yet (service layer handles this).
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*model.Wallet, error) {
	query := `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1`

	var wallet model.Wallet
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.Balance,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

// Credit applies an additive balance delta and returns the new balance.
// The upsert adds to the balance held at apply-time; a stale snapshot can
// never overwrite concurrent credits from other flows.
// Must be called within the settlement transaction.
func (r *WalletRepository) Credit(ctx context.Context, tx database.TxQuerier, userID string, amount int) (int, error) {
	query := `INSERT INTO wallets (user_id, balance, updated_at) VALUES ($1, $2, now())
	          ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + $2, updated_at = now()
	          RETURNING balance`

	var balance int
	if err := tx.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit wallet for user %s: %w", userID, err)
	}
	return balance, nil
}
