package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/puppymart/rewards-service/internal/couponcode"
	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/pkg/database"
)

// RedemptionRepositoryInterface defines the interface for redemption data access.
type RedemptionRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, red *model.Redemption) error
	ListByUser(ctx context.Context, userID string) ([]model.Redemption, error)
}

// WalletRepositoryInterface defines the interface for wallet data access.
type WalletRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID string) (*model.Wallet, error)
	Credit(ctx context.Context, tx database.TxQuerier, userID string, amount int) (int, error)
}

// TokenConsumer spends single-use playback completion tokens. Implemented
// by the playback session manager.
type TokenConsumer interface {
	ConsumeToken(userID, couponCode, token string) (string, bool)
}

// IdempotencyStore caches settlement outcomes by client idempotency key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (int, bool, error)
	Put(ctx context.Context, key string, earned int) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RedemptionService settles validated, fully-watched coupons: it spends the
// completion token, marks the coupon redeemed and credits the wallet in one
// transaction.
type RedemptionService struct {
	pool           TxBeginner
	couponRepo     CouponRepositoryInterface
	redemptionRepo RedemptionRepositoryInterface
	walletRepo     WalletRepositoryInterface
	tokens         TokenConsumer
	idem           IdempotencyStore
	now            func() time.Time
}

// NewRedemptionService creates a new RedemptionService with the given pool,
// repositories and collaborators.
func NewRedemptionService(
	pool *pgxpool.Pool,
	couponRepo CouponRepositoryInterface,
	redemptionRepo RedemptionRepositoryInterface,
	walletRepo WalletRepositoryInterface,
	tokens TokenConsumer,
	idem IdempotencyStore,
) *RedemptionService {
	return &RedemptionService{
		pool:           pool,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		walletRepo:     walletRepo,
		tokens:         tokens,
		idem:           idem,
		now:            time.Now,
	}
}

// NewRedemptionServiceWithTxBeginner creates a RedemptionService with a
// custom TxBeginner. Primarily used for testing.
func NewRedemptionServiceWithTxBeginner(
	pool TxBeginner,
	couponRepo CouponRepositoryInterface,
	redemptionRepo RedemptionRepositoryInterface,
	walletRepo WalletRepositoryInterface,
	tokens TokenConsumer,
	idem IdempotencyStore,
) *RedemptionService {
	return &RedemptionService{
		pool:           pool,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		walletRepo:     walletRepo,
		tokens:         tokens,
		idem:           idem,
		now:            time.Now,
	}
}

// Settle finalizes a redemption and returns the earned orbit amount.
// The completion token gates entry: without one minted by a finished
// playback session, settlement is unreachable. idemKey may be empty; when
// present, a replayed key returns the originally earned amount without
// touching the coupon or wallet.
// Returns:
//   - ErrInvalidToken if the token is unknown, spent, or mismatched
//   - ErrCouponNotFound if the coupon doesn't exist
//   - ErrAlreadyRedeemed if the coupon was already settled
//   - ErrCouponExpired if the coupon lapsed before settlement
func (s *RedemptionService) Settle(ctx context.Context, userID, rawCode, token, idemKey string) (int, error) {
	code := couponcode.Normalize(rawCode)

	if idemKey != "" && s.idem != nil {
		earned, found, err := s.idem.Get(ctx, idemKey)
		if err != nil {
			// The store is an optimization; the unique redemption
			// constraint below still prevents double credit.
			log.Warn().Err(err).Msg("idempotency lookup failed, continuing")
		} else if found {
			log.Info().Str("user_id", userID).Str("coupon_code", code).Msg("idempotent settlement replay")
			return earned, nil
		}
	}

	sessionID, ok := s.tokens.ConsumeToken(userID, code, token)
	if !ok {
		return 0, ErrInvalidToken
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the coupon row (SELECT FOR UPDATE)
	coupon, err := s.couponRepo.GetCouponForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return 0, ErrCouponNotFound
		}
		return 0, fmt.Errorf("get coupon for update: %w", err)
	}

	// 2. Check redeemability
	if coupon.Status == model.CouponStatusRedeemed {
		return 0, ErrAlreadyRedeemed
	}
	if coupon.Status == model.CouponStatusExpired || coupon.Expired(s.now()) {
		return 0, ErrCouponExpired
	}

	// 3. Insert redemption (UNIQUE constraint catches duplicates)
	earned := coupon.OrbitValue
	err = s.redemptionRepo.Insert(ctx, tx, &model.Redemption{
		ID:           uuid.NewString(),
		CouponCode:   code,
		UserID:       userID,
		SessionID:    sessionID,
		EarnedOrbits: earned,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRedeemed) {
			return 0, ErrAlreadyRedeemed
		}
		return 0, fmt.Errorf("insert redemption: %w", err)
	}

	// 4. Flip coupon status
	if err := s.couponRepo.MarkRedeemed(ctx, tx, code, s.now()); err != nil {
		return 0, fmt.Errorf("mark redeemed: %w", err)
	}

	// 5. Additive wallet credit, applied against the balance at this moment
	if _, err := s.walletRepo.Credit(ctx, tx, userID, earned); err != nil {
		return 0, fmt.Errorf("credit wallet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	if idemKey != "" && s.idem != nil {
		if err := s.idem.Put(ctx, idemKey, earned); err != nil {
			log.Warn().Err(err).Msg("idempotency record failed")
		}
	}

	return earned, nil
}

// GetWallet returns a user's wallet, or a zero-balance wallet when the user
// has never been credited.
func (s *RedemptionService) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	if wallet == nil {
		return &model.Wallet{UserID: userID, Balance: 0}, nil
	}
	return wallet, nil
}

// ListRedemptions returns a user's settlement history, newest first.
func (s *RedemptionService) ListRedemptions(ctx context.Context, userID string) ([]model.Redemption, error) {
	redemptions, err := s.redemptionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	return redemptions, nil
}
