package service

import (
	"context"
	"fmt"
	"time"

	"github.com/puppymart/rewards-service/internal/couponcode"
	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetCouponForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	MarkRedeemed(ctx context.Context, tx database.TxQuerier, code string, at time.Time) error
}

// CouponService provides business logic for coupon creation and validation.
type CouponService struct {
	couponRepo CouponRepositoryInterface
	now        func() time.Time
}

// NewCouponService creates a new CouponService.
func NewCouponService(couponRepo CouponRepositoryInterface) *CouponService {
	return &CouponService{couponRepo: couponRepo, now: time.Now}
}

// Create creates a new coupon from the request. The code is stored
// normalized regardless of how it was typed or masked.
// Returns ErrCouponExists if a coupon with the same code already exists.
// Returns ErrInvalidRequest if request data is nil or incomplete.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) error {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || req.OrbitValue == nil {
		return ErrInvalidRequest
	}

	coupon := &model.Coupon{
		Code:       couponcode.Normalize(req.Code),
		OrbitValue: *req.OrbitValue,
		Status:     model.CouponStatusActive,
		ExpiresAt:  req.ExpiresAt,
	}
	return s.couponRepo.Insert(ctx, coupon)
}

// GetByCode retrieves a coupon by raw or masked code.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, rawCode string) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, couponcode.Normalize(rawCode))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Validate checks whether a user-entered code can still be redeemed and
// returns the verdict the client shows inline. Inputs too short to be a
// code are rejected without touching storage. Only storage failures return
// an error; every business outcome is a verdict, not an error.
func (s *CouponService) Validate(ctx context.Context, rawCode string) (*model.ValidateCouponResponse, error) {
	if couponcode.TooShort(rawCode) {
		return &model.ValidateCouponResponse{Valid: false, Message: "coupon code is too short"}, nil
	}

	coupon, err := s.couponRepo.GetByCode(ctx, couponcode.Normalize(rawCode))
	if err != nil {
		return nil, fmt.Errorf("validate coupon: %w", err)
	}

	switch {
	case coupon == nil:
		return &model.ValidateCouponResponse{Valid: false, Message: "coupon not found"}, nil
	case coupon.Status == model.CouponStatusRedeemed:
		return &model.ValidateCouponResponse{Valid: false, Message: "coupon already used"}, nil
	case coupon.Status == model.CouponStatusExpired || coupon.Expired(s.now()):
		return &model.ValidateCouponResponse{Valid: false, Message: "coupon expired"}, nil
	}

	return &model.ValidateCouponResponse{Valid: true}, nil
}
