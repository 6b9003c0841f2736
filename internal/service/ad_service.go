package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/puppymart/rewards-service/internal/model"
)

// AdRepositoryInterface defines the interface for advertisement data access.
type AdRepositoryInterface interface {
	Insert(ctx context.Context, ad *model.Ad) error
	PickActive(ctx context.Context) (*model.Ad, error)
	GetByID(ctx context.Context, id string) (*model.Ad, error)
}

// AdService provides business logic for advertisement operations.
type AdService struct {
	adRepo AdRepositoryInterface
}

// NewAdService creates a new AdService.
func NewAdService(adRepo AdRepositoryInterface) *AdService {
	return &AdService{adRepo: adRepo}
}

// Create creates a new advertisement.
// Returns ErrInvalidRequest if request data is nil or incomplete.
func (s *AdService) Create(ctx context.Context, req *model.CreateAdRequest) (*model.Ad, error) {
	if req == nil || req.OrbitValue == nil {
		return nil, ErrInvalidRequest
	}

	ad := &model.Ad{
		ID:         uuid.NewString(),
		Title:      req.Title,
		MediaURL:   req.MediaURL,
		OrbitValue: *req.OrbitValue,
		DurationMs: req.DurationMs,
		Active:     true,
	}
	if err := s.adRepo.Insert(ctx, ad); err != nil {
		return nil, fmt.Errorf("create ad: %w", err)
	}
	return ad, nil
}

// PickForRedemption returns the advertisement a redemption attempt plays.
// Returns ErrNoActiveAd when the inventory is empty, which blocks entry
// into the playback flow entirely.
func (s *AdService) PickForRedemption(ctx context.Context) (*model.Ad, error) {
	ad, err := s.adRepo.PickActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("pick ad: %w", err)
	}
	if ad == nil {
		return nil, ErrNoActiveAd
	}
	return ad, nil
}
