package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/internal/service"
)

// AdServiceInterface defines the interface for advertisement business logic.
type AdServiceInterface interface {
	Create(ctx context.Context, req *model.CreateAdRequest) (*model.Ad, error)
	PickForRedemption(ctx context.Context) (*model.Ad, error)
}

// AdHandler handles HTTP requests for advertisement operations.
type AdHandler struct {
	service   AdServiceInterface
	validator *validator.Validate
}

// NewAdHandler creates a new AdHandler with the given service and validator.
func NewAdHandler(svc AdServiceInterface, v *validator.Validate) *AdHandler {
	return &AdHandler{service: svc, validator: v}
}

// CreateAd handles POST /api/ads requests to register an advertisement.
func (h *AdHandler) CreateAd(c *fiber.Ctx) error {
	var req model.CreateAdRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: " + err.Error()})
	}

	ad, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("title", req.Title).Msg("failed to create ad")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(ad)
}

// GetRedemptionAd handles GET /api/ads/redemption requests: the ad a client
// plays before settling a coupon. A 404 here blocks the playback flow
// entirely; the client retries the redeem action from scratch.
func (h *AdHandler) GetRedemptionAd(c *fiber.Ctx) error {
	ad, err := h.service.PickForRedemption(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoActiveAd) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no advertisement available"})
		}
		log.Error().Err(err).Msg("failed to pick redemption ad")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(model.AdDescriptor{
		ID:         ad.ID,
		Title:      ad.Title,
		MediaURL:   ad.MediaURL,
		OrbitValue: ad.OrbitValue,
	})
}
