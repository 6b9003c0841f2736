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

// RedemptionServiceInterface defines the interface for settlement business logic.
type RedemptionServiceInterface interface {
	Settle(ctx context.Context, userID, rawCode, token, idemKey string) (int, error)
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	ListRedemptions(ctx context.Context, userID string) ([]model.Redemption, error)
}

// RedeemHandler handles HTTP requests for redemption settlement and wallet reads.
type RedeemHandler struct {
	service   RedemptionServiceInterface
	validator *validator.Validate
}

// NewRedeemHandler creates a new RedeemHandler with the given service and validator.
func NewRedeemHandler(svc RedemptionServiceInterface, v *validator.Validate) *RedeemHandler {
	return &RedeemHandler{service: svc, validator: v}
}

// formatRedeemValidationError converts validator errors to user-facing messages.
func formatRedeemValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			tag := fe.Tag()

			switch field {
			case "UserID":
				if tag == "required" {
					return "invalid request: user_id is required"
				}
				return "invalid request: user_id is invalid"
			case "Code":
				if tag == "required" {
					return "invalid request: code is required"
				}
				return "invalid request: code is invalid"
			case "CompletionToken":
				if tag == "required" {
					return "invalid request: completion_token is required"
				}
				return "invalid request: completion_token is invalid"
			default:
				if tag == "required" {
					return "invalid request: " + field + " is required"
				}
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// RedeemCoupon handles POST /api/coupons/redeem requests to settle a
// redemption. The response's balance field carries the earned orbit delta,
// which clients apply additively to their cached wallet balance. On any
// failure the coupon is left untouched so the user can retry after
// rewatching the ad.
func (h *RedeemHandler) RedeemCoupon(c *fiber.Ctx) error {
	var req model.RedeemCouponRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatRedeemValidationError(err)})
	}

	idemKey := c.Get("Idempotency-Key")

	earned, err := h.service.Settle(c.Context(), req.UserID, req.Code, req.CompletionToken, idemKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			return c.Status(fiber.StatusForbidden).JSON(model.RedeemCouponResponse{
				Message: "advertisement not completed",
			})
		case errors.Is(err, service.ErrCouponNotFound):
			return c.Status(fiber.StatusNotFound).JSON(model.RedeemCouponResponse{
				Message: "coupon not found",
			})
		case errors.Is(err, service.ErrAlreadyRedeemed):
			return c.Status(fiber.StatusConflict).JSON(model.RedeemCouponResponse{
				Message: "coupon already used",
			})
		case errors.Is(err, service.ErrCouponExpired):
			return c.Status(fiber.StatusBadRequest).JSON(model.RedeemCouponResponse{
				Message: "coupon expired",
			})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", req.UserID).
			Msg("failed to settle redemption")
		return c.Status(fiber.StatusInternalServerError).JSON(model.RedeemCouponResponse{
			Message: "failed to redeem, try again",
		})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("user_id", req.UserID).
		Int("earned_orbits", earned).
		Msg("redemption settled")

	return c.JSON(model.RedeemCouponResponse{
		Success: true,
		Balance: earned,
	})
}

// GetWallet handles GET /api/wallets/:user_id requests.
func (h *RedeemHandler) GetWallet(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: user_id is required"})
	}

	wallet, err := h.service.GetWallet(c.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to get wallet")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(wallet)
}

// ListRedemptions handles GET /api/wallets/:user_id/redemptions requests.
func (h *RedeemHandler) ListRedemptions(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: user_id is required"})
	}

	redemptions, err := h.service.ListRedemptions(c.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list redemptions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(redemptions)
}
