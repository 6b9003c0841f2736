package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/puppymart/rewards-service/internal/couponcode"
	"github.com/puppymart/rewards-service/internal/model"
	"github.com/puppymart/rewards-service/internal/playback"
	"github.com/puppymart/rewards-service/internal/service"
)

// PlaybackHandler handles HTTP requests for ad playback sessions. It owns
// the flow orchestration: a session opens only for a coupon that validates,
// and the settlement gate is the completion token the session mints.
type PlaybackHandler struct {
	coupons   CouponServiceInterface
	ads       AdServiceInterface
	sessions  *playback.Manager
	validator *validator.Validate
}

// NewPlaybackHandler creates a new PlaybackHandler.
func NewPlaybackHandler(coupons CouponServiceInterface, ads AdServiceInterface, sessions *playback.Manager, v *validator.Validate) *PlaybackHandler {
	return &PlaybackHandler{coupons: coupons, ads: ads, sessions: sessions, validator: v}
}

// StartSession handles POST /api/playback/sessions requests. It re-checks
// the coupon, picks an ad and opens a tracker; the response returns while
// the duration may still be resolving.
func (h *PlaybackHandler) StartSession(c *fiber.Ctx) error {
	var req model.StartPlaybackRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: " + err.Error()})
	}

	verdict, err := h.coupons.Validate(c.Context(), req.Code)
	if err != nil {
		log.Error().Err(err).Msg("failed to validate coupon for playback")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	if !verdict.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verdict.Message})
	}

	ad, err := h.ads.PickForRedemption(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoActiveAd) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no advertisement available"})
		}
		log.Error().Err(err).Msg("failed to pick ad for playback")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	session := h.sessions.Start(req.UserID, couponcode.Normalize(req.Code), ad)

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("session_id", session.ID).
		Str("user_id", req.UserID).
		Str("ad_id", ad.ID).
		Msg("playback session started")

	return c.Status(fiber.StatusCreated).JSON(model.StartPlaybackResponse{
		SessionID: session.ID,
		Ad: model.AdDescriptor{
			ID:         ad.ID,
			Title:      ad.Title,
			MediaURL:   ad.MediaURL,
			OrbitValue: ad.OrbitValue,
		},
	})
}

// GetProgress handles GET /api/playback/sessions/:id requests. Clients poll
// this to drive the progress bar and the orbits-so-far counter; the
// completion token appears once playback reaches the end.
func (h *PlaybackHandler) GetProgress(c *fiber.Ctx) error {
	session, ok := h.sessions.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	snap := session.Tracker.Snapshot()
	return c.JSON(model.PlaybackProgressResponse{
		SessionID:       session.ID,
		State:           snap.State.String(),
		Percent:         snap.Percent,
		OrbitCount:      snap.OrbitCount,
		Complete:        snap.Complete,
		CompletionToken: snap.CompletionToken,
	})
}

// StopSession handles DELETE /api/playback/sessions/:id requests: the user
// closed the ad early. The attempt is abandoned with no orbit credit, but
// the validated coupon survives for a later retry.
func (h *PlaybackHandler) StopSession(c *fiber.Ctx) error {
	if !h.sessions.Stop(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("session_id", c.Params("id")).
		Msg("playback session stopped")

	return c.SendStatus(fiber.StatusNoContent)
}
