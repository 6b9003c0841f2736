package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the service's backing stores are reachable:
// the rewards database and the Redis idempotency store.
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler creates a new HealthHandler over the database pool and
// the Redis idempotency store.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check performs a health check by pinging both stores.
// Returns 200 OK with {"status": "healthy"} when both are reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."}
// naming the unreachable store otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	if err := h.cache.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed: redis unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "redis connection failed",
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
