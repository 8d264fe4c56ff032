package handler

import (
	"context"
	"time"

	"next-gig/internal/database"
	"next-gig/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    database.DB
	cache pinger
}

func NewHealthHandler(db database.DB, cache pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HandleHealth)
}

func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	status := fiber.StatusOK
	if h.db == nil || h.db.Ping(ctx) != nil {
		dbStatus = "down"
		status = fiber.StatusServiceUnavailable
	}

	// Cache is best-effort, a down cache never fails the health check.
	cacheStatus := "up"
	if h.cache == nil || h.cache.Ping(ctx) != nil {
		cacheStatus = "down"
	}

	data := fiber.Map{"database": dbStatus, "cache": cacheStatus}
	if status != fiber.StatusOK {
		return response.Error(c, status, "degraded", data)
	}
	return response.Success(c, status, response.MessageOK, data)
}
