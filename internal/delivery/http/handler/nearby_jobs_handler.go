package handler

import (
	"next-gig/internal/delivery/http/middleware"
	"next-gig/internal/pkg/response"
	"next-gig/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type NearbyJobsHandler struct {
	uc usecase.NearbyJobsUsecase
}

func NewNearbyJobsHandler(uc usecase.NearbyJobsUsecase) *NearbyJobsHandler {
	return &NearbyJobsHandler{uc: uc}
}

func (h *NearbyJobsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/nearby", h.HandleFindNearby)
}

func (h *NearbyJobsHandler) HandleFindNearby(c fiber.Ctx) error {
	radius, err := parseQueryFloatStrict(c, "radius_km", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	items, err := h.uc.FindNearby(c.Context(), usecase.NearbyJobsParams{
		Title:    c.Query("title"),
		Location: c.Query("location"),
		RadiusKm: radius,
		Limit:    limit,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "success", items)
}
