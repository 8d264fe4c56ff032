package handler

import (
	"errors"
	"strconv"

	"next-gig/internal/delivery/http/middleware"
	"next-gig/internal/pkg/response"
	"next-gig/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type UserJobsHandler struct {
	uc usecase.UserJobsUsecase
}

func NewUserJobsHandler(uc usecase.UserJobsUsecase) *UserJobsHandler {
	return &UserJobsHandler{uc: uc}
}

func (h *UserJobsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/:id/jobs", h.HandleListUserJobs)
}

func (h *UserJobsHandler) HandleListUserJobs(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	savedOnly := c.Query("saved") == "true"

	items, err := h.uc.ListUserJobs(c.Context(), usecase.UserJobsParams{
		UserID:    c.Params("id"),
		Limit:     limit,
		SavedOnly: savedOnly,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "success", items)
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func parseQueryFloatStrict(c fiber.Ctx, key string, defaultVal float64) (float64, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(s, 64)
}

func mapUsecaseError(err error) error {
	if errors.Is(err, usecase.ErrInvalidInput) {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	return middleware.NewAppError(fiber.StatusInternalServerError, "", nil, err)
}
