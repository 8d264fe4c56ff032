package handler

import (
	"context"
	"log"
	"sync"
	"time"

	"next-gig/internal/pipeline"
	"next-gig/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type cycleRunner interface {
	Run(ctx context.Context) (pipeline.RunReport, error)
}

// PipelineHandler triggers job cycles over HTTP and reports on the last one.
// Only one run per process at a time; the distributed lock inside the cycle
// covers competing instances.
type PipelineHandler struct {
	runner cycleRunner
	logger *log.Logger

	mu         sync.Mutex
	running    bool
	lastReport *pipeline.RunReport
	lastError  string
	lastRunAt  time.Time
}

func NewPipelineHandler(runner cycleRunner, logger *log.Logger) *PipelineHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &PipelineHandler{runner: runner, logger: logger}
}

func (h *PipelineHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/run", h.HandleRun)
	r.Get("/status", h.HandleStatus)
}

func (h *PipelineHandler) HandleRun(c fiber.Ctx) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return response.Error(c, fiber.StatusConflict, "pipeline already running", nil)
	}
	h.running = true
	h.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		report, err := h.runner.Run(ctx)

		h.mu.Lock()
		h.running = false
		h.lastReport = &report
		h.lastRunAt = time.Now().UTC()
		h.lastError = ""
		if err != nil {
			h.lastError = err.Error()
		}
		h.mu.Unlock()
	}()

	return response.Success(c, fiber.StatusAccepted, "pipeline started", nil)
}

func (h *PipelineHandler) HandleStatus(c fiber.Ctx) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := fiber.Map{"running": h.running}
	if h.lastReport != nil {
		data["last_run_at"] = h.lastRunAt.Format(time.RFC3339)
		data["last_report"] = fiber.Map{
			"status":         h.lastReport.Status,
			"eligible_users": h.lastReport.EligibleUsers,
			"search_pairs":   h.lastReport.SearchPairs,
			"scraped_jobs":   h.lastReport.ScrapedJobs,
			"matched_users":  h.lastReport.MatchedUsers,
			"matched":        h.lastReport.Matched,
			"new":            h.lastReport.New,
			"duplicate":      h.lastReport.Duplicate,
			"failed_jobs":    h.lastReport.FailedJobs,
			"user_errors":    h.lastReport.UserErrors,
			"duration":       h.lastReport.Duration.String(),
		}
	}
	if h.lastError != "" {
		data["last_error"] = h.lastError
	}
	return response.Success(c, fiber.StatusOK, "success", data)
}
