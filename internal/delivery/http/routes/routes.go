package routes

import (
	"next-gig/internal/delivery/http/handler"
	"next-gig/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health     *handler.HealthHandler
	UserJobs   *handler.UserJobsHandler
	NearbyJobs *handler.NearbyJobsHandler
	Pipeline   *handler.PipelineHandler
	WS         *ws.Handler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	if r.UserJobs != nil {
		r.UserJobs.RegisterRoutes(v1.Group("/users"))
	}
	if r.NearbyJobs != nil {
		r.NearbyJobs.RegisterRoutes(v1.Group("/jobs"))
	}
	if r.Pipeline != nil {
		r.Pipeline.RegisterRoutes(v1.Group("/pipeline"))
	}
	if r.WS != nil {
		app.Get("/ws/jobs", r.WS.HandleJobsWS)
	}
}
