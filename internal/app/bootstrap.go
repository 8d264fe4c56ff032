package app

import (
	"fmt"
	"strings"

	"next-gig/internal/delivery/http/handler"
	"next-gig/internal/delivery/http/middleware"
	"next-gig/internal/delivery/http/routes"
	"next-gig/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New assembles the HTTP surface on top of a wired container. The ws hub
// loop is started here; it lives for the process lifetime.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	f.Use(middleware.NewErrorMiddleware().Middleware())
	f.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())

	go c.Hub.Run()

	reg := &routes.Registry{
		Health:     handler.NewHealthHandler(c.DB, c.Cache),
		UserJobs:   handler.NewUserJobsHandler(c.UserJobs),
		NearbyJobs: handler.NewNearbyJobsHandler(c.NearbyJobs),
		Pipeline:   handler.NewPipelineHandler(c.JobCycle, c.Logger),
		WS:         ws.NewHandler(c.Hub, c.Logger),
	}
	reg.Register(f)

	return &App{Fiber: f, Container: c}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
