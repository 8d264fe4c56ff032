package app

import (
	"context"
	"log"
	"time"

	"next-gig/internal/config"
	"next-gig/internal/database"
	dbpostgres "next-gig/internal/database/postgres"
	"next-gig/internal/domain/matching"
	"next-gig/internal/geo"
	"next-gig/internal/infrastructure/cache"
	"next-gig/internal/infrastructure/scraper"
	"next-gig/internal/pipeline"
	"next-gig/internal/repository"
	"next-gig/internal/usecase"
	"next-gig/internal/ws"
)

// Container holds every long-lived collaborator, wired once at startup.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis

	Users    repository.UserRepository
	Store    repository.JobStoreRepository
	Queries  repository.JobQueryRepository
	Geocoder *geo.Geocoder
	Scraper  scraper.Client
	Hub      *ws.Hub

	JobCycle   *pipeline.JobCycle
	UserJobs   usecase.UserJobsUsecase
	NearbyJobs usecase.NearbyJobsUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedis(logger)

	users := repository.NewPostgresUserRepository(db)
	store := repository.NewPostgresJobStoreRepository(db, logger)
	queries := repository.NewPostgresJobQueryRepository(db)

	geocoder := geo.NewGeocoder(cfg.Geocoder, redisCache, logger)
	scraperClient := scraper.NewClient(cfg.ScraperBaseURL, logger)
	resolver := matching.NewFallbackResolver(cfg.FallbackRegions)

	hub := ws.NewHub(logger)

	policy, err := repository.ParseEligibilityPolicy(cfg.Pipeline.EligibilityPolicy)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cycle := pipeline.NewJobCycle(users, store, scraperClient, ws.NewNotifier(hub), redisCache, redisCache, pipeline.JobCycleParams{
		Policy:  policy,
		Workers: cfg.Pipeline.Workers,
	}, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Cache:      redisCache,
		Users:      users,
		Store:      store,
		Queries:    queries,
		Geocoder:   geocoder,
		Scraper:    scraperClient,
		Hub:        hub,
		JobCycle:   cycle,
		UserJobs:   usecase.NewUserJobsUsecase(queries, redisCache, logger),
		NearbyJobs: usecase.NewNearbyJobsUsecase(queries, geocoder, resolver, cfg.Pipeline.DefaultRadiusKm, logger),
	}, nil
}

func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
