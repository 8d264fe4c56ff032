package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"next-gig/internal/app"
	"next-gig/internal/config"
	"next-gig/internal/database/migration"

	"github.com/robfig/cron/v3"
)

func main() {
	mode := flag.String("mode", "normal", "normal runs a job cycle, check verifies wiring without writing")
	cronSpec := flag.String("cron", "", "cron spec for repeated runs (empty runs once and exits)")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to wire container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()
	r := migration.Runner{Dir: "migrations"}
	if err := r.Run(migCtx, c.DB.SQLDB()); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	switch *mode {
	case "check":
		if err := runCheck(c, logger); err != nil {
			logger.Fatalf("check failed: %v", err)
		}
	case "normal":
		if *cronSpec == "" {
			if err := runOnce(c, logger); err != nil {
				os.Exit(1)
			}
			return
		}
		runScheduled(c, *cronSpec, logger)
	default:
		logger.Fatalf("unknown mode %q", *mode)
	}
}

func runOnce(c *app.Container, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	report, err := c.JobCycle.Run(ctx)
	if err != nil {
		logger.Printf("cmd=jobcycle status=error err=%v", err)
		return err
	}
	logger.Printf("cmd=jobcycle status=done run_status=%s new=%d duplicate=%d duration=%s",
		report.Status, report.New, report.Duplicate, report.Duration)
	return nil
}

func runScheduled(c *app.Container, spec string, logger *log.Logger) {
	sched := cron.New()
	_, err := sched.AddFunc(spec, func() {
		_ = runOnce(c, logger)
	})
	if err != nil {
		logger.Fatalf("invalid cron spec %q: %v", spec, err)
	}

	logger.Printf("cmd=jobcycle status=scheduled spec=%q", spec)
	sched.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx := sched.Stop()
	<-ctx.Done()
}

// runCheck exercises every collaborator read-only so a deployment can be
// verified before the first scheduled run.
func runCheck(c *app.Container, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.DB.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	counts, err := c.Users.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("users: %w", err)
	}
	total := 0
	for status, n := range counts {
		logger.Printf("cmd=jobcycle check=users status=%s count=%d", status, n)
		total += n
	}
	logger.Printf("cmd=jobcycle check=users total=%d", total)

	if err := c.Cache.Ping(ctx); err != nil {
		logger.Printf("cmd=jobcycle check=cache status=unavailable err=%v", err)
	} else {
		logger.Printf("cmd=jobcycle check=cache status=ok")
	}

	if c.Config.ScraperBaseURL == "" {
		return fmt.Errorf("scraper: SCRAPER_BASE_URL is not configured")
	}
	logger.Printf("cmd=jobcycle check=scraper base_url=%s", c.Config.ScraperBaseURL)
	logger.Printf("cmd=jobcycle check=regions count=%d", len(c.Config.FallbackRegions))
	logger.Printf("cmd=jobcycle status=check_ok")
	return nil
}
