package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/mcp-forge/forge-backend/config"
	"github.com/mcp-forge/forge-backend/internal/bootstrap"
)

// The sweeper purges expired artifacts on a schedule so Redis only carries
// live downloads plus the short post-expiry grace records.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	app, err := bootstrap.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc(cfg.Artifact.SweepSchedule, func() {
		purged, err := app.Store.Sweep(context.Background())
		if err != nil {
			log.Printf("sweep failed: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("sweep purged %d artifact(s)", purged)
		}
	})
	if err != nil {
		log.Fatalf("invalid sweep schedule %q: %v", cfg.Artifact.SweepSchedule, err)
	}

	c.Start()
	log.Printf("sweeper running on schedule %q", cfg.Artifact.SweepSchedule)

	<-ctx.Done()
	log.Println("stopping sweeper")
	<-c.Stop().Done()
}
