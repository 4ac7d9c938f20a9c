package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mcp-forge/forge-backend/config"
	"github.com/mcp-forge/forge-backend/internal/generator/history"
	"github.com/mcp-forge/forge-backend/internal/generator/intent"
	"github.com/mcp-forge/forge-backend/internal/generator/pack"
	"github.com/mcp-forge/forge-backend/internal/generator/service"
	"github.com/mcp-forge/forge-backend/internal/generator/store"
	"github.com/mcp-forge/forge-backend/internal/generator/synth"
	"github.com/mcp-forge/forge-backend/internal/generator/validate"
	"github.com/mcp-forge/forge-backend/internal/provider"
)

// App holds everything a process needs after bootstrap.
type App struct {
	Cfg     *config.Config
	Redis   *redis.Client
	DB      *sql.DB
	Gen     provider.TextGenerator
	Store   *store.ArtifactStore
	History *history.Repo
	Service *service.Service
}

// NewApp wires the shared dependency graph for the API and the sweeper.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	rdb, err := NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	db, err := NewDB(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	gen := provider.NewOpenAIClient(provider.OpenAIOptions{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})

	var blobs store.BlobBackend
	if cfg.S3.Bucket != "" {
		blobs, err = store.NewS3Backend(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			return nil, fmt.Errorf("configure artifact blob backend: %w", err)
		}
	}

	st := store.NewArtifactStore(rdb, store.Options{
		BaseURL: cfg.Artifact.BaseURL,
		TTL:     cfg.Artifact.TTL,
		Blobs:   blobs,
	})

	hist := history.NewRepo(db)

	svc := service.NewService(service.Deps{
		Analyzer:  intent.NewAnalyzer(gen),
		Synth:     synth.NewSynthesizer(gen),
		Validator: validate.NewValidator(),
		Packager:  pack.NewPackager(),
		Store:     st,
		History:   hist,
		Deadline:  cfg.App.PipelineDeadline,
	})

	return &App{
		Cfg:     cfg,
		Redis:   rdb,
		DB:      db,
		Gen:     gen,
		Store:   st,
		History: hist,
		Service: svc,
	}, nil
}

// Close releases the app's connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
