package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/generator/intent"
	"github.com/mcp-forge/forge-backend/internal/generator/pack"
	"github.com/mcp-forge/forge-backend/internal/generator/prompt"
	"github.com/mcp-forge/forge-backend/internal/generator/store"
	"github.com/mcp-forge/forge-backend/internal/generator/synth"
	"github.com/mcp-forge/forge-backend/internal/generator/validate"
	"github.com/mcp-forge/forge-backend/internal/provider"
)

// fakeGenerator returns fixed content for every synthesis request.
type fakeGenerator struct {
	mu         sync.Mutex
	content    string
	err        error
	configured bool
	calls      int
}

func (f *fakeGenerator) Generate(_ context.Context, _ provider.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func newTestService(t *testing.T, gen provider.TextGenerator) (*Service, *store.ArtifactStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := store.NewArtifactStore(rdb, store.Options{
		BaseURL: "http://localhost:8086",
		TTL:     24 * time.Hour,
	})

	svc := NewService(Deps{
		Analyzer:  intent.NewAnalyzer(gen),
		Synth:     synth.NewSynthesizer(gen),
		Validator: validate.NewValidator(),
		Packager:  pack.NewPackager(),
		Store:     st,
		History:   nil,
		Deadline:  30 * time.Second,
		Clock:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return svc, st
}

func TestService_Generate(t *testing.T) {
	t.Run("full pipeline with the static template path", func(t *testing.T) {
		svc, st := newTestService(t, nil)

		res, err := svc.Generate(context.Background(), "Weather forecasting MCP with SMS alerts", prompt.Options{})
		require.NoError(t, err)

		assert.Equal(t, "gen_1748779200", res.GenerationID)
		assert.Len(t, res.ArtifactID, 32)
		assert.Equal(t, "http://localhost:8086/download/"+res.ArtifactID, res.DownloadURL)
		assert.Equal(t, "weather", res.Intent.Domain)
		assert.Greater(t, res.FileCount, 3)

		got, err := st.Get(context.Background(), res.ArtifactID)
		require.NoError(t, err)
		assert.Equal(t, res.SizeBytes, int64(len(got.Bytes)))

		zr, err := zip.NewReader(bytes.NewReader(got.Bytes), int64(len(got.Bytes)))
		require.NoError(t, err)
		names := make(map[string]bool)
		for _, f := range zr.File {
			names[f.Name] = true
		}
		assert.True(t, names["mcp_server.py"])
		assert.True(t, names["requirements.txt"])
		assert.True(t, names["GENERATION_INFO.json"])
	})

	t.Run("invalid prompt never reaches synthesis", func(t *testing.T) {
		gen := &fakeGenerator{configured: true, content: "anything"}
		svc, _ := newTestService(t, gen)

		_, err := svc.Generate(context.Background(), "   ", prompt.Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("oversize prompt is rejected", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.Generate(context.Background(), strings.Repeat("x", 2001), prompt.Options{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("provider outage surfaces as a synthesis failure", func(t *testing.T) {
		gen := &fakeGenerator{configured: true, err: errors.New("upstream down")}
		svc, _ := newTestService(t, gen)

		_, err := svc.Generate(context.Background(), "crypto price tracker", prompt.Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSynthesis)
	})

	t.Run("canceled context discards the result", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Generate(ctx, "weather MCP", prompt.Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestService_RepairLoop(t *testing.T) {
	t.Run("persistent fatal findings stop after one repair", func(t *testing.T) {
		// Never emits a validate tool, so every round stays fatal.
		gen := &fakeGenerator{configured: true, content: "import os\n"}
		svc, _ := newTestService(t, gen)

		_, err := svc.Generate(context.Background(), "weather MCP", prompt.Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.NotEmpty(t, verr.Findings)
	})
}

func TestService_GenerateAdditional(t *testing.T) {
	t.Run("builds and stores the extras archive", func(t *testing.T) {
		svc, st := newTestService(t, nil)

		res, err := svc.GenerateAdditional(context.Background(), "weather MCP", synth.AdditionalOptions{
			DeploymentTarget: domain.TargetVercel,
			IncludeDatabase:  true,
		})
		require.NoError(t, err)

		got, err := st.Get(context.Background(), res.ArtifactID)
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(got.Bytes), int64(len(got.Bytes)))
		require.NoError(t, err)
		names := make(map[string]bool)
		for _, f := range zr.File {
			names[f.Name] = true
		}
		assert.True(t, names["vercel.json"])
		assert.True(t, names["database.py"])
		assert.False(t, names["mcp_server.py"])
	})

	t.Run("empty extras selection is invalid input", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.GenerateAdditional(context.Background(), "weather MCP", synth.AdditionalOptions{
			DeploymentTarget: domain.TargetCustom,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
