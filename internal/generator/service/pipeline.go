package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/generator/history"
	"github.com/mcp-forge/forge-backend/internal/generator/intent"
	"github.com/mcp-forge/forge-backend/internal/generator/pack"
	"github.com/mcp-forge/forge-backend/internal/generator/prompt"
	"github.com/mcp-forge/forge-backend/internal/generator/store"
	"github.com/mcp-forge/forge-backend/internal/generator/synth"
	"github.com/mcp-forge/forge-backend/internal/generator/validate"
	"github.com/mcp-forge/forge-backend/internal/logging"
)

// Result is what a completed generation hands back to the HTTP layer.
type Result struct {
	GenerationID string           `json:"generation_id"`
	ArtifactID   string           `json:"artifact_id"`
	DownloadURL  string           `json:"download_url"`
	ExpiresAt    time.Time        `json:"expires_at"`
	FileCount    int              `json:"file_count"`
	SizeBytes    int64            `json:"size_bytes"`
	Intent       domain.Intent    `json:"intent"`
	Findings     []domain.Finding `json:"findings,omitempty"`
}

// Deps wires the pipeline stages together.
type Deps struct {
	Analyzer  *intent.Analyzer
	Synth     *synth.Synthesizer
	Validator *validate.Validator
	Packager  *pack.Packager
	Store     *store.ArtifactStore
	History   *history.Repo
	Deadline  time.Duration
	Clock     func() time.Time
}

// Service runs the generation pipeline: normalize, analyze, synthesize,
// validate (with at most one repair round), package, store.
type Service struct {
	analyzer  *intent.Analyzer
	synth     *synth.Synthesizer
	validator *validate.Validator
	packager  *pack.Packager
	store     *store.ArtifactStore
	history   *history.Repo
	deadline  time.Duration
	clock     func() time.Time
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Deadline <= 0 {
		d.Deadline = 30 * time.Second
	}
	return &Service{
		analyzer:  d.Analyzer,
		synth:     d.Synth,
		validator: d.Validator,
		packager:  d.Packager,
		store:     d.Store,
		history:   d.History,
		deadline:  d.Deadline,
		clock:     d.Clock,
	}
}

// Generate runs the full pipeline for a raw prompt.
func (s *Service) Generate(ctx context.Context, rawPrompt string, opts prompt.Options) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()
	logger := logging.NewLogger(ctx)

	req, err := prompt.Normalize(rawPrompt, opts)
	if err != nil {
		return Result{}, err
	}

	it := s.analyzer.Analyze(ctx, req)
	logger.LogInfof("generate", "domain=%s confidence=%s", it.Domain, it.Confidence)

	project, err := s.synth.Synthesize(ctx, req, it)
	if err != nil {
		return Result{}, err
	}

	project, report, err := s.validateWithRepair(ctx, it, project,
		func(ctx context.Context, p *domain.Project, findings []domain.Finding) (*domain.Project, error) {
			return s.synth.Repair(ctx, req, it, p, findings)
		})
	if err != nil {
		return Result{}, err
	}

	return s.finish(ctx, req, it, project, report)
}

// GenerateAdditional builds only the optional extras for a prompt that was
// already generated, reusing the same analysis path.
func (s *Service) GenerateAdditional(ctx context.Context, rawPrompt string, opts synth.AdditionalOptions) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	req, err := prompt.Normalize(rawPrompt, prompt.Options{
		IncludeDatabase:  opts.IncludeDatabase,
		DeploymentTarget: string(opts.DeploymentTarget),
	})
	if err != nil {
		return Result{}, err
	}
	opts.DeploymentTarget = req.DeploymentTarget

	it := s.analyzer.Analyze(ctx, req)

	project, err := s.synth.SynthesizeAdditional(ctx, opts, it)
	if err != nil {
		return Result{}, err
	}

	project, report, err := s.validateWithRepair(ctx, it, project,
		func(ctx context.Context, p *domain.Project, findings []domain.Finding) (*domain.Project, error) {
			return s.synth.RepairAdditional(ctx, opts, it, p, findings)
		})
	if err != nil {
		return Result{}, err
	}

	return s.finish(ctx, req, it, project, report)
}

// repairFunc re-generates the files named in the findings using the plan
// that produced the project.
type repairFunc func(ctx context.Context, project *domain.Project, findings []domain.Finding) (*domain.Project, error)

// validateWithRepair validates and, on fatal findings, runs exactly one
// repair round before validating again. Two strikes fail the generation.
func (s *Service) validateWithRepair(ctx context.Context, it domain.Intent, project *domain.Project, repair repairFunc) (*domain.Project, domain.ValidationReport, error) {
	logger := logging.NewLogger(ctx)

	report := s.validator.Validate(project, it)
	if !report.HasFatal() {
		return project, report, nil
	}

	logger.LogWarnf("validate", "%d fatal finding(s), running repair", len(report.Fatal()))
	repaired, err := repair(ctx, project, report.Fatal())
	if err != nil {
		return nil, domain.ValidationReport{}, err
	}

	report = s.validator.Validate(repaired, it)
	if report.HasFatal() {
		logger.LogErrorf("validate", "repair did not converge: %d fatal finding(s)", len(report.Fatal()))
		return nil, report, &domain.ValidationError{Findings: report.Fatal()}
	}
	return repaired, report, nil
}

func (s *Service) finish(ctx context.Context, req domain.GenerationRequest, it domain.Intent, project *domain.Project, report domain.ValidationReport) (Result, error) {
	logger := logging.NewLogger(ctx)

	now := s.clock()
	generationID := fmt.Sprintf("gen_%d", now.Unix())

	data, err := s.packager.Package(project, req, it, generationID, now)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		// Caller is gone; do not publish an artifact nobody can claim.
		return Result{}, fmt.Errorf("generation aborted: %w", err)
	}

	artifact := domain.Artifact{
		ID:           store.NewID(),
		GenerationID: generationID,
		Prompt:       req.Prompt,
		FileCount:    project.Len() + 1, // metadata manifest rides along
		Bytes:        data,
	}
	handle, err := s.store.Save(ctx, artifact)
	if err != nil {
		return Result{}, err
	}

	if err := s.history.Record(ctx, history.Entry{
		GenerationID: generationID,
		ArtifactID:   artifact.ID,
		Prompt:       req.Prompt,
		Domain:       it.Domain,
		FileCount:    artifact.FileCount,
		SizeBytes:    int64(len(data)),
		Status:       "completed",
		CreatedAt:    now,
	}); err != nil {
		logger.LogWarnf("generate", "history write failed: %v", err)
	}

	logger.LogInfof("generate", "generation_id=%s artifact=%s files=%d bytes=%d",
		generationID, artifact.ID, artifact.FileCount, len(data))

	return Result{
		GenerationID: generationID,
		ArtifactID:   artifact.ID,
		DownloadURL:  handle.URL,
		ExpiresAt:    handle.ExpiresAt,
		FileCount:    artifact.FileCount,
		SizeBytes:    int64(len(data)),
		Intent:       it,
		Findings:     report.Findings,
	}, nil
}
