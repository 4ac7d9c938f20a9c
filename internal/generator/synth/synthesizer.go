package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/logging"
	"github.com/mcp-forge/forge-backend/internal/provider"
)

// Synthesizer produces the project files for a generation request, one
// provider call per planned file. With no configured provider it fills the
// plan from the static template set instead.
type Synthesizer struct {
	gen provider.TextGenerator
}

func NewSynthesizer(gen provider.TextGenerator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize builds a draft Project for the request. Mandatory roles
// (server source, manifest) must come back non-empty or the whole request
// fails with ErrSynthesis; no partial project continues down the pipeline.
func (s *Synthesizer) Synthesize(ctx context.Context, req domain.GenerationRequest, it domain.Intent) (*domain.Project, error) {
	return s.run(ctx, buildPlan(req, it), req, it)
}

// SynthesizeAdditional builds only the optional module set for an existing
// generation (deployment configs, extended docs, database/scheduler modules).
func (s *Synthesizer) SynthesizeAdditional(ctx context.Context, opts AdditionalOptions, it domain.Intent) (*domain.Project, error) {
	plan := buildAdditionalPlan(opts, it)
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: nothing to generate for the requested options", domain.ErrInvalidInput)
	}
	return s.run(ctx, plan, additionalRequest(opts, it), it)
}

func additionalRequest(opts AdditionalOptions, it domain.Intent) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:           it.Summary,
		IncludeDatabase:  opts.IncludeDatabase,
		DeploymentTarget: opts.DeploymentTarget,
	}
}

// Repair re-generates only the files named in the fatal findings, with the
// findings appended as corrective instructions. Untouched files carry over.
func (s *Synthesizer) Repair(ctx context.Context, req domain.GenerationRequest, it domain.Intent, project *domain.Project, findings []domain.Finding) (*domain.Project, error) {
	return s.repair(ctx, buildPlan(req, it), req, it, project, findings)
}

// RepairAdditional is Repair over the optional module plan, so files that
// only exist there (database.py, the standalone scheduler) get the same
// single repair round as the main generation.
func (s *Synthesizer) RepairAdditional(ctx context.Context, opts AdditionalOptions, it domain.Intent, project *domain.Project, findings []domain.Finding) (*domain.Project, error) {
	return s.repair(ctx, buildAdditionalPlan(opts, it), additionalRequest(opts, it), it, project, findings)
}

func (s *Synthesizer) repair(ctx context.Context, plan []planEntry, req domain.GenerationRequest, it domain.Intent, project *domain.Project, findings []domain.Finding) (*domain.Project, error) {
	logger := logging.NewLogger(ctx)

	byPath := make(map[string][]domain.Finding)
	for _, f := range findings {
		byPath[f.Path] = append(byPath[f.Path], f)
	}

	repaired := domain.NewProject()
	for _, f := range project.Files() {
		repaired.Put(f)
	}

	for _, entry := range plan {
		fs, ok := byPath[entry.path]
		if !ok {
			continue
		}
		logger.LogInfof("repair", "re-generating %s for %d fatal finding(s)", entry.path, len(fs))

		entry.instructions = repairInstructions(entry.instructions, fs)
		content, err := s.generateOne(ctx, entry, req, it)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(content) == "" && entry.mandatory {
			return nil, fmt.Errorf("%w: empty repair content for %s", domain.ErrSynthesis, entry.path)
		}
		repaired.Put(domain.GeneratedFile{Path: entry.path, Content: []byte(content), Role: entry.role})
	}

	return repaired, nil
}

func (s *Synthesizer) run(ctx context.Context, plan []planEntry, req domain.GenerationRequest, it domain.Intent) (*domain.Project, error) {
	logger := logging.NewLogger(ctx)
	logger.LogInfof("synthesize", "generating %d files", len(plan))

	type result struct {
		idx     int
		content string
		err     error
	}

	results := make([]result, len(plan))
	var wg sync.WaitGroup
	for i, entry := range plan {
		wg.Add(1)
		go func(i int, entry planEntry) {
			defer wg.Done()
			content, err := s.generateOne(ctx, entry, req, it)
			results[i] = result{idx: i, content: content, err: err}
		}(i, entry)
	}
	wg.Wait()

	project := domain.NewProject()
	for i, entry := range plan {
		r := results[i]
		if r.err != nil {
			logger.LogError("synthesize", r.err)
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrSynthesis, entry.path, r.err)
		}
		if strings.TrimSpace(r.content) == "" {
			if entry.mandatory {
				return nil, fmt.Errorf("%w: provider returned empty content for %s", domain.ErrSynthesis, entry.path)
			}
			logger.LogWarnf("synthesize", "empty content for optional file %s, skipping", entry.path)
			continue
		}
		project.Put(domain.GeneratedFile{Path: entry.path, Content: []byte(r.content), Role: entry.role})
	}

	// A project without a server source or manifest never reaches packaging.
	if !project.HasRole(domain.RoleServerSource) && mandatoryRole(plan, domain.RoleServerSource) {
		return nil, fmt.Errorf("%w: missing server source", domain.ErrSynthesis)
	}
	if !project.HasRole(domain.RoleManifest) && mandatoryRole(plan, domain.RoleManifest) {
		return nil, fmt.Errorf("%w: missing manifest", domain.ErrSynthesis)
	}

	logger.LogInfof("synthesize", "generated %d files", project.Len())
	return project, nil
}

func (s *Synthesizer) generateOne(ctx context.Context, entry planEntry, req domain.GenerationRequest, it domain.Intent) (string, error) {
	if s.gen == nil || !s.gen.Configured() {
		return staticContent(entry, req, it), nil
	}

	user := fmt.Sprintf("Generate the complete content for the file: %s\n\n%s\n\nReturn ONLY the file content, ready to use.", entry.path, entry.instructions)
	content, err := s.gen.Generate(ctx, provider.Request{System: entry.system, User: user})
	if errors.Is(err, provider.ErrUnavailable) {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return content, err
}

func mandatoryRole(plan []planEntry, role domain.FileRole) bool {
	for _, e := range plan {
		if e.role == role && e.mandatory {
			return true
		}
	}
	return false
}
