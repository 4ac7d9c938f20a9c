package pack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

// metadataPath is the manifest added to every archive.
const metadataPath = "GENERATION_INFO.json"

// zipEpoch is the fixed modification time stamped on every archive entry so
// packaging the same project twice yields byte-identical archives.
var zipEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// generationInfo is the serialized metadata describing one generation.
type generationInfo struct {
	GenerationID      string         `json:"generation_id"`
	Prompt            string         `json:"prompt"`
	Domain            string         `json:"domain"`
	Summary           string         `json:"summary"`
	Confidence        string         `json:"confidence"`
	GeneratedAt       time.Time      `json:"generated_at"`
	DeploymentTarget  string         `json:"deployment_target"`
	Files             []fileManifest `json:"files"`
	SetupInstructions []string       `json:"setup_instructions"`
}

type fileManifest struct {
	Path string `json:"path"`
	Role string `json:"role"`
	Size int    `json:"size"`
}

// Packager turns a validated project into a downloadable zip archive.
type Packager struct{}

func NewPackager() *Packager {
	return &Packager{}
}

// Package writes the project plus its metadata manifest into a zip archive.
// Entries are ordered by path and stamped with a fixed modification time, so
// identical input always produces identical bytes.
func (p *Packager) Package(project *domain.Project, req domain.GenerationRequest, it domain.Intent, generationID string, now time.Time) ([]byte, error) {
	if project == nil || project.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing to package", domain.ErrInvalidInput)
	}

	files := project.Files()
	info := generationInfo{
		GenerationID:      generationID,
		Prompt:            req.Prompt,
		Domain:            it.Domain,
		Summary:           it.Summary,
		Confidence:        string(it.Confidence),
		GeneratedAt:       now.UTC().Truncate(time.Second),
		DeploymentTarget:  string(req.DeploymentTarget),
		SetupInstructions: setupInstructions(req, it),
	}
	for _, f := range files {
		info.Files = append(info.Files, fileManifest{Path: f.Path, Role: string(f.Role), Size: len(f.Content)})
	}

	meta, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal generation info: %w", err)
	}

	entries := make([]domain.GeneratedFile, 0, len(files)+1)
	entries = append(entries, files...)
	entries = append(entries, domain.GeneratedFile{Path: metadataPath, Content: meta, Role: domain.RoleMetadata})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Path,
			Method:   zip.Deflate,
			Modified: zipEpoch,
		})
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", e.Path, err)
		}
		if _, err := w.Write(e.Content); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", e.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

func setupInstructions(req domain.GenerationRequest, it domain.Intent) []string {
	out := []string{
		"Copy .env.example to .env and fill in the listed values",
		"pip install -r requirements.txt",
		"python mcp_server.py",
	}
	if it.RequiresDatabase || req.IncludeDatabase {
		out = append(out, "Provision a database and set DATABASE_URL before starting")
	}
	switch req.DeploymentTarget {
	case domain.TargetRender:
		out = append(out, "Deploy with render.yaml; see DEPLOYMENT.md")
	case domain.TargetVercel:
		out = append(out, "Deploy with vercel.json; see DEPLOYMENT.md")
	}
	return out
}
