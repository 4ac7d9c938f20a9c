package domain

import "time"

// DeploymentTarget is the platform the generated project ships with configs for.
type DeploymentTarget string

const (
	TargetRender DeploymentTarget = "render"
	TargetVercel DeploymentTarget = "vercel"
	TargetCustom DeploymentTarget = "custom"
)

// GenerationRequest is the accepted, normalized user request. Immutable once built.
type GenerationRequest struct {
	Prompt           string           `json:"prompt"`
	IncludeDatabase  bool             `json:"include_database"`
	DeploymentTarget DeploymentTarget `json:"deployment_target"`
}

// Confidence says whether an Intent came from the provider or the keyword fallback.
type Confidence string

const (
	ConfidenceDerived   Confidence = "derived"
	ConfidenceHeuristic Confidence = "heuristic"
)

// Intent is the structured interpretation of a prompt. Produced by the analyzer,
// read-only downstream.
type Intent struct {
	Domain             string     `json:"domain"`
	Summary            string     `json:"summary"`
	Integrations       []string   `json:"integrations"`
	ToolNames          []string   `json:"tool_names"`
	Confidence         Confidence `json:"confidence"`
	RequiresDatabase   bool       `json:"requires_database"`
	RequiresUserData   bool       `json:"requires_user_data"`
	RequiresScheduling bool       `json:"requires_scheduling"`
	RequiresAuth       bool       `json:"requires_auth"`
	DataOperations     []string   `json:"data_operations"`
	EnvVars            []string   `json:"env_vars"`
	Packages           []string   `json:"packages"`
}

// FileRole classifies a generated file within a project.
type FileRole string

const (
	RoleServerSource     FileRole = "server-source"
	RoleManifest         FileRole = "manifest"
	RoleDeploymentConfig FileRole = "deployment-config"
	RoleDoc              FileRole = "doc"
	RoleMetadata         FileRole = "metadata"
)

// GeneratedFile is one file of a generated project. Path is unique within a Project.
type GeneratedFile struct {
	Path    string   `json:"path"`
	Content []byte   `json:"-"`
	Role    FileRole `json:"role"`
}

// Project is the ordered set of generated files for one request, keyed by path.
type Project struct {
	files []GeneratedFile
	index map[string]int
}

func NewProject() *Project {
	return &Project{index: make(map[string]int)}
}

// Put adds or replaces a file, preserving insertion order for new paths.
func (p *Project) Put(f GeneratedFile) {
	if i, ok := p.index[f.Path]; ok {
		p.files[i] = f
		return
	}
	p.index[f.Path] = len(p.files)
	p.files = append(p.files, f)
}

// Get returns the file at path, if present.
func (p *Project) Get(path string) (GeneratedFile, bool) {
	i, ok := p.index[path]
	if !ok {
		return GeneratedFile{}, false
	}
	return p.files[i], true
}

// Files returns the files in insertion order.
func (p *Project) Files() []GeneratedFile {
	out := make([]GeneratedFile, len(p.files))
	copy(out, p.files)
	return out
}

// Len returns the number of files.
func (p *Project) Len() int {
	return len(p.files)
}

// HasRole reports whether any file carries the given role.
func (p *Project) HasRole(role FileRole) bool {
	for _, f := range p.files {
		if f.Role == role {
			return true
		}
	}
	return false
}

// Severity grades a validation finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
)

// Finding is one validation issue in one file.
type Finding struct {
	Path     string   `json:"path"`
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// ValidationReport collects the findings for a project.
type ValidationReport struct {
	Findings []Finding `json:"findings"`
}

// Fatal returns the fatal findings, if any.
func (r ValidationReport) Fatal() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityFatal {
			out = append(out, f)
		}
	}
	return out
}

// HasFatal reports whether any finding blocks packaging.
func (r ValidationReport) HasFatal() bool {
	return len(r.Fatal()) > 0
}

// ArtifactStatus is the lifecycle state of a stored archive.
type ArtifactStatus string

const (
	ArtifactActive  ArtifactStatus = "active"
	ArtifactExpired ArtifactStatus = "expired"
	ArtifactPurged  ArtifactStatus = "purged"
)

// Artifact is a packaged, downloadable archive. Bytes are held by the store
// (or its blob backend) and are not part of the serialized record.
type Artifact struct {
	ID           string         `json:"id"`
	GenerationID string         `json:"generation_id"`
	Prompt       string         `json:"prompt"`
	FileCount    int            `json:"file_count"`
	Size         int64          `json:"size"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Status       ArtifactStatus `json:"status"`

	Bytes []byte `json:"-"`
}

// DownloadHandle points a caller at a stored artifact for the artifact's lifetime.
type DownloadHandle struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
