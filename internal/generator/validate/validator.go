package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

// rule inspects one file in the context of the whole project and the intent.
type rule interface {
	Name() string
	Check(f domain.GeneratedFile, it domain.Intent) []domain.Finding
}

// Validator runs the static rule set over a generated project. Fatal findings
// block packaging; warnings and infos ride along in the report.
type Validator struct {
	rules []rule
}

func NewValidator() *Validator {
	return &Validator{rules: []rule{
		pythonSyntaxRule{},
		entrypointRule{},
		forbiddenPatternRule{},
		manifestRule{},
		deploymentConfigRule{},
	}}
}

// Validate produces a report for the project. The same project always yields
// the same report; rules never mutate file content.
func (v *Validator) Validate(project *domain.Project, it domain.Intent) domain.ValidationReport {
	var report domain.ValidationReport
	for _, f := range project.Files() {
		for _, r := range v.rules {
			report.Findings = append(report.Findings, r.Check(f, it)...)
		}
	}

	if !project.HasRole(domain.RoleDoc) {
		report.Findings = append(report.Findings, domain.Finding{
			Path:     "README.md",
			Kind:     "missing_docs",
			Severity: domain.SeverityInfo,
			Message:  "project ships without documentation",
		})
	}

	return report
}

// pythonSyntaxRule runs the bracket/indentation scanner over every .py file.
type pythonSyntaxRule struct{}

func (pythonSyntaxRule) Name() string { return "python_syntax" }

func (pythonSyntaxRule) Check(f domain.GeneratedFile, _ domain.Intent) []domain.Finding {
	if !strings.HasSuffix(f.Path, ".py") {
		return nil
	}
	return scanPython(f.Path, f.Content)
}

// entrypointRule checks the server source for the pieces every generated
// server must carry to be connectable.
type entrypointRule struct{}

func (entrypointRule) Name() string { return "entrypoint" }

var entrypointMarkers = []struct {
	marker  string
	message string
}{
	{"fastmcp", "server does not import fastmcp"},
	{"FastMCP(", "server never initializes FastMCP"},
	{"async def validate(", "required validate tool is missing"},
	{"MY_NUMBER", "validate tool cannot return MY_NUMBER"},
	{"if __name__", "server has no runnable entry point"},
}

func (entrypointRule) Check(f domain.GeneratedFile, _ domain.Intent) []domain.Finding {
	if f.Path != "mcp_server.py" {
		return nil
	}
	src := string(f.Content)

	var out []domain.Finding
	for _, m := range entrypointMarkers {
		if !strings.Contains(src, m.marker) {
			out = append(out, domain.Finding{
				Path:     f.Path,
				Kind:     "missing_entrypoint",
				Severity: domain.SeverityFatal,
				Message:  m.message,
			})
		}
	}
	return out
}

// forbiddenPatternRule rejects shell execution and dynamic evaluation in
// generated code, unless the request is explicitly about automation tooling.
type forbiddenPatternRule struct{}

func (forbiddenPatternRule) Name() string { return "forbidden_patterns" }

var forbiddenPatterns = []string{"os.system(", "shell=True", "eval(", "exec("}

func (forbiddenPatternRule) Check(f domain.GeneratedFile, it domain.Intent) []domain.Finding {
	if !strings.HasSuffix(f.Path, ".py") {
		return nil
	}
	if it.Domain == "automation" || containsString(it.Integrations, "shell") {
		return nil
	}

	var out []domain.Finding
	for i, line := range strings.Split(string(f.Content), "\n") {
		code, _, _ := strings.Cut(line, "#")
		for _, p := range forbiddenPatterns {
			if idx := strings.Index(code, p); idx >= 0 && !insideWord(code, idx) {
				out = append(out, domain.Finding{
					Path:     f.Path,
					Kind:     "forbidden_pattern",
					Severity: domain.SeverityFatal,
					Line:     i + 1,
					Message:  fmt.Sprintf("disallowed call %q", p),
				})
			}
		}
	}
	return out
}

// insideWord reports whether the match at idx is the tail of a longer
// identifier (executor.exec( is not the exec builtin).
func insideWord(s string, idx int) bool {
	if idx == 0 {
		return false
	}
	c := s[idx-1]
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// manifestRule checks requirements.txt lists the runtime the server imports.
type manifestRule struct{}

func (manifestRule) Name() string { return "manifest" }

func (manifestRule) Check(f domain.GeneratedFile, _ domain.Intent) []domain.Finding {
	if f.Role != domain.RoleManifest {
		return nil
	}
	src := strings.ToLower(string(f.Content))

	var out []domain.Finding
	if !strings.Contains(src, "fastmcp") {
		out = append(out, domain.Finding{
			Path:     f.Path,
			Kind:     "manifest",
			Severity: domain.SeverityWarning,
			Message:  "requirements.txt does not pin fastmcp",
		})
	}
	if strings.TrimSpace(src) == "" {
		out = append(out, domain.Finding{
			Path:     f.Path,
			Kind:     "manifest",
			Severity: domain.SeverityWarning,
			Message:  "requirements.txt is empty",
		})
	}
	return out
}

// deploymentConfigRule sanity-checks platform config files.
type deploymentConfigRule struct{}

func (deploymentConfigRule) Name() string { return "deployment_config" }

func (deploymentConfigRule) Check(f domain.GeneratedFile, _ domain.Intent) []domain.Finding {
	switch f.Path {
	case "render.yaml":
		src := string(f.Content)
		var out []domain.Finding
		if !strings.Contains(src, "services:") {
			out = append(out, warn(f.Path, "render.yaml declares no services"))
		}
		if !strings.Contains(src, "startCommand") {
			out = append(out, warn(f.Path, "render.yaml has no startCommand"))
		}
		return out
	case "vercel.json":
		var v any
		if err := json.Unmarshal(f.Content, &v); err != nil {
			return []domain.Finding{warn(f.Path, "vercel.json is not valid JSON")}
		}
		return nil
	default:
		return nil
	}
}

func warn(path, msg string) domain.Finding {
	return domain.Finding{
		Path:     path,
		Kind:     "deployment_config",
		Severity: domain.SeverityWarning,
		Message:  msg,
	}
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if strings.Contains(strings.ToLower(v), s) {
			return true
		}
	}
	return false
}
