package synth

import (
	"fmt"
	"strings"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

// planEntry is one file the synthesizer must produce.
type planEntry struct {
	path         string
	role         domain.FileRole
	mandatory    bool
	system       string
	instructions string
}

const serverSystem = `You are an expert Python developer specializing in Model Context Protocol (MCP) servers.
Every server you produce must:
- import FastMCP from fastmcp and initialize it with bearer-token auth from AUTH_TOKEN
- read AUTH_TOKEN and MY_NUMBER from the environment and assert both are set
- define an async validate() tool FIRST that returns MY_NUMBER
- define the requested tools with typed parameters and McpError error handling
- include a puch_user_id parameter on tools that touch user-specific data
- finish with an async main() running streamable-http on 0.0.0.0:8086 behind if __name__ == "__main__"
Return ONLY the file content, no explanations.`

const manifestSystem = `You are generating a requirements.txt for a Python MCP server.
Always include fastmcp, python-dotenv, httpx and pydantic plus whatever the tools need.
Return ONLY the file content.`

const docSystem = `You are generating professional documentation for an MCP server.
Use proper markdown with setup, usage and deployment sections.
Return ONLY the file content.`

const deploySystem = `You are generating deployment configuration for hosting an MCP server.
Produce valid, complete configuration for the requested platform.
Return ONLY the file content.`

// buildPlan lists every file for a full generation. The persistence layer is
// requested as extra server-source instructions rather than a separate file so
// the generated imports stay self-contained.
func buildPlan(req domain.GenerationRequest, it domain.Intent) []planEntry {
	plan := []planEntry{
		{
			path:         "mcp_server.py",
			role:         domain.RoleServerSource,
			mandatory:    true,
			system:       serverSystem,
			instructions: serverInstructions(req, it),
		},
		{
			path:         "requirements.txt",
			role:         domain.RoleManifest,
			mandatory:    true,
			system:       manifestSystem,
			instructions: fmt.Sprintf("Dependencies for: %s\nInclude: %s", it.Summary, strings.Join(it.Packages, ", ")),
		},
		{
			path:         ".env.example",
			role:         domain.RoleDoc,
			system:       docSystem,
			instructions: fmt.Sprintf("Environment template listing, with short comments: %s", strings.Join(it.EnvVars, ", ")),
		},
		{
			path:         "README.md",
			role:         domain.RoleDoc,
			system:       docSystem,
			instructions: fmt.Sprintf("README for %q. Cover setup, configuration, running locally and connecting the MCP client.", it.Summary),
		},
	}

	plan = append(plan, deploymentEntries(req.DeploymentTarget, it)...)

	plan = append(plan, planEntry{
		path:         "DEPLOYMENT.md",
		role:         domain.RoleDoc,
		system:       docSystem,
		instructions: fmt.Sprintf("Step-by-step %s deployment guide for %q.", req.DeploymentTarget, it.Summary),
	})

	if it.RequiresScheduling {
		plan = append(plan, planEntry{
			path:   "scheduler.py",
			role:   domain.RoleServerSource,
			system: serverSystem,
			instructions: fmt.Sprintf("Background scheduler module for %q using the schedule package; jobs for: %s.",
				it.Summary, strings.Join(it.DataOperations, ", ")),
		})
	}

	if it.RequiresUserData {
		plan = append(plan, planEntry{
			path:         "USER_DATA_GUIDE.md",
			role:         domain.RoleDoc,
			system:       docSystem,
			instructions: "Guide explaining per-user data separation via the puch_user_id parameter.",
		})
	}

	return plan
}

// AdditionalOptions selects the optional module set for a follow-up generation.
type AdditionalOptions struct {
	DeploymentTarget domain.DeploymentTarget
	IncludeDatabase  bool
	IncludeScheduler bool
}

// buildAdditionalPlan lists only the specialized extras (deployment configs,
// extended docs, optional modules) for an existing generation.
func buildAdditionalPlan(opts AdditionalOptions, it domain.Intent) []planEntry {
	var plan []planEntry

	if deploy := deploymentEntries(opts.DeploymentTarget, it); len(deploy) > 0 {
		plan = append(plan, deploy...)
		plan = append(plan, planEntry{
			path:         "DEPLOYMENT.md",
			role:         domain.RoleDoc,
			system:       docSystem,
			instructions: fmt.Sprintf("Step-by-step %s deployment guide for %q.", opts.DeploymentTarget, it.Summary),
		})
	}

	if opts.IncludeDatabase {
		plan = append(plan, planEntry{
			path:   "database.py",
			role:   domain.RoleServerSource,
			system: serverSystem,
			instructions: "Standalone persistence module: SQLAlchemy engine from DATABASE_URL, " +
				"session helper and per-user data access keyed by puch_user_id.",
		})
	}

	if opts.IncludeScheduler {
		plan = append(plan, planEntry{
			path:         "scheduler.py",
			role:         domain.RoleServerSource,
			system:       serverSystem,
			instructions: "Standalone background scheduler module using the schedule package.",
		})
	}

	if opts.IncludeDatabase || opts.IncludeScheduler {
		plan = append(plan, planEntry{
			path:         "USER_DATA_GUIDE.md",
			role:         domain.RoleDoc,
			system:       docSystem,
			instructions: "Guide explaining per-user data separation via the puch_user_id parameter.",
		})
	}

	return plan
}

func deploymentEntries(target domain.DeploymentTarget, it domain.Intent) []planEntry {
	switch target {
	case domain.TargetRender:
		return []planEntry{
			{
				path:         "render.yaml",
				role:         domain.RoleDeploymentConfig,
				system:       deploySystem,
				instructions: fmt.Sprintf("render.yaml web service for %q: python env, pip install build, python render_start.py start, env vars: %s.", it.Summary, strings.Join(it.EnvVars, ", ")),
			},
			{
				path:         "render_start.py",
				role:         domain.RoleDeploymentConfig,
				system:       serverSystem,
				instructions: "Render startup wrapper that binds the PORT env var and launches mcp_server.py.",
			},
		}
	case domain.TargetVercel:
		return []planEntry{
			{
				path:         "vercel.json",
				role:         domain.RoleDeploymentConfig,
				system:       deploySystem,
				instructions: fmt.Sprintf("vercel.json for a Python serverless deployment of %q.", it.Summary),
			},
		}
	default:
		return nil
	}
}

func serverInstructions(req domain.GenerationRequest, it domain.Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a complete, production-ready MCP server for: %s\n", req.Prompt)
	fmt.Fprintf(&b, "Domain: %s\n", it.Domain)
	fmt.Fprintf(&b, "Tools to expose (validate first): %s\n", strings.Join(it.ToolNames, ", "))
	if len(it.Integrations) > 0 {
		fmt.Fprintf(&b, "External integrations: %s\n", strings.Join(it.Integrations, ", "))
	}
	if len(it.DataOperations) > 0 {
		fmt.Fprintf(&b, "Data operations: %s\n", strings.Join(it.DataOperations, ", "))
	}
	if it.RequiresUserData {
		b.WriteString("Tools that touch stored data take a puch_user_id parameter.\n")
	}
	if req.IncludeDatabase || it.RequiresDatabase {
		// Persistence is merged into the server file, not emitted separately.
		b.WriteString("Include a persistence section in this same file: SQLAlchemy engine from ")
		b.WriteString("DATABASE_URL, table definitions for the tracked data, and session handling ")
		b.WriteString("used directly by the tools.\n")
	}
	return b.String()
}

// repairInstructions appends corrective guidance derived from fatal findings.
func repairInstructions(base string, findings []domain.Finding) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\nThe previous attempt failed validation. Fix ALL of the following:\n")
	for _, f := range findings {
		if f.Line > 0 {
			fmt.Fprintf(&b, "- %s (line %d): %s\n", f.Kind, f.Line, f.Message)
		} else {
			fmt.Fprintf(&b, "- %s: %s\n", f.Kind, f.Message)
		}
	}
	return b.String()
}
