package synth

import (
	"fmt"
	"strings"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

// Static template set used when generation is disabled or unavailable. Content
// is minimal but passes the same validation the provider output must pass.

func staticContent(entry planEntry, req domain.GenerationRequest, it domain.Intent) string {
	switch entry.path {
	case "mcp_server.py":
		return staticServer(req, it)
	case "requirements.txt":
		return strings.Join(it.Packages, "\n") + "\n"
	case ".env.example":
		return staticEnvTemplate(it)
	case "README.md":
		return fmt.Sprintf("# %s\n\nGenerated MCP server.\n\n## Setup\n\n1. Copy `.env.example` to `.env` and fill in credentials\n2. `pip install -r requirements.txt`\n3. `python mcp_server.py`\n\n## Deployment\n\nSee DEPLOYMENT.md.\n", it.Summary)
	case "render.yaml":
		return staticRenderConfig(it)
	case "render_start.py":
		return staticRenderStart()
	case "vercel.json":
		return "{\n  \"version\": 2,\n  \"builds\": [{ \"src\": \"mcp_server.py\", \"use\": \"@vercel/python\" }],\n  \"routes\": [{ \"src\": \"/(.*)\", \"dest\": \"mcp_server.py\" }]\n}\n"
	case "DEPLOYMENT.md":
		return fmt.Sprintf("# Deployment\n\nDeploy %q to %s:\n\n1. Push this project to a Git repository\n2. Create a new service on the platform and point it here\n3. Set the environment variables from `.env.example`\n4. Deploy and connect: `/mcp connect https://your-app/mcp/ your_auth_token`\n", it.Summary, req.DeploymentTarget)
	case "scheduler.py":
		return staticScheduler()
	case "database.py":
		return staticDatabase()
	case "USER_DATA_GUIDE.md":
		return "# User Data Guide\n\nTools that store personal data take a `puch_user_id` parameter.\nAll reads and writes are keyed by that identifier so users never see each other's data.\n"
	default:
		return ""
	}
}

func staticServer(req domain.GenerationRequest, it domain.Intent) string {
	tool := "get_items"
	for _, n := range it.ToolNames {
		if n != "validate" {
			tool = n
			break
		}
	}

	var persistence string
	if req.IncludeDatabase || it.RequiresDatabase {
		persistence = `
# --- persistence ---
DATABASE_URL = env_vars.get("DATABASE_URL") or os.environ.get("DATABASE_URL", "sqlite:///data.db")

_store: dict[str, dict] = {}

def _get_user_data(puch_user_id: str) -> dict:
    return _store.setdefault(puch_user_id, {})
`
	}

	return fmt.Sprintf(`"""%s

Generated MCP server.
"""

import asyncio
import os
from typing import Annotated

from dotenv import dotenv_values
from fastmcp import FastMCP
from mcp import ErrorData, McpError
from mcp.types import TextContent, INTERNAL_ERROR
from pydantic import Field

env_vars = dotenv_values(".env")
AUTH_TOKEN = env_vars.get("AUTH_TOKEN") or os.environ.get("AUTH_TOKEN")
MY_NUMBER = env_vars.get("MY_NUMBER") or os.environ.get("MY_NUMBER")
assert AUTH_TOKEN is not None, "Please set AUTH_TOKEN in your .env file"
assert MY_NUMBER is not None, "Please set MY_NUMBER in your .env file"

mcp = FastMCP(%q)
%s

@mcp.tool
async def validate() -> str:
    """Validation tool required by the MCP client."""
    if not MY_NUMBER:
        raise McpError(ErrorData(code=INTERNAL_ERROR, message="MY_NUMBER not configured"))
    return MY_NUMBER


@mcp.tool(description=%q)
async def %s(
    query: Annotated[str, Field(description="What to look up")]
) -> list[TextContent]:
    """Primary tool for this MCP server."""
    try:
        result = f"Results for: {query}"
        return [TextContent(type="text", text=result)]
    except Exception as e:
        raise McpError(ErrorData(code=INTERNAL_ERROR, message=str(e)))


async def main() -> None:
    await mcp.run_async("streamable-http", host="0.0.0.0", port=8086)


if __name__ == "__main__":
    asyncio.run(main())
`, it.Summary, it.Summary, persistence, it.Summary, tool)
}

func staticEnvTemplate(it domain.Intent) string {
	var b strings.Builder
	b.WriteString("# Environment configuration\n")
	for _, v := range it.EnvVars {
		fmt.Fprintf(&b, "%s=\n", v)
	}
	return b.String()
}

func staticRenderConfig(it domain.Intent) string {
	var b strings.Builder
	b.WriteString("services:\n")
	b.WriteString("  - type: web\n")
	b.WriteString("    name: generated-mcp\n")
	b.WriteString("    env: python\n")
	b.WriteString("    buildCommand: pip install -r requirements.txt\n")
	b.WriteString("    startCommand: python render_start.py\n")
	b.WriteString("    envVars:\n")
	for _, v := range it.EnvVars {
		fmt.Fprintf(&b, "      - key: %s\n        sync: false\n", v)
	}
	return b.String()
}

func staticRenderStart() string {
	return `"""Render startup wrapper."""

import os
import subprocess
import sys


def main() -> None:
    port = os.environ.get("PORT", "8086")
    os.environ["PORT"] = port
    sys.exit(subprocess.run([sys.executable, "mcp_server.py"]).returncode)


if __name__ == "__main__":
    main()
`
}

func staticScheduler() string {
	return `"""Background task scheduler."""

import time

import schedule


def run_pending_jobs() -> None:
    while True:
        schedule.run_pending()
        time.sleep(1)


if __name__ == "__main__":
    run_pending_jobs()
`
}

func staticDatabase() string {
	return `"""Database connection and per-user data access."""

import os

from sqlalchemy import create_engine
from sqlalchemy.orm import sessionmaker

DATABASE_URL = os.environ.get("DATABASE_URL", "sqlite:///data.db")

engine = create_engine(DATABASE_URL)
SessionLocal = sessionmaker(bind=engine)


def get_session():
    return SessionLocal()
`
}
