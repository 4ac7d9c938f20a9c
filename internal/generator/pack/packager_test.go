package pack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() *domain.Project {
	p := domain.NewProject()
	p.Put(domain.GeneratedFile{Path: "mcp_server.py", Content: []byte("print('server')\n"), Role: domain.RoleServerSource})
	p.Put(domain.GeneratedFile{Path: "requirements.txt", Content: []byte("fastmcp\n"), Role: domain.RoleManifest})
	p.Put(domain.GeneratedFile{Path: "README.md", Content: []byte("# readme\n"), Role: domain.RoleDoc})
	return p
}

func sampleRequest() domain.GenerationRequest {
	return domain.GenerationRequest{Prompt: "weather MCP", DeploymentTarget: domain.TargetRender}
}

func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = content
	}
	return out
}

func TestPackager_Package(t *testing.T) {
	p := NewPackager()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("archive carries every file plus the metadata manifest", func(t *testing.T) {
		data, err := p.Package(sampleProject(), sampleRequest(), domain.Intent{Domain: "weather", Summary: "Weather MCP"}, "gen_1748779200", now)
		require.NoError(t, err)

		files := unzip(t, data)
		assert.Len(t, files, 4)
		assert.Equal(t, "print('server')\n", string(files["mcp_server.py"]))
		assert.Equal(t, "fastmcp\n", string(files["requirements.txt"]))
		require.Contains(t, files, "GENERATION_INFO.json")

		var info map[string]any
		require.NoError(t, json.Unmarshal(files["GENERATION_INFO.json"], &info))
		assert.Equal(t, "gen_1748779200", info["generation_id"])
		assert.Equal(t, "weather MCP", info["prompt"])
		assert.Equal(t, "weather", info["domain"])
		assert.Equal(t, "render", info["deployment_target"])
		assert.NotEmpty(t, info["setup_instructions"])
		assert.Len(t, info["files"], 3, "manifest lists project files, not itself")
	})

	t.Run("identical input yields byte-identical archives", func(t *testing.T) {
		a, err := p.Package(sampleProject(), sampleRequest(), domain.Intent{Domain: "weather"}, "gen_1", now)
		require.NoError(t, err)
		b, err := p.Package(sampleProject(), sampleRequest(), domain.Intent{Domain: "weather"}, "gen_1", now)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("entries are sorted by path", func(t *testing.T) {
		data, err := p.Package(sampleProject(), sampleRequest(), domain.Intent{}, "gen_1", now)
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)

		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.True(t, sort.StringsAreSorted(names), "entry order: %v", names)
	})

	t.Run("entry timestamps do not leak wall clock time", func(t *testing.T) {
		data, err := p.Package(sampleProject(), sampleRequest(), domain.Intent{}, "gen_1", now)
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		for _, f := range zr.File {
			assert.Equal(t, zipEpoch.Year(), f.Modified.UTC().Year(), f.Name)
		}
	})

	t.Run("database projects get a provisioning step", func(t *testing.T) {
		req := sampleRequest()
		req.IncludeDatabase = true
		data, err := p.Package(sampleProject(), req, domain.Intent{}, "gen_1", now)
		require.NoError(t, err)

		files := unzip(t, data)
		assert.Contains(t, string(files["GENERATION_INFO.json"]), "DATABASE_URL")
	})

	t.Run("empty project is rejected", func(t *testing.T) {
		_, err := p.Package(domain.NewProject(), sampleRequest(), domain.Intent{}, "gen_1", now)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = p.Package(nil, sampleRequest(), domain.Intent{}, "gen_1", now)
		assert.Error(t, err)
	})
}
