package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/generator/store"
	"github.com/mcp-forge/forge-backend/internal/logging"
)

// DownloadHandler serves stored archives for their bounded lifetime.
type DownloadHandler struct {
	store *store.ArtifactStore
}

func NewDownloadHandler(st *store.ArtifactStore) *DownloadHandler {
	return &DownloadHandler{store: st}
}

func (h *DownloadHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/download/:id", h.download)
	r.GET("/download-stats", h.stats)
}

func (h *DownloadHandler) download(c *gin.Context) {
	logger := logging.NewLogger(c.Request.Context())
	id := c.Param("id")

	artifact, err := h.store.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not_found"})
		return
	case errors.Is(err, domain.ErrArtifactExpired):
		c.JSON(http.StatusGone, gin.H{
			"ok":         false,
			"error":      "expired",
			"expired_at": artifact.ExpiresAt,
		})
		return
	case err != nil:
		logger.LogError("download", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal_error"})
		return
	}

	filename := archiveFilename(artifact)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/zip", artifact.Bytes)
}

func (h *DownloadHandler) stats(c *gin.Context) {
	logger := logging.NewLogger(c.Request.Context())

	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		logger.LogError("download_stats", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"stats": stats,
	})
}

// archiveFilename derives a short, filesystem-safe name from the prompt and
// the artifact id prefix.
func archiveFilename(a domain.Artifact) string {
	slug := promptSlug(a.Prompt)
	idPart := a.ID
	if len(idPart) > 8 {
		idPart = idPart[:8]
	}
	if slug == "" {
		return fmt.Sprintf("mcp-server-%s.zip", idPart)
	}
	return fmt.Sprintf("%s-%s.zip", slug, idPart)
}

func promptSlug(prompt string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(prompt) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
