package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/generator/history"
	"github.com/mcp-forge/forge-backend/internal/generator/prompt"
	"github.com/mcp-forge/forge-backend/internal/generator/service"
	"github.com/mcp-forge/forge-backend/internal/generator/store"
	"github.com/mcp-forge/forge-backend/internal/generator/synth"
	"github.com/mcp-forge/forge-backend/internal/logging"
	"github.com/mcp-forge/forge-backend/internal/provider"
)

// ToolsHandler exposes the authenticated tool endpoints the MCP client calls.
type ToolsHandler struct {
	svc       *service.Service
	store     *store.ArtifactStore
	history   *history.Repo
	gen       provider.TextGenerator
	phone     string
	version   string
	startedAt time.Time
}

func NewToolsHandler(svc *service.Service, st *store.ArtifactStore, hist *history.Repo, gen provider.TextGenerator, phone, version string) *ToolsHandler {
	return &ToolsHandler{
		svc:       svc,
		store:     st,
		history:   hist,
		gen:       gen,
		phone:     phone,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *ToolsHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/validate", h.validate)
	r.POST("/generate_mcp", h.generateMCP)
	r.POST("/generate_additional_files", h.generateAdditional)
	r.GET("/get_mcp_examples", h.examples)
	r.GET("/system_status", h.systemStatus)
}

// validate is the ownership check: it returns the owner's number so the MCP
// client can pair the bearer token with an account.
func (h *ToolsHandler) validate(c *gin.Context) {
	if h.phone == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "owner number not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": h.phone})
}

type generateRequest struct {
	Prompt           string `json:"prompt"`
	IncludeDatabase  bool   `json:"include_database"`
	DeploymentTarget string `json:"deployment_target"`
}

func (h *ToolsHandler) generateMCP(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input", "detail": err.Error()})
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), req.Prompt, prompt.Options{
		IncludeDatabase:  req.IncludeDatabase,
		DeploymentTarget: req.DeploymentTarget,
	})
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": res})
}

type additionalRequest struct {
	Prompt           string `json:"prompt"`
	DeploymentTarget string `json:"deployment_target"`
	IncludeDatabase  bool   `json:"include_database"`
	IncludeScheduler bool   `json:"include_scheduler"`
}

func (h *ToolsHandler) generateAdditional(c *gin.Context) {
	var req additionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input", "detail": err.Error()})
		return
	}

	res, err := h.svc.GenerateAdditional(c.Request.Context(), req.Prompt, synth.AdditionalOptions{
		DeploymentTarget: domain.DeploymentTarget(req.DeploymentTarget),
		IncludeDatabase:  req.IncludeDatabase,
		IncludeScheduler: req.IncludeScheduler,
	})
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": res})
}

var mcpExamples = []gin.H{
	{
		"title":  "Weather alerts",
		"prompt": "Weather forecasting MCP with SMS alerts for severe conditions",
	},
	{
		"title":  "Crypto portfolio",
		"prompt": "Crypto portfolio tracker that stores my holdings and reports daily gains",
	},
	{
		"title":  "Task manager",
		"prompt": "Personal task manager with due-date reminders and priorities",
	},
	{
		"title":  "Flight search",
		"prompt": "Flight search MCP comparing prices across airlines for a route and date",
	},
	{
		"title":  "QR codes",
		"prompt": "QR code generator for URLs and contact cards",
	},
	{
		"title":  "Expense log",
		"prompt": "Expense tracking MCP that stores purchases in a database and summarizes spending by category",
	},
}

func (h *ToolsHandler) examples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "examples": mcpExamples})
}

// systemStatus reports configuration and dependency health. Dependency
// outages degrade the report instead of failing it.
func (h *ToolsHandler) systemStatus(c *gin.Context) {
	logger := logging.NewLogger(c.Request.Context())

	status := gin.H{
		"ok":                  true,
		"version":             h.version,
		"uptime_seconds":      int64(time.Since(h.startedAt).Seconds()),
		"provider_configured": h.gen != nil && h.gen.Configured(),
		"history_enabled":     h.history.Enabled(),
		"storage_ok":          true,
	}

	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		logger.LogWarnf("system_status", "artifact stats unavailable: %v", err)
		status["storage_ok"] = false
	} else {
		status["artifacts"] = stats
	}

	if h.history.Enabled() {
		recent, err := h.history.Recent(c.Request.Context(), 5)
		if err != nil {
			logger.LogWarnf("system_status", "history lookup failed: %v", err)
		} else {
			status["recent_generations"] = recent
		}
	}

	c.JSON(http.StatusOK, status)
}

// respondPipelineError maps pipeline failures onto the public error contract.
func respondPipelineError(c *gin.Context, err error) {
	logger := logging.NewLogger(c.Request.Context())

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input", "detail": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"ok":       false,
			"error":    "validation_failed",
			"findings": verr.Findings,
		})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "validation_failed"})
	case errors.Is(err, domain.ErrSynthesis), errors.Is(err, domain.ErrProviderUnavailable):
		logger.LogError("generate", err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "synthesis_failed"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"ok": false, "error": "timeout"})
	default:
		logger.LogError("generate", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal_error"})
	}
}
