package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	rdb     *redis.Client
	db      *sql.DB
	version string
}

func NewHealthHandler(rdb *redis.Client, db *sql.DB, version string) *HealthHandler {
	return &HealthHandler{rdb: rdb, db: db, version: version}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.health)
	r.GET("/healthz", h.healthz)
}

// healthz is the bare liveness probe.
func (h *HealthHandler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// health reports service status plus per-dependency state. Degraded
// dependencies flip the status but the endpoint itself stays 200 so probes
// can tell "unhealthy" from "unreachable".
func (h *HealthHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	status := "healthy"

	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			deps["redis"] = "down"
			status = "degraded"
		} else {
			deps["redis"] = "up"
		}
	} else {
		deps["redis"] = "disabled"
	}

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			deps["database"] = "down"
			status = "degraded"
		} else {
			deps["database"] = "up"
		}
	} else {
		deps["database"] = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           status == "healthy",
		"status":       status,
		"version":      h.version,
		"dependencies": deps,
	})
}
