package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apihttp "github.com/mcp-forge/forge-backend/internal/api/http"
	"github.com/mcp-forge/forge-backend/internal/middleware"
)

// BuildRouter assembles the HTTP surface: public health and download routes,
// and the bearer-guarded tool endpoints under /api/v1/tools.
func BuildRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	apihttp.NewHealthHandler(app.Redis, app.DB, app.Cfg.App.Version).RegisterRoutes(r)
	apihttp.NewDownloadHandler(app.Store).RegisterRoutes(r)

	tools := r.Group("/api/v1/tools", middleware.BearerAuth(app.Cfg.Auth.Token))
	apihttp.NewToolsHandler(app.Service, app.Store, app.History, app.Gen,
		app.Cfg.Auth.PhoneNumber, app.Cfg.App.Version).RegisterRoutes(tools)

	return r
}
