package admin

import (
	"github.com/Leo3030/roadmap-demo/internal/config"
	internalhttp "github.com/Leo3030/roadmap-demo/internal/http"
	"github.com/Leo3030/roadmap-demo/internal/http/api/admin/handlers"
	"github.com/Leo3030/roadmap-demo/internal/roadmap"
	"github.com/Leo3030/roadmap-demo/internal/session"
	"github.com/Leo3030/roadmap-demo/internal/shopify"
	"github.com/Leo3030/roadmap-demo/internal/webui"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the services the embedded admin routes are built from.
type Dependencies struct {
	DB         *gorm.DB
	Config     config.Config
	Sessions   session.Store
	Factory    *shopify.ClientFactory
	Controller *roadmap.Controller
	Checker    roadmap.RoadmapChecker
	History    *roadmap.History
	Pages      webui.Bundle
}

// RegisterAdminRoutes registers the embedded app page, its JSON API and the probes.
func RegisterAdminRoutes(r *gin.Engine, deps Dependencies) {
	if r == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)
	versionHandler := handlers.NewVersionHandler(deps.Config.Shopify.APIVersion)
	r.GET("/version", versionHandler.GetVersion)

	r.StaticFS("/app/assets", deps.Pages.AssetsFS)

	settingsHandler := handlers.NewSettingsHandler(handlers.SettingsHandlerOptions{
		Controller:    deps.Controller,
		Checker:       deps.Checker,
		History:       deps.History,
		Pages:         deps.Pages,
		APIKey:        deps.Config.Shopify.APIKey,
		DefaultLocale: deps.Config.Roadmap.Locale,
		HistoryLimit:  deps.Config.History.Limit,
	})

	app := r.Group("/app")
	app.Use(internalhttp.AdminAuthMiddleware(deps.Sessions, deps.Config.Shopify, deps.Factory, settingsHandler.Bounce))
	app.GET("", settingsHandler.Page)
	app.POST("", settingsHandler.Submit)
	app.GET("/api/settings", settingsHandler.Get)
	app.POST("/api/settings", settingsHandler.Save)
	app.POST("/api/settings/validate", settingsHandler.Validate)
	app.GET("/api/settings/history", settingsHandler.History)
}
