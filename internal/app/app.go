package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/config"
	"github.com/Leo3030/roadmap-demo/internal/db"
	"github.com/Leo3030/roadmap-demo/internal/http/api/admin"
	"github.com/Leo3030/roadmap-demo/internal/logging"
	"github.com/Leo3030/roadmap-demo/internal/roadmap"
	"github.com/Leo3030/roadmap-demo/internal/session"
	"github.com/Leo3030/roadmap-demo/internal/settings"
	"github.com/Leo3030/roadmap-demo/internal/shopify"
	"github.com/Leo3030/roadmap-demo/internal/webui"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	settingsRefreshInterval = 30 * time.Second
	shutdownTimeout         = 10 * time.Second
	readHeaderTimeout       = 10 * time.Second
)

// LoadConfig resolves the config path and loads it.
func LoadConfig(cfg config.AppConfig) (config.Config, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	if !config.ConfigExists(configPath) {
		log.Debugf("config %s not found, using defaults and environment", configPath)
	}
	return config.Load(configPath)
}

// openDatabase opens and migrates the configured database.
func openDatabase(cfg config.Config) (*gorm.DB, error) {
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	return conn, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	loaded, err := LoadConfig(cfg)
	if err != nil {
		return err
	}
	conn, err := db.Open(loaded.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	log.Infof("migrated %s database", db.DialectName(conn))
	return nil
}

// EngineDeps are the services NewEngine wires into routes.
type EngineDeps struct {
	Config   config.Config
	DB       *gorm.DB
	Sessions session.Store
	Pages    webui.Bundle
	Factory  *shopify.ClientFactory // Optional; built from Config when nil.
}

// NewEngine builds the gin engine serving the embedded app.
func NewEngine(deps EngineDeps) *gin.Engine {
	cfg := deps.Config
	engine := gin.New()
	engine.Use(logging.GinLogger(), gin.Recovery())

	factory := deps.Factory
	if factory == nil {
		factory = shopify.NewClientFactory(cfg.Shopify.APIVersion, cfg.Roadmap.HTTPTimeout)
	}
	history := roadmap.NewHistory(deps.DB)
	var recorder roadmap.Recorder
	if history != nil {
		recorder = history
	}

	admin.RegisterAdminRoutes(engine, admin.Dependencies{
		DB:         deps.DB,
		Config:     cfg,
		Sessions:   deps.Sessions,
		Factory:    factory,
		Controller: roadmap.NewController(roadmap.DefaultsFromConfig(cfg.Roadmap), recorder),
		Checker:    roadmap.NewChecker(cfg.Roadmap),
		History:    history,
		Pages:      deps.Pages,
	})
	return engine
}

// RunServer boots the embedded app server and its background workers.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	loaded, err := LoadConfig(cfg)
	if err != nil {
		return err
	}
	logCloser, errLogging := logging.Setup(loaded.Logging)
	if errLogging != nil {
		return errLogging
	}
	if logCloser != nil {
		defer closeQuietly(logCloser)
	}
	if errCreds := loaded.RequireShopifyCredentials(); errCreds != nil {
		return errCreds
	}

	pages, errPages := webui.Load()
	if errPages != nil {
		return errPages
	}
	conn, err := openDatabase(loaded)
	if err != nil {
		return err
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings: %w", errRefresh)
	}

	sessions, err := session.NewStore(loaded, conn)
	if err != nil {
		return err
	}
	if closer, ok := sessions.(io.Closer); ok {
		defer closeQuietly(closer)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := NewEngine(EngineDeps{Config: loaded, DB: conn, Sessions: sessions, Pages: pages})
	server := &http.Server{
		Addr:              loaded.Server.Address(),
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Infof("listening on %s (session backend=%s)", server.Addr, loaded.Session.Backend)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return settings.NewRefresher(conn, settingsRefreshInterval).Run(groupCtx)
	})
	if cleaner := roadmap.NewRetentionCleaner(conn, loaded.History.RetentionDays); cleaner != nil {
		group.Go(func() error {
			return cleaner.Run(groupCtx)
		})
	}

	errWait := group.Wait()
	log.Info("server stopped")
	return errWait
}

func closeQuietly(c io.Closer) {
	if errClose := c.Close(); errClose != nil {
		log.WithError(errClose).Warn("close failed")
	}
}
