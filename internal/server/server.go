package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/JustJay7/chamber-desk/internal/api"
	"github.com/JustJay7/chamber-desk/internal/auth"
	"github.com/JustJay7/chamber-desk/internal/backup"
	"github.com/JustJay7/chamber-desk/internal/cache"
	"github.com/JustJay7/chamber-desk/internal/config"
	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/internal/documents"
	"github.com/JustJay7/chamber-desk/internal/ecourts"
	"github.com/JustJay7/chamber-desk/internal/practice"
	"github.com/JustJay7/chamber-desk/internal/statutes"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	cfg       *config.Config
	db        *gorm.DB
	logger    *logger.Logger
	router    *gin.Engine
	browser   *ecourts.BrowserClient
	scheduler *backup.Scheduler
}

// New wires the chamber services and routes
func New(cfg *config.Config, db *gorm.DB, logger *logger.Logger) (*Server, error) {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	writer := backup.NewWriter(db, cfg.BackupPath, logger)
	scheduler, err := backup.NewScheduler(writer, cfg.BackupSchedule, logger)
	if err != nil {
		return nil, err
	}

	gate := auth.NewGate(cfg.ChamberID, cfg.AccessKeyHash, cfg.SessionSecret, cfg.SessionTTL)
	if !gate.Enabled() {
		logger.Warn("ACCESS_KEY_HASH not set, login gate disabled")
	}

	var feed *statutes.Feed
	if cfg.StatuteFeedURL != "" {
		feed = statutes.NewFeed(cfg.StatuteFeedURL, nil, cfg.StatuteFeedTimeout)
	}

	captchas := ecourts.NewCaptchaStore(filepath.Join(cfg.DataDir, "captchas"))
	courtLog := logger.With("component", "ecourts")
	browser := ecourts.NewBrowserClient(cfg, captchas, courtLog)
	lookupCache := cache.NewCache[*database.CourtStatus](cfg.CacheSize, cfg.CacheTTL)

	hearings := practice.NewHearings(db, cfg.Location(), logger)
	h := api.NewHandlers(api.Services{
		DB:        db,
		Cases:     practice.NewCases(db, writer, logger),
		Hearings:  hearings,
		Research:  practice.NewResearchLog(db),
		Dashboard: practice.NewDashboard(db, hearings),
		Statutes:  statutes.NewBridge(statutes.Default(), feed, cfg.StatuteFeedTTL, logger),
		Documents: documents.NewStore(db, filepath.Join(cfg.DataDir, "uploads"), cfg.MaxUploadBytes, logger),
		ECourts:   ecourts.NewService(browser, db, lookupCache, cfg.ScraperTimeout, courtLog),
		Captchas:  captchas,
		Gate:      gate,
	}, logger, cfg)

	if err := api.SetupRoutes(router, h); err != nil {
		return nil, err
	}

	return &Server{
		cfg:       cfg,
		db:        db,
		logger:    logger,
		router:    router,
		browser:   browser,
		scheduler: scheduler,
	}, nil
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.ScraperTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Failed to start server", "error", err)
		}
	}()

	s.scheduler.Start()
	s.logger.Info("Server started", "address", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.scheduler.Stop()

	if err := s.browser.Close(); err != nil {
		s.logger.Error("Failed to close browser", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	s.logger.Info("Server exited gracefully")
	return nil
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func loggingMiddleware(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		kv := []interface{}{
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency", latency.String(),
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Error("HTTP Request", kv...)
			return
		}
		logger.Info("HTTP Request", kv...)
	}
}

// corsMiddleware opens the API to bearer-token clients; cookies stay same-site
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
