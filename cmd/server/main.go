package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/home-manager/backend/internal/api"
	"github.com/home-manager/backend/internal/assets"
	"github.com/home-manager/backend/internal/canvas"
	"github.com/home-manager/backend/internal/catalog"
	"github.com/home-manager/backend/internal/config"
	"github.com/home-manager/backend/internal/session"
	"github.com/home-manager/backend/internal/storage"
	"github.com/home-manager/backend/internal/store"
	"github.com/home-manager/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, config.ConfigFileName)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Advanced.LogLevel)
	api.ExposeErrorDetails = logger.GetLevel() <= zerolog.DebugLevel

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create directories")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	db, err := store.Open(ctx, cfg.Storage.DatabaseDriver, cfg.Storage.DatabaseFile, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.DatabaseDriver).Msg("Failed to open database")
	}
	defer db.Close()

	fileStore, err := openFileStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to initialize storage")
	}

	cat := catalog.Default()
	if cfg.Storage.CatalogFile != "" {
		if cat, err = catalog.Load(cfg.Storage.CatalogFile); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Storage.CatalogFile).Msg("Failed to load device catalog")
		}
	}

	maxImageBytes, err := cfg.MaxImageBytes()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid security settings")
	}

	resolver := assets.NewResolver(web.IconFS(), fileStore)

	editors := session.NewManager(db, session.Options{
		MaxSessions: cfg.Editor.MaxSessions,
		Editor: canvas.EditorOptions{
			Limits: canvas.Limits{
				MinZoom:   cfg.Editor.MinZoom,
				MaxZoom:   cfg.Editor.MaxZoom,
				Step:      cfg.Editor.ZoomStep,
				FitMargin: cfg.Editor.FitMargin,
			},
			MinHandleBoxPx: cfg.Editor.MinHandleBoxPx,
			HandleHitPx:    cfg.Editor.HandleHitPx,
		},
		SerializeCommits: cfg.Editor.SerializeCommits,
		CommitTimeout:    time.Duration(cfg.Editor.CommitTimeoutSeconds) * time.Second,
		Resolver:         resolver,
		Logger:           logger,
	})

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Editor.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := editors.CleanupOldSessions(time.Duration(cfg.Editor.SessionTimeoutMinutes) * time.Minute); n > 0 {
					logger.Info().Int("closed", n).Msg("Closed idle editor sessions")
				}
			}
		}
	}()

	h := api.NewHandlers(&api.Dependencies{
		Store:             db,
		Files:             fileStore,
		Catalog:           cat,
		Assets:            resolver,
		Editors:           editors,
		Version:           Version,
		Logger:            logger,
		AllowedImageTypes: cfg.AllowedImageTypes(),
		MaxImageBytes:     maxImageBytes,
		WSMaxMessageBytes: int64(cfg.Advanced.WebSocketMaxMessageSize) * 1024,
	})

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/frame") ||
				path == "/api/health" ||
				path == "/metrics"
		},
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote", v.RemoteIP).
				Msg("Request")
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error().Err(err).Bytes("stack", stack).Str("uri", c.Request().RequestURI).Msg("Recovered from panic")
			return err
		},
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper:      isWebSocket,
		ErrorMessage: "Request timeout",
	}))

	// Compression middleware
	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   cfg.Advanced.CompressionLevel,
			Skipper: isWebSocket,
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		if embeddedMode {
			// In embedded mode, use config settings
			origins := strings.Split(cfg.Server.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
			if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
				origins = []string{"*"}
			}
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: origins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			}))
		} else {
			// Development mode - only allow localhost
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: []string{
					"http://localhost:5173", "http://127.0.0.1:5173",
					"http://localhost:3000", "http://127.0.0.1:3000",
				},
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		}
	}

	api.RegisterRoutes(e, h, api.RouteOptions{AllowDeletion: cfg.Security.AllowDeletion})

	if cfg.Advanced.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg.MustRegister(canvas.MetricsCollectors()...)
		reg.MustRegister(session.MetricsCollectors()...)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn().Err(err).Msg("Failed to register static routes")
		} else {
			logger.Info().Msg("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "Development"
	if embeddedMode {
		mode = "Air-Gapped (Embedded)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Floorplan Manager Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Database:  %-46s║\n", cfg.Storage.DatabaseDriver+" "+cfg.Storage.DatabaseFile)
	fmt.Printf("║  Uploads:   %-46s║\n", uploadsLocation(cfg))
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}
	// Let in-flight position and scale writes reach the database.
	if err := editors.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Editor shutdown incomplete")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().
		Logger()
}

func openFileStore(ctx context.Context, cfg *config.AppConfig) (storage.Store, error) {
	if cfg.Storage.Backend != "s3" {
		return storage.NewLocalStore(cfg.GetUploadDir())
	}
	oc := cfg.ObjectStore
	objects, err := storage.NewObjectStore(storage.ObjectStoreConfig{
		Endpoint:      oc.Endpoint,
		Bucket:        oc.Bucket,
		Prefix:        oc.Prefix,
		Region:        oc.Region,
		AccessKey:     oc.AccessKey,
		SecretKey:     oc.SecretKey,
		AccessKeyFile: oc.AccessKeyFile,
		SecretKeyFile: oc.SecretKeyFile,
	})
	if err != nil {
		return nil, err
	}
	if err := objects.EnsureBucket(ctx, oc.Region); err != nil {
		return nil, err
	}
	return objects, nil
}

func uploadsLocation(cfg *config.AppConfig) string {
	if cfg.Storage.Backend == "s3" {
		return "s3://" + cfg.ObjectStore.Bucket + "/" + cfg.ObjectStore.Prefix
	}
	return cfg.GetUploadDir()
}

func isWebSocket(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}
