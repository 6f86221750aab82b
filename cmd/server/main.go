package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"coursecraft/internal/auth"
	"coursecraft/internal/config"
	"coursecraft/internal/coursesapi"
	"coursecraft/internal/domain/repositories"
	"coursecraft/internal/handler"
	"coursecraft/internal/httputil"
	"coursecraft/internal/mediatypes"
	"coursecraft/internal/middleware"
	"coursecraft/internal/repository/postgres"
	"coursecraft/internal/service/editor"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Log to stdout, and to a rotating file when LOG_DIR is set
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer f.Close()
		logOut = io.MultiWriter(os.Stdout, f)
	}
	logger := config.NewLogger(cfg, logOut)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"course_api", cfg.CourseAPIURL,
	)

	ctx := context.Background()

	// Drafts are optional: without a database, unsaved edits die with the session
	var drafts repositories.DraftRepository
	if cfg.DraftsEnabled() {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		drafts = postgres.NewDraftRepository(&postgres.RepositoryConfig{
			DB:     pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		logger.Info("drafts database connected")
	} else {
		logger.Warn("DATABASE_URL not set: editor drafts disabled")
	}

	formats, err := mediatypes.Default()
	if err != nil {
		log.Fatalf("Failed to load video formats: %v", err)
	}

	// Every Course API call carries the calling author's own token
	api := coursesapi.NewClient(cfg.CourseAPIURL, cfg.CourseAPITimeout,
		coursesapi.WithTokenSource(httputil.AccessToken),
		coursesapi.WithLogger(logger),
	)

	manager := editor.NewManager(api, drafts, strings.TrimSuffix(handler.PreviewPrefix, "/"), logger)
	editorHandler := handler.NewEditorHandler(manager, formats, cfg.SpoolDir, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, editorHandler)

	// Build middleware chain
	var h http.Handler = mux

	// Order: CORS → Recovery → Auth → Routes
	switch {
	case cfg.AuthJWKSURL != "":
		jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.Auth(jwtVerifier, logger, "/health", handler.PreviewPrefix)(h)
	case cfg.Environment == "prod":
		log.Fatal("AUTH_JWKS_URL is required in prod")
	default:
		h = middleware.DevAuth(cfg.DevUserID)(h)
		logger.Warn("DEV MODE: authentication disabled", "user_id", cfg.DevUserID)
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
		ExposedHeaders:   []string{"Content-Range", "Accept-Ranges"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       0, // Disabled: video uploads can take minutes
		WriteTimeout:      0, // Disabled: previews stream whole videos
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	// Keep unsaved work as drafts
	manager.CloseAll(shutdownCtx)
	logger.Info("server stopped", "open_sessions", manager.Count())
}
