// File: hairsby-console/cmd/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hairsby-console/internal/api"
	"hairsby-console/internal/config"
	"hairsby-console/internal/dialog"
	"hairsby-console/internal/domain"
	"hairsby-console/internal/entities"
	"hairsby-console/internal/form"
	"hairsby-console/internal/imaging"
	"hairsby-console/internal/notify"
	"hairsby-console/internal/remote"
	"hairsby-console/internal/session"
	"hairsby-console/internal/store"
)

const (
	defaultAppName = "HairsbyConsole"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Error building logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)
	logger.Info("starting service", zap.String("appEnv", cfg.AppEnv), zap.String("logLevel", cfg.LogLevel))

	// --- Session storage ---
	sessionStore, err := store.NewBoltStore(cfg.Session.Path)
	if err != nil {
		logger.Fatal("failed to open session store", zap.String("path", cfg.Session.Path), zap.Error(err))
	}

	notifier := notify.New(cfg.Notify.FeedSize, logger)
	sess := session.New(sessionStore, notifier, logger)
	if info, err := sess.Hydrate(context.Background()); err != nil {
		logger.Warn("saved session discarded", zap.Error(err))
	} else if info.SignedIn {
		logger.Info("session restored", zap.String("role", string(info.Role)), zap.String("userId", info.UserID))
	}

	// --- Backend client ---
	client, err := remote.New(cfg.Remote.BaseURL, cfg.Remote.Timeout, sess, logger)
	if err != nil {
		logger.Fatal("failed to build backend client", zap.Error(err))
	}

	// --- Dialog engine ---
	validator, err := form.NewValidator()
	if err != nil {
		logger.Fatal("failed to build validator", zap.Error(err))
	}
	compressor, err := imaging.NewCompressor(cfg.Imaging.Options(), logger)
	if err != nil {
		logger.Fatal("failed to build image compressor", zap.Error(err))
	}
	previews := imaging.NewPreviews()
	deps := dialog.Deps{Validator: validator, Compressor: compressor, Previews: previews, Logger: logger}

	httpAPIHandler := api.NewHTTPHandler(api.Deps{
		Session: sess,
		Dialogs: api.Dialogs{
			Bookings: dialog.NewController(entities.Bookings(), client.Bookings(), sess.Provider, deps),
			Products: dialog.NewController(entities.Products(), client.Products(), sess.Provider, deps),
			Services: dialog.NewController(entities.Services(), client.Services(), sess.Provider, deps),
			Orders:   dialog.NewCollection[domain.Order](domain.KindOrder, client.Orders(), logger),
		},
		Wallet:         client,
		Accounts:       client,
		Previews:       previews,
		Validator:      validator,
		Logger:         logger,
		MaxUploadBytes: cfg.Imaging.MaxUploadBytes,
	})

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, sessionStore)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		logger.Info("HTTP server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, sessionStore, shutdownComplete)

	<-shutdownComplete
	logger.Info("service shutdown sequence finished")
}

// newLogger picks the development or production preset from APP_ENV and
// applies LOG_LEVEL on top.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build(zap.Fields(zap.String("service", defaultAppName)))
}

func setupBaseMiddleware(router *chi.Mux, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	// Submissions carry compressed images, so the request budget is generous.
	router.Use(middleware.Timeout(120 * time.Second))
	logger.Debug("base HTTP middleware registered")
}

func registerHealthCheck(router *chi.Mux, logger *zap.Logger, st store.SessionStorer) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		storeStatus := "healthy"
		if err := st.Ping(ctx); err != nil {
			storeStatus = "unhealthy"
			logger.Warn("health check store ping failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "healthy",
			"serviceName":  defaultAppName,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"sessionStore": storeStatus,
		})
	})
	logger.Debug("HTTP health check registered", zap.String("path", healthPath))
}

func waitForShutdown(
	logger *zap.Logger,
	httpServer *http.Server,
	st store.SessionStorer,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Info("received signal, starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	if err := st.Close(); err != nil {
		logger.Warn("error closing session store", zap.Error(err))
	}

	logger.Info("graceful shutdown sequence completed")
}
