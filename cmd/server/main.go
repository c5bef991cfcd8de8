package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/anonto42/nano-midea/socialsync/internal/metrics"
	"github.com/anonto42/nano-midea/socialsync/internal/router"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/anonto42/nano-midea/socialsync/internal/store/firestore"
	"github.com/anonto42/nano-midea/socialsync/internal/store/memstore"
	"github.com/anonto42/nano-midea/socialsync/internal/store/mongostore"
	"github.com/anonto42/nano-midea/socialsync/pkg/config"
	"github.com/anonto42/nano-midea/socialsync/pkg/firebase"
	"github.com/anonto42/nano-midea/socialsync/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()
	if err := config.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase when credentials are available
	var app *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		app, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return err
		}
	}

	s, closeStore, err := openStore(ctx, cfg, db, app)
	if err != nil {
		return err
	}
	defer closeStore()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e)

	deps := router.Dependencies{Config: cfg, Store: s, Postgres: db.Postgres}
	if app != nil {
		deps.Verifier = app.AuthClient
	} else if cfg.AuthMode == config.AuthFirebase {
		return errors.New("AUTH_MODE=firebase requires FIREBASE_CREDENTIALS_PATH")
	}

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, deps); err != nil {
		return err
	}

	metricsServer, err := metrics.NewHTTPServer(":" + cfg.MetricsPort)
	if err != nil {
		return err
	}

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown failed", "error", err)
	}
	return e.Shutdown(shutdownCtx)
}

// openStore builds the document store the configuration selects
func openStore(ctx context.Context, cfg *config.Config, db *config.DB, app *firebase.App) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		if app == nil {
			return nil, nil, errors.New("STORE_BACKEND=firestore requires FIREBASE_CREDENTIALS_PATH")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using firestore document store")
		return firestore.New(client), closeFirestore(client), nil

	case config.BackendMongo:
		s := mongostore.New(db.Mongo.Database(cfg.MongoDatabase))
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		slog.Info("using mongo document store", "database", cfg.MongoDatabase)
		return s, func() {}, nil

	case config.BackendMemory:
		slog.Warn("using in-memory document store, data is lost on restart")
		return memstore.New(), func() {}, nil

	default:
		return nil, nil, errors.New("unknown STORE_BACKEND " + cfg.StoreBackend)
	}
}

func closeFirestore(client *gcfirestore.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			slog.Error("failed to close firestore client", "error", err)
		}
	}
}
