package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/escapadeapp/escapade/escapade"
	"github.com/escapadeapp/escapade/escapade/database"
	"github.com/escapadeapp/escapade/escapade/logger"
	"github.com/escapadeapp/escapade/escapade/server"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler("Escapade")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Escapade API",
		slog.String("version", version),
		slog.String("commit", commit))

	resetDB := flag.Bool("reset-db", false, "Truncate all application tables on startup")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := escapade.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	if err := db.Ping(ctx); err != nil {
		slog.Error("Database ping failed", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if *resetDB {
		slog.Warn("Resetting application tables...")
		if err := db.ResetAppTables(ctx); err != nil {
			slog.Error("Failed to reset application tables", slog.Any("error", err))
			os.Exit(-1)
		}
	}

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer db.Close()

	app := escapade.New(*cfg, version, commit)
	app.DB = db

	if err := app.Setup(ctx); err != nil {
		slog.Error("Failed to set up services", slog.Any("error", err))
		os.Exit(-1)
	}

	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	app.StartBackground(runCtx)

	srv := server.New(
		server.Config{
			Host:         cfg.Web.Host,
			Port:         cfg.Web.Port,
			AllowOrigins: cfg.Web.AllowOrigins,
		},
		app.Coordinator,
		app.Tracker,
		app.RewardsService,
		app.PassService,
		app.SearchService,
		app.SpacesService,
		app.AdventureRepository,
		app.PhotoRepository,
	)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			slog.String("host", cfg.Web.Host),
			slog.Int("port", cfg.Web.Port))
		errCh <- srv.Listen()
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(-1)
		}
	case sig := <-s:
		slog.Info("Shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", slog.Any("error", err))
	}
	slog.Info("Shutdown complete")
}
