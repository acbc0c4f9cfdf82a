package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/LoganMeitz/votefinder/internal/server"
	"github.com/LoganMeitz/votefinder/pkg/app"
	"github.com/LoganMeitz/votefinder/pkg/config"
	"github.com/LoganMeitz/votefinder/pkg/middleware"
	"github.com/LoganMeitz/votefinder/pkg/version"

	_ "go.uber.org/automaxprocs"
)

func main() {
	info := version.Get()
	log.Printf("Votefinder %s | build %s | GOMAXPROCS %d", version.String(), info.BuildDate, runtime.GOMAXPROCS(0))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx, err := app.InitializeApp(config.GetServiceName())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	authorizer, err := middleware.NewMongoAuthorizer(appCtx.MongoDB.Client, config.GetMongoDatabase())
	if err != nil {
		log.Fatalf("Failed to initialize authorizer: %v", err)
	}

	srv, err := server.New(appCtx.MongoDB, appCtx.Redis, authorizer)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	if err := srv.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize modules: %v", err)
	}
	srv.StartBackgroundTasks(ctx)

	httpServer := &http.Server{
		Addr:         config.GetHost() + ":" + config.GetPort(),
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting HTTP server", "addr", httpServer.Addr, "api_prefix", config.GetAPIPrefix())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Received shutdown signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced to shut down", "error", err)
	}
	srv.Stop()
	_ = appCtx.Shutdown(shutdownCtx)
	slog.Info("Shutdown completed")
}
