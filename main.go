package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/danielhkuo/revote/auth"
	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/db"
	"github.com/danielhkuo/revote/decoy"
	"github.com/danielhkuo/revote/handlers"
	"github.com/danielhkuo/revote/lifecycle"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if cfg.PrintAdminKey {
		fmt.Println(auth.GenerateAdminKey(auth.ElectionsScope, cfg.AdminKeySalt))
		return
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	svc, err := handlers.NewServices(dbConn, cfg)
	if err != nil {
		slog.Error("service setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background workers share the resolver with the HTTP handlers
	var wg sync.WaitGroup
	closer := lifecycle.NewCloser(svc.Store, svc.Engine, cfg.TallyGrace, cfg.LifecycleTick)
	caster := decoy.NewCaster(svc.Store, svc.Resolver, cfg.DecoyMeanInterval, cfg.DecoysPerVoter, cfg.LifecycleTick)
	wg.Add(2)
	go func() {
		defer wg.Done()
		closer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		caster.Run(ctx)
	}()

	// Create server
	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(svc, cfg)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		stop()
	} else {
		slog.Info("Server closed", "error", err)
	}

	wg.Wait()
}
