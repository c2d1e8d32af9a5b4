package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/config"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/group"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/pending"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/presence"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/registry"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/router"
	httpx "github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/transport/http"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/transport/ws"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting presence router",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- core services ---
	var regOpts []registry.Option
	if cfg.Router.UniqueRooms {
		regOpts = append(regOpts, registry.WithUniqueIdentities())
	}
	reg := registry.New(regOpts...)
	groups := group.NewManager()
	tracker := presence.NewTracker(reg, groups)
	cache := pending.NewCache()

	// --- WS hub & router ---
	hub := ws.NewHub()
	rt := router.New(reg, groups, tracker, cache, hub)
	wsServer := ws.NewServer(hub, rt, reg, tracker, cache)
	wsServer.SetPingEvery(cfg.PingEvery())

	// --- HTTP ---
	handler := httpx.NewHandler(reg, tracker, cache)
	mux := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- periodic reconciliation ---
	stopReconcile := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.ReconcileEvery())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rt.Reconcile()
			case <-stopReconcile:
				return
			}
		}
	}()

	// --- run ---
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	close(stopReconcile)

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
