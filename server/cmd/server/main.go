package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"

	"github.com/scenestream/scenestream/server/internal/api"
	"github.com/scenestream/scenestream/server/internal/auth"
	"github.com/scenestream/scenestream/server/internal/config"
	"github.com/scenestream/scenestream/server/internal/metrics"
	"github.com/scenestream/scenestream/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("scenestream-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	level, closeLog := setupLogging(cfg.Log)
	defer closeLog()

	slog.Info("config loaded",
		"addr", cfg.Server.Addr(),
		"http_addr", cfg.Server.HTTPAddr(),
		"autostart", cfg.Server.Autostart,
		"auth_mode", cfg.Server.Auth.Mode,
		"fps", cfg.Scene.FPS,
		"objects", len(cfg.Scene.Objects),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sc, err := buildScene(cfg.Scene)
	if err != nil {
		slog.Error("failed to build scene", "err", err)
		os.Exit(1)
	}

	collector := metrics.New()
	srv := ws.New(ws.Config{
		Addr:                cfg.Server.Addr(),
		PollInterval:        cfg.Server.PollInterval,
		WriteTimeout:        cfg.Server.WriteTimeout,
		HandshakeTimeout:    cfg.Server.HandshakeTimeout,
		HandshakeBufferSize: cfg.Server.HandshakeBuffer,
	}, sc, ws.WithObserver(collector))

	if cfg.Server.Autostart {
		if err := srv.Start(); err != nil {
			slog.Error("failed to start websocket server", "addr", cfg.Server.Addr(), "err", err)
			os.Exit(1)
		}
	}

	// Hot reload: fps retunes the broadcast period on the next tick.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			applyReload(updated, sc, level)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	var httpSrv *http.Server
	if addr := cfg.Server.HTTPAddr(); addr != "" {
		apiHandler := auth.APIKey(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
		)(api.New(srv, sc))

		httpMux := http.NewServeMux()
		httpMux.Handle("/api/", apiHandler)
		httpMux.Handle("/metrics", collector)

		c := cors.New(cors.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", cfg.Server.Auth.EffectiveHeader()},
		})

		httpSrv = &http.Server{
			Addr:    addr,
			Handler: c.Handler(httpMux),
		}
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("scenestream-server shutting down")

	if err := srv.Stop(); err != nil && !errors.Is(err, ws.ErrNotRunning) {
		slog.Error("websocket server stop failed", "err", err)
	}
	if httpSrv != nil {
		httpSrv.Shutdown(context.Background()) //nolint:errcheck
	}
}
