package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/scenestream/scenestream/server/internal/config"
	"github.com/scenestream/scenestream/server/internal/scene"
)

// setupLogging installs the default JSON logger. The returned LevelVar lets a
// config reload change the level; the func closes the log file, if any.
func setupLogging(cfg config.LogConfig) (*slog.LevelVar, func()) {
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		out = lj
		closeFn = func() { lj.Close() } //nolint:errcheck
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))
	return level, closeFn
}

// buildScene creates the scene from its config section.
func buildScene(cfg config.SceneConfig) (*scene.Scene, error) {
	sc := scene.New(scene.Settings{
		FPS:         cfg.FPS,
		Frame:       cfg.Frame,
		ResolutionX: cfg.ResolutionX,
		ResolutionY: cfg.ResolutionY,
	})

	for _, oc := range cfg.Objects {
		o := scene.Object{
			Name:     oc.Name,
			Type:     oc.Type,
			Rotation: [4]float64{1, 0, 0, 0},
		}
		copy(o.Location[:], oc.Location)
		if len(oc.Rotation) == 4 {
			copy(o.Rotation[:], oc.Rotation)
		}
		if oc.Camera != nil {
			o.Camera = &scene.Camera{
				Projection: oc.Camera.Projection,
				Angle:      oc.Camera.Angle,
				SensorFit:  oc.Camera.SensorFit,
			}
		}
		if err := sc.Upsert(o); err != nil {
			return nil, fmt.Errorf("scene object %q: %w", oc.Name, err)
		}
	}

	if err := sc.Select(cfg.Selected); err != nil {
		return nil, err
	}
	return sc, nil
}

// applyReload applies the hot-reloadable settings: fps and log level.
// Listener, object and auth changes need a restart.
func applyReload(cfg *config.Config, sc *scene.Scene, level *slog.LevelVar) {
	if err := sc.SetFPS(cfg.Scene.FPS); err != nil {
		slog.Warn("config reload: fps not applied", "err", err)
	}
	if err := sc.SetResolution(cfg.Scene.ResolutionX, cfg.Scene.ResolutionY); err != nil {
		slog.Warn("config reload: resolution not applied", "err", err)
	}
	level.Set(cfg.Log.SlogLevel())
	slog.Info("config hot-reloaded", "fps", cfg.Scene.FPS, "log_level", cfg.Log.Level)
}
