package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scenestream/scenestream/pkg/types"
	"github.com/scenestream/scenestream/tail/internal/follower"
)

func main() {
	url := flag.String("url", follower.DefaultURL, "WebSocket endpoint to follow")
	maxBackoff := flag.Duration("max-backoff", follower.DefaultMaxBackoff, "upper bound for the reconnect delay")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("scenetail starting", "url", *url, "max_backoff", *maxBackoff)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f := follower.New(follower.Config{URL: *url, MaxBackoff: *maxBackoff}, logSnapshot)
	f.Run(ctx)

	slog.Info("scenetail stopped")
}

func logSnapshot(s types.Snapshot) {
	if !s.HasObject() {
		slog.Info("frame", "frame", s.Frame, "fps", s.FPS)
		return
	}

	attrs := []any{
		"frame", s.Frame,
		"fps", s.FPS,
		"object", s.ObjectName,
		"type", s.ObjectType,
		"position", *s.Position,
	}
	if s.Quaternion != nil {
		attrs = append(attrs, "quaternion", *s.Quaternion)
	}
	if s.Rotation != nil {
		attrs = append(attrs, "rotation", *s.Rotation)
	}
	if s.FOV != nil {
		attrs = append(attrs, "fov", *s.FOV)
	}
	slog.Info("object", attrs...)
}
