// Package app assembles the service: capability detection, engine selection,
// the metadata cache, and the HTTP server.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/songlift/songlift/internal/cache"
	"github.com/songlift/songlift/internal/extract"
	"github.com/songlift/songlift/internal/web"
)

// Run wires the configured components together and serves until ctx is
// cancelled.
func Run(ctx context.Context, cfg Config, log *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	strictness, _ := extract.ParseStrictness(cfg.Strictness)

	caps := extract.DetectCapabilities(ctx, cfg.Binary)
	resolver, streamer, err := buildEngine(cfg, caps, log)
	if err != nil {
		return err
	}

	store := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, log)
	defer store.Close()

	server := web.NewServer(
		cache.NewCachingResolver(resolver, store),
		streamer,
		web.Config{
			Strictness:        strictness,
			Capabilities:      caps,
			MaxActiveStreams:  cfg.MaxActiveStreams,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		},
		log,
	)
	return server.ListenAndServe(ctx, cfg.Addr)
}

// buildEngine picks the extraction backend. The tool engine is preferred;
// the in-process library engine covers hosts without yt-dlp installed.
func buildEngine(cfg Config, caps extract.Capabilities, log *logrus.Logger) (web.MetadataResolver, web.AudioStreamer, error) {
	useTool := caps.YTDLP
	switch cfg.Engine {
	case "yt-dlp":
		if !caps.YTDLP {
			return nil, nil, fmt.Errorf("engine yt-dlp requested but %s is not installed", cfg.Binary)
		}
		useTool = true
	case "library":
		useTool = false
	}

	if !useTool {
		if !caps.FFmpeg {
			log.Warn("ffmpeg not found, library engine transcoding will fail")
		}
		engine := extract.NewLibraryEngine(cfg.MaxDurationSeconds, cfg.AudioQuality)
		return engine, engine, nil
	}

	strategies := extract.DefaultStrategies(caps.Impersonation)
	if cfg.StrategiesFile != "" {
		loaded, err := extract.LoadStrategies(cfg.StrategiesFile)
		if err != nil {
			return nil, nil, err
		}
		strategies = loaded
	}

	streamCfg := extract.StreamConfig{
		Binary:       cfg.Binary,
		AudioQuality: cfg.AudioQuality,
		ChunkSize:    cfg.ChunkSize,
	}
	if caps.Impersonation {
		streamCfg.ExtraArgs = []string{"--impersonate", "chrome"}
	}

	engine := extract.NewToolEngine(
		extract.NewResolver(cfg.Binary, strategies, cfg.MaxDurationSeconds),
		streamCfg,
	)
	return engine, engine, nil
}
