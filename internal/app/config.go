package app

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/songlift/songlift/internal/extract"
)

// Config collects everything tunable at startup. Flags take precedence over
// environment variables; both fall back to the defaults baked in here.
type Config struct {
	Addr       string
	Binary     string
	Engine     string // auto, yt-dlp, library
	Strictness string

	MaxDurationSeconds int
	AudioQuality       string
	ChunkSize          int
	StrategiesFile     string

	MaxActiveStreams  int64
	RequestsPerSecond float64
	Burst             int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel string
}

func DefaultConfig() Config {
	return Config{
		Addr:               envOr("SONGLIFT_ADDR", ":8080"),
		Binary:             envOr("SONGLIFT_YTDLP", "yt-dlp"),
		Engine:             envOr("SONGLIFT_ENGINE", "auto"),
		Strictness:         envOr("SONGLIFT_STRICTNESS", "strict"),
		MaxDurationSeconds: envOrInt("SONGLIFT_MAX_DURATION", 3600),
		AudioQuality:       envOr("SONGLIFT_AUDIO_QUALITY", "192"),
		ChunkSize:          envOrInt("SONGLIFT_CHUNK_SIZE", extract.DefaultChunkSize),
		StrategiesFile:     envOr("SONGLIFT_STRATEGIES", ""),
		MaxActiveStreams:   int64(envOrInt("SONGLIFT_MAX_STREAMS", 4)),
		RequestsPerSecond:  10,
		Burst:              20,
		RedisAddr:          envOr("SONGLIFT_REDIS_ADDR", ""),
		RedisPassword:      envOr("SONGLIFT_REDIS_PASSWORD", ""),
		RedisDB:            envOrInt("SONGLIFT_REDIS_DB", 0),
		CacheTTL:           time.Hour,
		LogLevel:           envOr("SONGLIFT_LOG_LEVEL", "info"),
	}
}

// RegisterFlags binds the config to the given flag set. Call flag.Parse
// afterwards; unset flags keep their environment-derived defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fs.StringVar(&c.Binary, "ytdlp", c.Binary, "path to the yt-dlp binary")
	fs.StringVar(&c.Engine, "engine", c.Engine, "extraction engine: auto, yt-dlp, library")
	fs.StringVar(&c.Strictness, "strictness", c.Strictness, "url validation mode: strict, loose")
	fs.IntVar(&c.MaxDurationSeconds, "max-duration", c.MaxDurationSeconds, "maximum video duration in seconds (0 disables the ceiling)")
	fs.StringVar(&c.AudioQuality, "audio-quality", c.AudioQuality, "mp3 bitrate in kbps")
	fs.IntVar(&c.ChunkSize, "chunk-size", c.ChunkSize, "stream chunk size in bytes")
	fs.StringVar(&c.StrategiesFile, "strategies", c.StrategiesFile, "yaml file overriding the extraction strategy ladder")
	fs.Int64Var(&c.MaxActiveStreams, "max-streams", c.MaxActiveStreams, "maximum concurrent audio streams")
	fs.Float64Var(&c.RequestsPerSecond, "rate", c.RequestsPerSecond, "api requests per second")
	fs.IntVar(&c.Burst, "burst", c.Burst, "api request burst size")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "redis address for the metadata cache (empty disables caching)")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "metadata cache entry lifetime")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
}

// Validate rejects values the rest of the stack would silently misbehave on.
func (c *Config) Validate() error {
	if _, ok := extract.ParseStrictness(c.Strictness); !ok {
		return fmt.Errorf("invalid strictness %q (want strict or loose)", c.Strictness)
	}
	switch c.Engine {
	case "auto", "yt-dlp", "library":
	default:
		return fmt.Errorf("invalid engine %q (want auto, yt-dlp, or library)", c.Engine)
	}
	if c.MaxDurationSeconds < 0 {
		return fmt.Errorf("max-duration must not be negative")
	}
	if c.MaxActiveStreams < 1 {
		return fmt.Errorf("max-streams must be at least 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
