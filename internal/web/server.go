package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/songlift/songlift/internal/extract"
)

//go:embed assets/*
var embeddedAssets embed.FS

// MetadataResolver yields track metadata for a validated watch URL.
type MetadataResolver interface {
	Resolve(ctx context.Context, url string) (*extract.Metadata, error)
}

// AudioStreamer writes MP3 audio for url to w, reporting bytes forwarded.
// Implementations must stop promptly when ctx is cancelled.
type AudioStreamer interface {
	StreamTo(ctx context.Context, url string, meta *extract.Metadata, w io.Writer) (int64, error)
}

type Config struct {
	Strictness        extract.Strictness
	Capabilities      extract.Capabilities
	MaxActiveStreams  int64
	RequestsPerSecond float64
	Burst             int
}

func (c Config) withDefaults() Config {
	if c.MaxActiveStreams <= 0 {
		c.MaxActiveStreams = 4
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst <= 0 {
		c.Burst = 20
	}
	return c
}

type Server struct {
	resolver MetadataResolver
	streamer AudioStreamer
	cfg      Config
	log      *logrus.Logger

	limiter   *rate.Limiter
	streamSem *semaphore.Weighted
	active    atomic.Int64
	startedAt time.Time
}

func NewServer(resolver MetadataResolver, streamer AudioStreamer, cfg Config, log *logrus.Logger) *Server {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		resolver:  resolver,
		streamer:  streamer,
		cfg:       cfg,
		log:       log,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		streamSem: semaphore.NewWeighted(cfg.MaxActiveStreams),
		startedAt: time.Now(),
	}
}

// Routes wires the API surface plus the embedded single-page frontend.
func (s *Server) Routes() http.Handler {
	assets, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic(err)
	}
	fileServer := http.FileServer(http.FS(assets))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/info", s.handleInfo)
	mux.HandleFunc("/api/download", s.handleDownload)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/" {
			serveIndex(w, assets)
			return
		}
		if fileExists(assets, strings.TrimPrefix(r.URL.Path, "/")) {
			fileServer.ServeHTTP(w, r)
			return
		}
		serveIndex(w, assets)
	})

	return s.withRequestID(s.withRateLimit(withSecurityHeaders(mux)))
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then drains
// in-flight requests with a bounded shutdown window. The long write timeout
// accommodates full-length audio streams on slow clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.log.WithField("addr", addr).Info("listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func serveIndex(w http.ResponseWriter, assets fs.FS) {
	data, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		http.Error(w, "missing index", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func fileExists(assets fs.FS, name string) bool {
	if name == "" {
		return false
	}
	f, err := assets.Open(name)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func withSecurityHeaders(next http.Handler) http.Handler {
	const cspValue = "default-src 'self'; base-uri 'self'; frame-ancestors 'none'; object-src 'none'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; connect-src 'self'; media-src 'self'"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", cspValue)
		next.ServeHTTP(w, r)
	})
}
