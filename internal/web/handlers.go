package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/songlift/songlift/internal/extract"
)

// handleInfo resolves metadata for a watch URL without starting a stream.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	url, ok := s.requireURL(w, r)
	if !ok {
		return
	}

	meta, err := s.resolver.Resolve(r.Context(), url)
	if err != nil {
		s.writeCategorizedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// handleDownload resolves metadata, then streams MP3 audio straight to the
// client. Response headers are committed on the first audio byte, so failures
// before that point still produce a JSON error body.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	url, ok := s.requireURL(w, r)
	if !ok {
		return
	}

	if !s.streamSem.TryAcquire(1) {
		writeJSONError(w, http.StatusServiceUnavailable, "Server is busy. Please try again later.")
		return
	}
	defer s.streamSem.Release(1)
	s.active.Add(1)
	defer s.active.Add(-1)

	log := s.log.WithFields(logrus.Fields{
		"request_id": requestID(r.Context()),
		"url":        url,
	})

	meta, err := s.resolver.Resolve(r.Context(), url)
	if err != nil {
		log.WithField("category", string(extract.CategoryOf(err))).Warn("resolve failed")
		s.writeCategorizedError(w, r, err)
		return
	}

	filename := extract.SanitizeTitle(meta.Title) + ".mp3"
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", extract.ContentDisposition(filename))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	out := newStreamWriter(w)
	started := time.Now()
	n, err := s.streamer.StreamTo(r.Context(), url, meta, out)
	if err != nil {
		if n == 0 {
			// Nothing committed yet; drop the audio headers and report.
			w.Header().Del("Content-Disposition")
			log.WithField("category", string(extract.CategoryOf(err))).Warn("stream failed to start")
			s.writeCategorizedError(w, r, err)
			return
		}
		// Headers are already on the wire. All we can do is truncate.
		log.WithFields(logrus.Fields{
			"category": string(extract.CategoryOf(err)),
			"bytes":    n,
		}).Warn("stream aborted mid-transfer")
		return
	}

	log.WithFields(logrus.Fields{
		"title":   meta.Title,
		"bytes":   n,
		"elapsed": time.Since(started).Truncate(time.Millisecond).String(),
	}).Info("stream complete")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                  "ok",
		"engine":                  s.cfg.Capabilities.Engine(),
		"impersonation_available": s.cfg.Capabilities.Impersonation,
		"active_streams":          s.active.Load(),
		"uptime":                  time.Since(s.startedAt).Truncate(time.Second).String(),
	})
}

// requireURL extracts and validates the url query parameter, writing the
// error response itself when validation fails.
func (s *Server) requireURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		writeJSONError(w, http.StatusBadRequest, extract.CategoryMissingInput.Message())
		return "", false
	}
	if !extract.ValidateURL(url, s.cfg.Strictness) {
		writeJSONError(w, http.StatusBadRequest, extract.CategoryInvalidURL.Message())
		return "", false
	}
	return url, true
}

func (s *Server) writeCategorizedError(w http.ResponseWriter, r *http.Request, err error) {
	// Client went away; no response will land.
	if r.Context().Err() != nil {
		return
	}
	cat := extract.CategoryOf(err)
	writeJSONError(w, statusForCategory(cat), cat.Message())
}

// statusForCategory maps failure categories onto HTTP statuses. Anything the
// caller could fix (bad URL, unavailable video, too long) is a 400; only
// failures on our side surface as 500.
func statusForCategory(cat extract.Category) int {
	switch cat {
	case extract.CategoryUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// streamWriter flushes after every chunk so audio reaches the client as it
// is produced rather than sitting in the response buffer.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: flusher}
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	n, err := sw.w.Write(p)
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return n, err
}
