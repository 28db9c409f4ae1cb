package extract

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// DefaultChunkSize is the read granularity of the streaming pipeline.
	DefaultChunkSize = 8 * 1024

	defaultGraceWait = 5 * time.Second
	stderrCaptureCap = 16 * 1024
)

// StreamConfig holds the immutable knobs of the streaming pipeline, set once
// at startup.
type StreamConfig struct {
	Binary       string
	AudioQuality string
	ChunkSize    int
	GraceWait    time.Duration
	ExtraArgs    []string
}

func (c StreamConfig) withDefaults() StreamConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.GraceWait <= 0 {
		c.GraceWait = defaultGraceWait
	}
	if c.AudioQuality == "" {
		c.AudioQuality = "192"
	}
	return c
}

// Session owns one transcoding process and its output pipe for the lifetime
// of a single response. Callers must Close it on every exit path; Close is
// idempotent and guarantees the process is gone before returning: graceful
// termination first, force-kill after the grace window.
type Session struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *cappedBuffer
	cancel    context.CancelFunc
	chunkSize int

	forwarded atomic.Int64
	waitOnce  sync.Once
	waitErr   error
}

// StartStream launches the extraction tool in stream mode: best audio-only
// source, transcoded to MP3 on stdout. No file is ever written. The process
// is bound to ctx; consumer disconnects propagate into graceful termination.
func StartStream(ctx context.Context, cfg StreamConfig, url string) (*Session, error) {
	cfg = cfg.withDefaults()

	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", cfg.AudioQuality,
		"-o", "-",
		"--no-playlist",
		"--no-warnings",
		"--quiet",
	}
	args = append(args, cfg.ExtraArgs...)
	args = append(args, url)

	sessCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(sessCtx, cfg.Binary, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = cfg.GraceWait

	stderr := &cappedBuffer{cap: stderrCaptureCap}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, wrapCategory(CategoryUnknown, fmt.Errorf("stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, wrapCategory(CategoryUnknown, fmt.Errorf("start %s: %w", cfg.Binary, err))
	}

	return &Session{
		cmd:       cmd,
		stdout:    stdout,
		stderr:    stderr,
		cancel:    cancel,
		chunkSize: cfg.ChunkSize,
	}, nil
}

// Copy forwards the process output to w in bounded chunks: each chunk is
// read only after the previous one has been written, so the pipeline never
// outruns the consumer and never buffers the whole stream. It returns the
// byte count either on clean completion or on the first error. A nonzero
// exit surfaces as a categorized error translated from the tool's stderr.
func (s *Session) Copy(w io.Writer) (int64, error) {
	buf := make([]byte, s.chunkSize)
	var written int64
	for {
		n, readErr := s.stdout.Read(buf)
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			s.forwarded.Add(int64(wn))
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			if err := s.wait(); err != nil {
				return written, wrapCategory(Translate(s.stderr.String()),
					fmt.Errorf("stream process: %w", err))
			}
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// BytesForwarded reports the total bytes pushed downstream so far.
func (s *Session) BytesForwarded() int64 { return s.forwarded.Load() }

// Close tears the session down: request termination, wait out the grace
// window, force-kill if the process lingers. Safe to call multiple times and
// after Copy has returned.
func (s *Session) Close() error {
	s.cancel()
	err := s.wait()
	if err != nil && s.cmd.ProcessState != nil {
		// An induced exit after cancellation is expected, not a failure.
		return nil
	}
	return err
}

func (s *Session) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

// cappedBuffer retains only the first cap bytes written to it; the leading
// diagnostics are the ones the error translator needs.
type cappedBuffer struct {
	cap int
	buf []byte
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if remaining := b.cap - len(b.buf); remaining > 0 {
		if len(p) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return string(b.buf) }
