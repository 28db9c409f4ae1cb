package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeStubTool drops an executable shell script that stands in for the
// extraction tool. The scripts ignore the argument list.
func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tool scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "stubtool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub tool: %v", err)
	}
	return path
}

func TestSessionCopiesAllOutput(t *testing.T) {
	payload := strings.Repeat("abcdefgh", 4096) // 32 KiB, several chunks
	tool := writeStubTool(t, "printf '"+payload+"'\n")

	session, err := StartStream(context.Background(), StreamConfig{Binary: tool}, "https://youtu.be/x")
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	defer session.Close()

	var buf bytes.Buffer
	n, err := session.Copy(&buf)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("copied %d bytes, want %d", n, len(payload))
	}
	if buf.String() != payload {
		t.Fatalf("payload corrupted in transit")
	}
	if session.BytesForwarded() != int64(len(payload)) {
		t.Fatalf("byte bookkeeping off: %d", session.BytesForwarded())
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close after clean completion: %v", err)
	}
}

func TestSessionTranslatesMidStreamFailure(t *testing.T) {
	tool := writeStubTool(t, "printf partial\necho 'ERROR: Private video' >&2\nexit 1\n")

	session, err := StartStream(context.Background(), StreamConfig{Binary: tool}, "u")
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	defer session.Close()

	var buf bytes.Buffer
	n, err := session.Copy(&buf)
	if err == nil {
		t.Fatalf("expected error from nonzero exit")
	}
	if got := CategoryOf(err); got != CategoryPrivate {
		t.Fatalf("category = %s, want %s", got, CategoryPrivate)
	}
	if n != int64(len("partial")) {
		t.Fatalf("partial bytes = %d", n)
	}
}

func TestSessionCancellationTerminatesProcess(t *testing.T) {
	// The stub honors SIGTERM; cancellation must bring it down well within
	// the grace window.
	tool := writeStubTool(t, "trap 'exit 0' TERM\nwhile :; do printf x; sleep 0.05; done\n")

	ctx, cancel := context.WithCancel(context.Background())
	session, err := StartStream(ctx, StreamConfig{Binary: tool, GraceWait: 5 * time.Second}, "u")
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}

	// Let it produce a little output first.
	chunk := make([]byte, 8)
	if _, err := session.stdout.Read(chunk); err != nil {
		t.Fatalf("read: %v", err)
	}

	cancel()
	start := time.Now()
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("termination took %s, expected prompt exit on SIGTERM", elapsed)
	}
	if session.cmd.ProcessState == nil {
		t.Fatalf("process still running after Close")
	}
}

func TestSessionForceKillsStubbornProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the kill grace window")
	}
	// Ignores SIGTERM; only the force kill at the end of the grace window
	// can reap it.
	tool := writeStubTool(t, "trap '' TERM\nwhile :; do printf x; sleep 0.05; done\n")

	ctx, cancel := context.WithCancel(context.Background())
	session, err := StartStream(ctx, StreamConfig{Binary: tool, GraceWait: 500 * time.Millisecond}, "u")
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}

	chunk := make([]byte, 8)
	if _, err := session.stdout.Read(chunk); err != nil {
		t.Fatalf("read: %v", err)
	}

	cancel()
	done := make(chan struct{})
	go func() {
		_ = session.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Close did not return after grace window expired")
	}
	if session.cmd.ProcessState == nil {
		t.Fatalf("process was never reaped")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	tool := writeStubTool(t, "printf done\n")

	session, err := StartStream(context.Background(), StreamConfig{Binary: tool}, "u")
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := session.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i+1, err)
		}
	}
}

func TestStartStreamMissingBinary(t *testing.T) {
	_, err := StartStream(context.Background(), StreamConfig{Binary: filepath.Join(t.TempDir(), "nope")}, "u")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if got := CategoryOf(err); got != CategoryUnknown {
		t.Fatalf("category = %s, want %s", got, CategoryUnknown)
	}
}

func TestStreamConfigDefaults(t *testing.T) {
	cfg := StreamConfig{}.withDefaults()
	if cfg.ChunkSize != DefaultChunkSize {
		t.Fatalf("chunk size = %d, want %d", cfg.ChunkSize, DefaultChunkSize)
	}
	if cfg.GraceWait != defaultGraceWait {
		t.Fatalf("grace = %s", cfg.GraceWait)
	}
	if cfg.AudioQuality != "192" {
		t.Fatalf("quality = %s", cfg.AudioQuality)
	}
}
