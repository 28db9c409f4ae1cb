package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestToolEngineStreamTagsThenAudio(t *testing.T) {
	tool := writeStubTool(t, `#!/bin/sh
printf 'AUDIO-PAYLOAD'
`)
	engine := NewToolEngine(nil, StreamConfig{Binary: tool})
	meta := &Metadata{Title: "Some Song", Channel: "Some Artist"}

	var out bytes.Buffer
	n, err := engine.StreamTo(context.Background(), "https://youtu.be/abc", meta, &out)
	if err != nil {
		t.Fatalf("StreamTo: %v", err)
	}
	if n != int64(out.Len()) {
		t.Errorf("reported %d bytes, wrote %d", n, out.Len())
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("ID3")) {
		t.Errorf("stream does not start with an ID3 header: %q", out.Bytes()[:8])
	}
	if !strings.HasSuffix(out.String(), "AUDIO-PAYLOAD") {
		t.Errorf("audio payload missing from stream tail")
	}
}

func TestToolEngineStreamWithoutMetadata(t *testing.T) {
	tool := writeStubTool(t, `#!/bin/sh
printf 'RAW'
`)
	engine := NewToolEngine(nil, StreamConfig{Binary: tool})

	var out bytes.Buffer
	n, err := engine.StreamTo(context.Background(), "https://youtu.be/abc", nil, &out)
	if err != nil {
		t.Fatalf("StreamTo: %v", err)
	}
	if out.String() != "RAW" || n != 3 {
		t.Errorf("got %q (%d bytes), want untagged passthrough", out.String(), n)
	}
}

func TestToolEngineStreamStartFailure(t *testing.T) {
	engine := NewToolEngine(nil, StreamConfig{Binary: "/nonexistent/tool"})

	var out bytes.Buffer
	n, err := engine.StreamTo(context.Background(), "u", &Metadata{Title: "x"}, &out)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if n != 0 || out.Len() != 0 {
		t.Errorf("wrote %d bytes before failing to start", out.Len())
	}
}
