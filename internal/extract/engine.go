package extract

import (
	"context"
	"io"
)

// ToolEngine is the primary backend: metadata through the multi-strategy
// resolver, audio through a per-request stream session. Both engines expose
// the same surface; the HTTP layer picks one at startup based on detected
// capabilities.
type ToolEngine struct {
	resolver  *Resolver
	streamCfg StreamConfig
}

func NewToolEngine(resolver *Resolver, streamCfg StreamConfig) *ToolEngine {
	return &ToolEngine{resolver: resolver, streamCfg: streamCfg}
}

func (e *ToolEngine) Resolve(ctx context.Context, url string) (*Metadata, error) {
	return e.resolver.Resolve(ctx, url)
}

// StreamTo runs one stream session to completion, tagging the head of the
// stream when metadata is available. The session is torn down on every exit
// path.
func (e *ToolEngine) StreamTo(ctx context.Context, url string, meta *Metadata, w io.Writer) (int64, error) {
	session, err := StartStream(ctx, e.streamCfg, url)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	var written int64
	if meta != nil {
		counted := &countingWriter{w: w}
		if err := writeStreamTags(counted, meta); err != nil {
			return counted.n, err
		}
		written = counted.n
	}
	n, err := session.Copy(w)
	return written + n, err
}
