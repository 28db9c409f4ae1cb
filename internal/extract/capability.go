package extract

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// Capabilities describes what the host environment can do. It is computed
// once during process initialization and passed explicitly to the components
// that need it; nothing mutates it afterwards.
type Capabilities struct {
	YTDLP         bool
	FFmpeg        bool
	Impersonation bool
}

// Engine names the extraction backend the service will run with.
func (c Capabilities) Engine() string {
	if c.YTDLP {
		return "yt-dlp"
	}
	return "library"
}

// DetectCapabilities probes the host for the extraction tool, ffmpeg, and
// browser-impersonation support. The impersonation probe runs the tool once
// with a short budget; any failure just means the capability is absent.
func DetectCapabilities(ctx context.Context, binary string) Capabilities {
	caps := Capabilities{}
	if _, err := exec.LookPath(binary); err == nil {
		caps.YTDLP = true
	}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		caps.FFmpeg = true
	}
	if caps.YTDLP {
		caps.Impersonation = probeImpersonation(ctx, binary)
	}

	logrus.WithFields(logrus.Fields{
		"engine":        caps.Engine(),
		"ffmpeg":        caps.FFmpeg,
		"impersonation": caps.Impersonation,
	}).Info("capability probe complete")
	return caps
}

func probeImpersonation(ctx context.Context, binary string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, binary, "--list-impersonate-targets")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return false
	}
	return bytes.Contains(bytes.ToLower(out.Bytes()), []byte("chrome"))
}
