package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kkdai/youtube/v2"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// LibraryEngine is the degraded-mode backend used when the extraction tool
// is not installed: metadata and audio come from the YouTube client library
// and ffmpeg handles the MP3 transcode on a pipe. It satisfies the same two
// contracts as the tool (metadata dump, stream to output) so the HTTP layer
// does not care which engine it is talking to.
type LibraryEngine struct {
	client       youtube.Client
	maxDuration  int
	audioBitrate string
}

func NewLibraryEngine(maxDurationSeconds int, audioQuality string) *LibraryEngine {
	if audioQuality == "" {
		audioQuality = "192"
	}
	return &LibraryEngine{
		client:       youtube.Client{},
		maxDuration:  maxDurationSeconds,
		audioBitrate: audioQuality + "k",
	}
}

// Resolve fetches metadata in-process and applies the same duration ceiling
// and thumbnail heuristic as the tool-backed resolver.
func (e *LibraryEngine) Resolve(ctx context.Context, url string) (*Metadata, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, wrapLibraryError(err)
	}

	info := rawInfo{
		Title:    video.Title,
		Uploader: video.Author,
		Duration: video.Duration.Seconds(),
	}
	for _, thumb := range video.Thumbnails {
		info.Thumbnails = append(info.Thumbnails, rawThumbnail{URL: thumb.URL})
	}

	meta := &Metadata{
		Title:     video.Title,
		Channel:   video.Author,
		Duration:  int(video.Duration.Seconds()),
		Thumbnail: bestThumbnail(info),
	}
	if meta.Title == "" {
		meta.Title = "Unknown"
	}
	if meta.Channel == "" {
		meta.Channel = "Unknown"
	}
	if e.maxDuration > 0 && meta.Duration > e.maxDuration {
		return nil, wrapCategory(CategoryTooLong,
			fmt.Errorf("duration %ds exceeds ceiling %ds", meta.Duration, e.maxDuration))
	}
	return meta, nil
}

// StreamTo writes an ID3v2 header followed by transcoded MP3 audio to w. The
// source stream is closed on every exit path; cancelling ctx closes it early,
// which drains the transcoder through EOF.
func (e *LibraryEngine) StreamTo(ctx context.Context, url string, meta *Metadata, w io.Writer) (int64, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return 0, wrapLibraryError(err)
	}

	format := bestAudioFormat(video)
	if format == nil {
		return 0, wrapCategory(CategoryNoFormats, errors.New("no audio format available"))
	}

	source, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return 0, wrapLibraryError(err)
	}
	defer source.Close()

	counted := &countingWriter{w: w}
	if meta != nil {
		if err := writeStreamTags(counted, meta); err != nil {
			return counted.n, err
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			source.Close()
		case <-stop:
		}
	}()

	err = ffmpeg.Input("pipe:").
		Output("pipe:", ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "libmp3lame",
			"b:a":    e.audioBitrate,
			"f":      "mp3",
		}).
		WithInput(source).
		WithOutput(counted).
		Silent(true).
		Run()
	if err != nil {
		if ctx.Err() != nil {
			return counted.n, ctx.Err()
		}
		return counted.n, wrapCategory(CategoryUnknown, fmt.Errorf("transcode: %w", err))
	}
	return counted.n, nil
}

// bestAudioFormat prefers the highest-bitrate audio-only format and falls
// back to a progressive format with audio when none exists.
func bestAudioFormat(video *youtube.Video) *youtube.Format {
	var best *youtube.Format
	for i := range video.Formats {
		f := &video.Formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil || bitrateForFormat(f) > bitrateForFormat(best) {
			best = f
		}
	}
	if best != nil {
		return best
	}
	for i := range video.Formats {
		f := &video.Formats[i]
		if f.AudioChannels > 0 {
			if best == nil || bitrateForFormat(f) > bitrateForFormat(best) {
				best = f
			}
		}
	}
	return best
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return 0
}

// wrapLibraryError reuses the diagnostic-text translation table: the library
// surfaces the same platform phrases ("private video", "age restricted") the
// tool prints on stderr.
func wrapLibraryError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapCategory(CategoryUnknown, err)
	}
	return wrapCategory(Translate(err.Error()), err)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
