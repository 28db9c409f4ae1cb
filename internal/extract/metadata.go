package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Metadata is the normalized result of a successful resolution. It is
// read-only once constructed and lives for a single request.
type Metadata struct {
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

// rawInfo mirrors the subset of the tool's metadata dump we consume.
type rawInfo struct {
	Title      string         `json:"title"`
	Uploader   string         `json:"uploader"`
	Channel    string         `json:"channel"`
	Duration   float64        `json:"duration"`
	Thumbnail  string         `json:"thumbnail"`
	Thumbnails []rawThumbnail `json:"thumbnails"`
}

type rawThumbnail struct {
	URL string `json:"url"`
}

func parseMetadata(stdout []byte) (*Metadata, error) {
	var info rawInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, fmt.Errorf("parse metadata dump: %w", err)
	}
	channel := info.Uploader
	if channel == "" {
		channel = info.Channel
	}
	if channel == "" {
		channel = "Unknown"
	}
	title := info.Title
	if title == "" {
		title = "Unknown"
	}
	return &Metadata{
		Title:     title,
		Channel:   channel,
		Duration:  int(info.Duration),
		Thumbnail: bestThumbnail(info),
	}, nil
}

// bestThumbnail picks a thumbnail by quality heuristic: scanning the
// candidate list from the end backward, the first URL carrying a
// max-resolution or high-quality marker wins; otherwise the last candidate;
// otherwise the top-level thumbnail field; otherwise empty. The ordering is
// deliberate and covered by tests.
func bestThumbnail(info rawInfo) string {
	if len(info.Thumbnails) > 0 {
		for i := len(info.Thumbnails) - 1; i >= 0; i-- {
			url := info.Thumbnails[i].URL
			if url == "" {
				continue
			}
			if containsAny(url, "maxresdefault", "hqdefault") {
				return url
			}
		}
		return info.Thumbnails[len(info.Thumbnails)-1].URL
	}
	return info.Thumbnail
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
