package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// Strictness selects the URL validation philosophy. Strict matching anchors
// a fixed set of URL shapes at the start of the input; loose matching only
// requires a recognizable host marker somewhere in the string, which also
// accepts URLs embedded in surrounding text.
type Strictness int

const (
	StrictnessStrict Strictness = iota
	StrictnessLoose
)

func ParseStrictness(s string) (Strictness, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return StrictnessStrict, true
	case "loose", "permissive":
		return StrictnessLoose, true
	}
	return StrictnessStrict, false
}

var watchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtu\.be/[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?(www\.)?youtube\.com/embed/[\w-]+`),
	regexp.MustCompile(`(?i)^(https?://)?music\.youtube\.com/watch\?v=[\w-]+`),
}

var hostMarkers = []string{"youtube.com/", "youtu.be/"}

// ValidateURL reports whether raw looks like a supported video link under
// the given strictness. The input is trimmed before checking. Pure function.
func ValidateURL(raw string, mode Strictness) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	switch mode {
	case StrictnessLoose:
		lowered := strings.ToLower(trimmed)
		for _, marker := range hostMarkers {
			if strings.Contains(lowered, marker) {
				return true
			}
		}
		return false
	default:
		for _, pattern := range watchPatterns {
			if pattern.MatchString(trimmed) {
				return true
			}
		}
		return false
	}
}

// CanonicalURL trims the reference and strips share-tracking query
// parameters so equivalent links share a cache key. Unparseable input is
// returned trimmed.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	query := parsed.Query()
	for _, param := range []string{"si", "feature", "pp", "utm_source", "utm_medium", "utm_campaign"} {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
