package extract

import (
	"errors"
	"strings"
)

// Category classifies a failure into one of the stable user-facing buckets.
// Raw tool diagnostics never leave this package; callers only ever see a
// Category and its Message.
type Category string

const (
	CategoryMissingInput    Category = "missing_input"
	CategoryInvalidURL      Category = "invalid_url"
	CategoryTooLong         Category = "too_long"
	CategoryUnavailable     Category = "video_unavailable"
	CategoryPrivate         Category = "private"
	CategorySignInRequired  Category = "sign_in_required"
	CategoryAgeRestricted   Category = "age_restricted"
	CategoryCopyright       Category = "copyright_blocked"
	CategoryRemoved         Category = "removed"
	CategoryLiveUnsupported Category = "live_unsupported"
	CategoryNotYetAvailable Category = "not_yet_available"
	CategoryGeoBlocked      Category = "geo_blocked"
	CategoryRateLimited     Category = "rate_limited"
	CategoryAccessDenied    Category = "access_denied"
	CategoryNoFormats       Category = "no_formats"
	CategoryUnknown         Category = "unknown"
)

var categoryMessages = map[Category]string{
	CategoryMissingInput:    "No URL provided",
	CategoryInvalidURL:      "Please enter a valid YouTube link",
	CategoryTooLong:         "Video is too long",
	CategoryUnavailable:     "Video not found or unavailable",
	CategoryPrivate:         "This video is private",
	CategorySignInRequired:  "This video requires signing in",
	CategoryAgeRestricted:   "This video is age-restricted",
	CategoryCopyright:       "Video unavailable due to copyright",
	CategoryRemoved:         "This video has been removed",
	CategoryLiveUnsupported: "Live streams cannot be downloaded",
	CategoryNotYetAvailable: "This video is not yet available",
	CategoryGeoBlocked:      "Video not available in your region",
	CategoryRateLimited:     "Too many requests right now, try again shortly",
	CategoryAccessDenied:    "Access to this video was denied",
	CategoryNoFormats:       "No downloadable audio found for this video",
	CategoryUnknown:         "Unable to process this video. Please try another.",
}

// Message returns the stable text shown to callers for this category.
func (c Category) Message() string {
	if msg, ok := categoryMessages[c]; ok {
		return msg
	}
	return categoryMessages[CategoryUnknown]
}

// CategorizedError pairs an underlying error with its user-facing category.
type CategorizedError struct {
	Category Category
	Err      error
}

func (e CategorizedError) Error() string {
	if e.Err == nil {
		return string(e.Category)
	}
	return e.Err.Error()
}

func (e CategorizedError) Unwrap() error { return e.Err }

func wrapCategory(category Category, err error) error {
	return CategorizedError{Category: category, Err: err}
}

// CategoryOf extracts the category from an error chain, defaulting to
// CategoryUnknown for anything unclassified.
func CategoryOf(err error) Category {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryUnknown
}

// translationRule maps diagnostic substrings to a category. Order matters:
// the first rule with any matching needle wins.
type translationRule struct {
	needles  []string
	category Category
}

var translationRules = []translationRule{
	{[]string{"video unavailable", "not found", "does not exist"}, CategoryUnavailable},
	{[]string{"private video", "is private"}, CategoryPrivate},
	{[]string{"sign in", "login required", "log in"}, CategorySignInRequired},
	{[]string{"age-restricted", "age restricted", "confirm your age"}, CategoryAgeRestricted},
	{[]string{"copyright"}, CategoryCopyright},
	{[]string{"removed", "deleted"}, CategoryRemoved},
	{[]string{"is a live", "live stream", "live event"}, CategoryLiveUnsupported},
	{[]string{"premiere", "will begin"}, CategoryNotYetAvailable},
	{[]string{"not a valid url", "unsupported url", "invalid url"}, CategoryInvalidURL},
	{[]string{"geo", "your country", "region"}, CategoryGeoBlocked},
	{[]string{"http error 429", "429", "too many requests"}, CategoryRateLimited},
	{[]string{"http error 403", "403", "forbidden", "access denied"}, CategoryAccessDenied},
	{[]string{"no video formats", "requested format is not available", "no formats"}, CategoryNoFormats},
	{[]string{"unable to extract", "extraction failed"}, CategoryUnknown},
}

// Translate maps raw extractor diagnostics to a closed Category. Matching is
// case-insensitive substring search in fixed priority order. Anything that
// matches nothing, including empty input, becomes CategoryUnknown.
func Translate(stderr string) Category {
	lowered := strings.ToLower(stderr)
	if strings.TrimSpace(lowered) == "" {
		return CategoryUnknown
	}
	for _, rule := range translationRules {
		for _, needle := range rule.needles {
			if strings.Contains(lowered, needle) {
				return rule.category
			}
		}
	}
	return CategoryUnknown
}
