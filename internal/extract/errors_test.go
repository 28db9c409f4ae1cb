package extract

import (
	"errors"
	"fmt"
	"testing"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		want   Category
	}{
		{name: "empty", stderr: "", want: CategoryUnknown},
		{name: "whitespace only", stderr: "  \n ", want: CategoryUnknown},
		{name: "unavailable", stderr: "ERROR: [youtube] abc: Video unavailable", want: CategoryUnavailable},
		{name: "private", stderr: "ERROR: Private video. Sign in if you've been granted access", want: CategoryPrivate},
		{name: "sign in", stderr: "ERROR: Sign in to confirm you're not a bot", want: CategorySignInRequired},
		{name: "age restricted", stderr: "ERROR: This video is age-restricted", want: CategoryAgeRestricted},
		{name: "copyright", stderr: "blocked on copyright grounds", want: CategoryCopyright},
		{name: "removed", stderr: "This video has been removed by the uploader", want: CategoryRemoved},
		{name: "live", stderr: "ERROR: this video is a live stream", want: CategoryLiveUnsupported},
		{name: "premiere", stderr: "Premiere will begin shortly", want: CategoryNotYetAvailable},
		{name: "malformed", stderr: "ERROR: 'htp://x' is not a valid URL", want: CategoryInvalidURL},
		{name: "geo", stderr: "The uploader has not made this video available in your country", want: CategoryGeoBlocked},
		{name: "rate limited", stderr: "HTTP Error 429: Too Many Requests", want: CategoryRateLimited},
		{name: "forbidden with noise", stderr: "WARNING: something\nERROR: unable to download: HTTP Error 403: Forbidden", want: CategoryAccessDenied},
		{name: "no formats", stderr: "ERROR: No video formats found", want: CategoryNoFormats},
		{name: "unmatched", stderr: "some completely novel failure mode", want: CategoryUnknown},
		{name: "case insensitive", stderr: "PRIVATE VIDEO", want: CategoryPrivate},
		{name: "priority first wins", stderr: "Private video, HTTP Error 403", want: CategoryPrivate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Translate(tc.stderr); got != tc.want {
				t.Fatalf("Translate(%q) = %s, want %s", tc.stderr, got, tc.want)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	err := wrapCategory(CategoryGeoBlocked, errors.New("boom"))
	if got := CategoryOf(err); got != CategoryGeoBlocked {
		t.Fatalf("CategoryOf = %s, want %s", got, CategoryGeoBlocked)
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if got := CategoryOf(wrapped); got != CategoryGeoBlocked {
		t.Fatalf("CategoryOf through wrap = %s, want %s", got, CategoryGeoBlocked)
	}

	if got := CategoryOf(errors.New("plain")); got != CategoryUnknown {
		t.Fatalf("CategoryOf(plain) = %s, want %s", got, CategoryUnknown)
	}
	if got := CategoryOf(nil); got != CategoryUnknown {
		t.Fatalf("CategoryOf(nil) = %s, want %s", got, CategoryUnknown)
	}
}

func TestCategoryMessageNeverEchoesDiagnostics(t *testing.T) {
	for category, msg := range categoryMessages {
		if msg == "" {
			t.Fatalf("category %s has no message", category)
		}
	}
	if (Category("bogus")).Message() != categoryMessages[CategoryUnknown] {
		t.Fatalf("unknown category should fall back to the generic message")
	}
}
