package extract

import "testing"

func TestValidateURLStrict(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "watch page", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "watch no scheme", input: "youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "short link", input: "https://youtu.be/dQw4w9WgXcQ", want: true},
		{name: "shorts", input: "https://www.youtube.com/shorts/abc123XYZ_-", want: true},
		{name: "embed", input: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: true},
		{name: "music subdomain", input: "https://music.youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "surrounding whitespace", input: "  https://youtu.be/dQw4w9WgXcQ  ", want: true},
		{name: "uppercase host", input: "HTTPS://WWW.YOUTUBE.COM/WATCH?v=dQw4w9WgXcQ", want: true},
		{name: "empty", input: "", want: false},
		{name: "whitespace only", input: "   ", want: false},
		{name: "other site", input: "https://vimeo.com/12345", want: false},
		{name: "channel page", input: "https://www.youtube.com/@somechannel", want: false},
		{name: "embedded in text", input: "check this https://youtu.be/dQw4w9WgXcQ", want: false},
		{name: "bare domain", input: "https://www.youtube.com/", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateURL(tc.input, StrictnessStrict); got != tc.want {
				t.Fatalf("ValidateURL(%q, strict) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestValidateURLLoose(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "watch page", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: true},
		{name: "embedded in text", input: "check this https://youtu.be/dQw4w9WgXcQ", want: true},
		{name: "other site", input: "https://vimeo.com/12345", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateURL(tc.input, StrictnessLoose); got != tc.want {
				t.Fatalf("ValidateURL(%q, loose) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseStrictness(t *testing.T) {
	if mode, ok := ParseStrictness("loose"); !ok || mode != StrictnessLoose {
		t.Fatalf("expected loose mode")
	}
	if mode, ok := ParseStrictness(""); !ok || mode != StrictnessStrict {
		t.Fatalf("expected strict default")
	}
	if _, ok := ParseStrictness("bogus"); ok {
		t.Fatalf("expected rejection of unknown mode")
	}
}

func TestCanonicalURL(t *testing.T) {
	got := CanonicalURL(" https://youtu.be/abc123?si=tracking ")
	want := "https://youtu.be/abc123"
	if got != want {
		t.Fatalf("CanonicalURL = %q, want %q", got, want)
	}
}
