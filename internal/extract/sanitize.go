package extract

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxFilenameLen = 96
	fallbackName   = "download"
	forbiddenChars = `[<>:"/\\|?*\x00-\x1f]`
	whitespaceRuns = `\s+`
)

var (
	forbiddenRe  = regexp.MustCompile(forbiddenChars)
	whitespaceRe = regexp.MustCompile(whitespaceRuns)
)

// SanitizeTitle derives a safe cross-platform base filename from an
// untrusted title. Total function: never fails, never returns empty, and is
// idempotent. Trailing periods are trimmed because some filesystems reject
// them.
func SanitizeTitle(raw string) string {
	cleaned := forbiddenRe.ReplaceAllString(raw, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = truncateRunes(cleaned, maxFilenameLen)
	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" {
		return fallbackName
	}
	return cleaned
}

// truncateRunes keeps at most max characters, never splitting a multi-byte
// character in half.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// ContentDisposition builds an attachment header value with both an
// ASCII-only fallback filename and a percent-encoded UTF-8 variant, per the
// RFC 5987 extended-filename convention. The ASCII variant drops non-ASCII
// characters outright.
func ContentDisposition(filename string) string {
	ascii := make([]byte, 0, len(filename))
	for _, r := range filename {
		if r < 0x80 && r != '"' {
			ascii = append(ascii, byte(r))
		}
	}
	asciiName := string(ascii)
	if strings.TrimSpace(strings.TrimSuffix(asciiName, ".mp3")) == "" {
		asciiName = fallbackName + ".mp3"
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		asciiName, percentEncode(filename))
}

// percentEncode applies RFC 5987 value encoding: attr-char passes through,
// everything else becomes %XX over its UTF-8 bytes.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
