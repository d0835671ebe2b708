package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxSegmentRunes caps a sanitized path segment.
const MaxSegmentRunes = 100

// Per-field fallbacks used when a segment sanitizes to nothing.
const (
	FallbackArtist = "Unknown Artist"
	FallbackAlbum  = "Unknown Album"
	FallbackTitle  = "Unknown"
)

// SanitizeSegment turns an arbitrary metadata value into a single safe path
// segment. The value is NFC-normalized and characters illegal in file names
// (< > : " / \ | ? * and control characters) become underscores. A lone
// separator survives ("AC/DC" becomes "AC_DC"); runs of two or more
// whitespace or underscore characters collapse to one space. The result is
// trimmed and capped at MaxSegmentRunes. Names made only of dots, spaces and
// underscores count as empty.
// fallback is returned when nothing usable remains.
func SanitizeSegment(value, fallback string) string {
	value = norm.NFC.String(value)

	var b strings.Builder
	b.Grow(len(value))
	var sep []rune
	flush := func() {
		switch len(sep) {
		case 0:
		case 1:
			if sep[0] == '_' {
				b.WriteByte('_')
			} else {
				b.WriteByte(' ')
			}
		default:
			b.WriteByte(' ')
		}
		sep = sep[:0]
	}
	for _, r := range value {
		if isIllegalFileRune(r) {
			r = '_'
		}
		if r == '_' || unicode.IsSpace(r) {
			sep = append(sep, r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	out := strings.TrimSpace(b.String())

	if runes := []rune(out); len(runes) > MaxSegmentRunes {
		out = strings.TrimSpace(string(runes[:MaxSegmentRunes]))
	}
	if strings.Trim(out, "._ ") == "" {
		out = ""
	}
	if out == "" {
		return fallback
	}
	return out
}

func isIllegalFileRune(r rune) bool {
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	}
	return unicode.IsControl(r)
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
