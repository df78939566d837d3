// Package decode implements the two decoders the router applies to
// concrete search input before trie traversal: percent-decoding of path
// bytes, and punycode-decoding of authority labels.
package decode

import (
	"strings"

	"github.com/kestrel-route/kestrel/internal/bytesconv"
)

// Error is returned when a percent-encoded byte sequence is malformed.
// Position is the byte offset of the '%' that introduced the bad triple.
type Error struct {
	Triple   string
	Position int
}

func (e *Error) Error() string {
	return "invalid percent-encoding " + quoteTriple(e.Triple) + " at position " + itoa(e.Position)
}

func quoteTriple(s string) string {
	return "\"" + s + "\""
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Percent decodes percent-encoded triples ("%XY") in s. When s contains no
// '%' byte, it returns s unmodified with no allocation (a borrowed view).
// It fails if a '%' is not followed by two ASCII hex digits.
func Percent(s string) (string, error) {
	firstPercent := strings.IndexByte(s, '%')
	if firstPercent < 0 {
		return s, nil
	}

	var sb strings.Builder
	sb.Grow(len(s))
	sb.WriteString(s[:firstPercent])

	for i := firstPercent; i < len(s); i++ {
		if s[i] != '%' {
			sb.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", &Error{Triple: s[i:], Position: i}
		}
		hi, okHi := unhex(s[i+1])
		lo, okLo := unhex(s[i+2])
		if !okHi || !okLo {
			return "", &Error{Triple: s[i : i+3], Position: i}
		}
		sb.WriteByte(hi<<4 | lo)
		i += 2
	}

	return sb.String(), nil
}

// PercentBytes is the zero-copy variant of Percent for
// callers holding a []byte view of the input (e.g. a pooled read buffer).
// The returned string aliases buf's memory via an unsafe conversion when no
// percent-escape is present; callers must not mutate buf afterward in that
// case.
func PercentBytes(buf []byte) (string, error) {
	if !containsPercent(buf) {
		return bytesconv.String(buf), nil
	}
	return Percent(bytesconv.String(buf))
}

func containsPercent(buf []byte) bool {
	for _, b := range buf {
		if b == '%' {
			return true
		}
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
