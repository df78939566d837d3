// Package asciiutil normalizes authority text to the form the router
// matches against: no port, no trailing root-label dot, ASCII letters
// folded to lowercase (hostnames are case-insensitive per RFC 4343, and
// the punycode ACE prefix "xn--" is matched case-sensitively downstream,
// so an upper-case host would otherwise fail to decode).
package asciiutil

import (
	"github.com/kestrel-route/kestrel/internal/netutil"
	"github.com/kestrel-route/kestrel/internal/stringutil"
)

// NormalizeAuthority strips an optional ":<port>" suffix and a trailing
// root-label dot from raw, then lowercases its ASCII letters.
func NormalizeAuthority(raw string) string {
	return ToLowerASCII(netutil.StripHostPort(raw))
}

// ToLowerASCII lowercases the ASCII letters in s, leaving every other byte
// (including any non-ASCII UTF-8 sequence) untouched.
func ToLowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			return lowerFrom(s, i)
		}
	}
	return s
}

func lowerFrom(s string, start int) string {
	b := []byte(s)
	for i := start; i < len(b); i++ {
		b[i] = stringutil.ToLowerASCII(b[i])
	}
	return string(b)
}
