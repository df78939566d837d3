package asciiutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAuthority(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "example.com", "example.com"},
		{"uppercase host", "EXAMPLE.com", "example.com"},
		{"mixed case with port", "Example.COM:8080", "example.com"},
		{"trailing root dot", "example.com.", "example.com"},
		{"uppercase ACE label", "XN--MLLER-KVA.de", "xn--mller-kva.de"},
		{"ipv6 with port", "[::1]:8080", "::1"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeAuthority(tc.input))
		})
	}
}

func TestToLowerASCII(t *testing.T) {
	assert.Equal(t, "example.com", ToLowerASCII("EXAMPLE.COM"))
	assert.Equal(t, "example.com", ToLowerASCII("example.com"))
	assert.Equal(t, "", ToLowerASCII(""))

	// non-ASCII bytes must pass through untouched.
	mixed := "caf\xc3\xa9-API"
	assert.Equal(t, "caf\xc3\xa9-api", ToLowerASCII(mixed))
}
