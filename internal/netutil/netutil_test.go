package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHostPort(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"host with port", "example.com:8080", "example.com"},
		{"host without port", "example.com", "example.com"},
		{"host with trailing dot", "example.com.", "example.com"},
		{"host with port and trailing dot", "example.com.:8080", "example.com"},
		{"ipv4 with port", "192.168.1.1:80", "192.168.1.1"},
		{"ipv6 with port", "[::1]:8080", "::1"},
		{"empty string", "", ""},
		{"invalid host port returns unchanged", "[invalid", "[invalid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripHostPort(tc.input))
		})
	}
}
