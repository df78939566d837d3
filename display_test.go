package kestrel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayOmitsAuthoritySectionWhenEmpty(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.Insert(Route{Path: "/users"}, "h"))

	out := r.Display()
	assert.Contains(t, out, "path\n")
	assert.NotContains(t, out, "authority\n")
}

func TestDisplayIncludesAuthoritySectionWhenPresent(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.Insert(Route{Authority: "{tenant}.example.com", Path: "/"}, "h"))

	out := r.Display()
	assert.Contains(t, out, "path\n")
	assert.Contains(t, out, "authority\n")
}

func TestDisplayMarksOccupiedLeaves(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.Insert(Route{Path: "/users/{id}"}, "h"))

	out := r.Display()
	lines := strings.Split(out, "\n")
	var sawDynamic bool
	for _, l := range lines {
		if strings.Contains(l, "{id}") {
			sawDynamic = true
			assert.Contains(t, l, "○", "the terminal node of an inserted route must carry the occupied marker")
		}
	}
	assert.True(t, sawDynamic)
}

func TestDisplayStableAcrossCalls(t *testing.T) {
	r := New[string]()
	require.NoError(t, r.Insert(Route{Path: "/a"}, "1"))
	require.NoError(t, r.Insert(Route{Path: "/b"}, "2"))

	first := r.Display()
	second := r.Display()
	assert.Equal(t, first, second)
}
