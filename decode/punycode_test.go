package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/idna"
)

func TestPunycodePassthroughLabel(t *testing.T) {
	out, err := Punycode("example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", out)
}

func TestPunycodeUnexpectedEnd(t *testing.T) {
	_, err := Punycode("xn--9")
	require.Error(t, err)
	var pe *PunyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PunyUnexpectedEnd, pe.Kind)
}

func TestPunycodeSingleHyphenIsUnexpectedEnd(t *testing.T) {
	_, err := Punycode("xn---")
	require.Error(t, err)
	var pe *PunyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PunyUnexpectedEnd, pe.Kind)
}

func TestPunycodeMatchesIdnaReference(t *testing.T) {
	// Cross-check against golang.org/x/net/idna's raw punycode profile to
	// confirm byte-exact agreement with the reference implementation.
	cases := []string{
		"xn--nxasmq6b",    // Greek label, no basic code points
		"xn--fsqu00a",     // CJK example from RFC 3492-adjacent corpora
		"xn--0zwm56d",     // another CJK example
		"xn--deba0ad",     // Hebrew label, no basic code points
	}

	for _, label := range cases {
		label := label
		t.Run(label, func(t *testing.T) {
			want, wantErr := idna.Punycode.ToUnicode(label)
			got, gotErr := Punycode(label)
			if wantErr != nil {
				t.Skipf("reference profile rejected %q: %v", label, wantErr)
			}
			require.NoError(t, gotErr)
			assert.Equal(t, want, got)
		})
	}
}

func TestPunycodeMultiLabelAuthority(t *testing.T) {
	out, err := Punycode("xn--nxasmq6b.example.com")
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
}

func TestPunycodeRejectsControlBytesInBasicLabel(t *testing.T) {
	_, err := Punycode("foo\x01bar.com")
	require.Error(t, err)
	var pe *PunyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PunyInvalidBasicCodePoint, pe.Kind)
}
