package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentNoEscape(t *testing.T) {
	s := "/users/42"
	out, err := Percent(s)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}

func TestPercentDecodesSlash(t *testing.T) {
	out, err := Percent("/a%2Fb")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", out)
}

func TestPercentLowercaseHex(t *testing.T) {
	out, err := Percent("/caf%c3%a9")
	require.NoError(t, err)
	assert.Equal(t, "/caf\xc3\xa9", out)
}

func TestPercentTruncated(t *testing.T) {
	_, err := Percent("/hello%2")
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6, pe.Position)
}

func TestPercentInvalidHex(t *testing.T) {
	_, err := Percent("/hello%GG")
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6, pe.Position)
	assert.Equal(t, "%GG", pe.Triple)
}

func TestPercentBytesBorrowsWhenNoEscape(t *testing.T) {
	buf := []byte("/users/42")
	out, err := PercentBytes(buf)
	require.NoError(t, err)
	assert.Equal(t, "/users/42", out)
}
