package governance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPINHash_RoundTrip(t *testing.T) {
	h, err := NewPINHash("4921")
	require.NoError(t, err)

	assert.True(t, h.Verify("4921"))
	assert.False(t, h.Verify("4922"))
	assert.False(t, h.Verify(""))
}

func TestPINHash_EncodeParse(t *testing.T) {
	h, err := NewPINHash("secret-pin")
	require.NoError(t, err)

	encoded := h.Encode()
	salt, digest, ok := strings.Cut(encoded, ":")
	require.True(t, ok)
	assert.Len(t, salt, 32)   // 16 bytes hex
	assert.Len(t, digest, 64) // sha256 hex

	parsed, err := ParsePINHash(encoded)
	require.NoError(t, err)
	assert.True(t, parsed.Verify("secret-pin"))
	assert.False(t, parsed.Verify("other"))
}

func TestPINHash_SaltVariesPerHash(t *testing.T) {
	a, err := NewPINHash("4921")
	require.NoError(t, err)
	b, err := NewPINHash("4921")
	require.NoError(t, err)

	assert.NotEqual(t, a.Encode(), b.Encode())
}

func TestNewPINHash_EnforcesLengthBounds(t *testing.T) {
	_, err := NewPINHash("123")
	assert.Error(t, err)

	_, err = NewPINHash(strings.Repeat("9", 21))
	assert.Error(t, err)

	_, err = NewPINHash(strings.Repeat("9", 20))
	assert.NoError(t, err)
}

func TestParsePINHash_Malformed(t *testing.T) {
	for _, encoded := range []string{"", "nocolon", ":hash", "salt:"} {
		_, err := ParsePINHash(encoded)
		assert.Error(t, err, "encoded=%q", encoded)
	}
}
