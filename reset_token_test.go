package handraise_test

import (
	"encoding/hex"
	"testing"

	"github.com/handraise/handraise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	raw, hash, err := handraise.GenerateResetToken()
	require.NoError(t, err)

	t.Run("raw token is 32 bytes of hex", func(t *testing.T) {
		assert.Len(t, raw, 64)
		_, err := hex.DecodeString(raw)
		assert.NoError(t, err)
	})

	t.Run("hash matches HashResetToken of the raw value", func(t *testing.T) {
		assert.Equal(t, handraise.HashResetToken(raw), hash)
		assert.NotEqual(t, raw, hash)
	})

	t.Run("tokens never repeat", func(t *testing.T) {
		raw2, _, err := handraise.GenerateResetToken()
		require.NoError(t, err)
		assert.NotEqual(t, raw, raw2)
	})
}

func TestHashResetToken(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t,
			handraise.HashResetToken("some-token"),
			handraise.HashResetToken("some-token"),
		)
	})

	t.Run("is a sha256 hex digest", func(t *testing.T) {
		sum := handraise.HashResetToken("abc")
		assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)
	})
}
