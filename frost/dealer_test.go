package frost

import (
	"crypto/rand"
	"testing"

	"github.com/andotherstuff/hosted-nostr-auth-server/secp256k1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithDealer(t *testing.T) {
	f := New(secp256k1.New())
	g := f.Group()

	t.Run("RandomSecret", func(t *testing.T) {
		keys, pub, err := f.GenerateWithDealer(rand.Reader, nil, 5, 3)
		require.NoError(t, err)
		require.Len(t, keys, 5)
		for id := Identifier(1); id <= 5; id++ {
			require.Contains(t, keys, id)
			assert.Equal(t, id, keys[id].ID)
			assert.True(t, keys[id].VerifyingShare.Equal(pub.VerifyingShares[id]))
		}

		msg := []byte("dealt")
		sig := sign(t, f, keys, pub, []Identifier{2, 4, 5}, msg)
		assert.True(t, f.Verify(msg, sig, pub.VerifyingKey))
	})

	t.Run("SuppliedSecret", func(t *testing.T) {
		secret, err := g.RandomScalar(rand.Reader)
		require.NoError(t, err)
		_, pub, err := f.GenerateWithDealer(rand.Reader, secret, 3, 2)
		require.NoError(t, err)
		want := g.NewPoint().ScalarMult(secret, g.Generator())
		assert.True(t, pub.VerifyingKey.Equal(want))
	})

	t.Run("ZeroSecret", func(t *testing.T) {
		_, _, err := f.GenerateWithDealer(rand.Reader, g.NewScalar(), 3, 2)
		assert.ErrorIs(t, err, ErrZeroSecret)
	})

	t.Run("BadParameters", func(t *testing.T) {
		_, _, err := f.GenerateWithDealer(rand.Reader, nil, 2, 3)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})
}
