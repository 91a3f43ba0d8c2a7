package frost

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/andotherstuff/hosted-nostr-auth-server/bjj"
	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/andotherstuff/hosted-nostr-auth-server/secp256k1"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suites() map[string]*FROST {
	return map[string]*FROST{
		"secp256k1/sha256":  New(secp256k1.New()),
		"secp256k1/blake3":  NewWithHasher(secp256k1.New(), NewBlake3Hasher()),
		"bjj/sha256":        New(bjj.New()),
		"bjj/blake2b":       NewWithHasher(bjj.New(), NewBlake2bHasher()),
		"bjj/blake3":        NewWithHasher(bjj.New(), NewBlake3Hasher()),
		"secp256k1/blake2b": NewWithHasher(secp256k1.New(), NewBlake2bHasher()),
	}
}

// runDKG runs both DKG rounds for identifiers 1..n and returns every key
// package and the public key package agreed on by all participants.
func runDKG(t *testing.T, f *FROST, n, threshold uint16) (map[Identifier]*KeyPackage, *PublicKeyPackage) {
	t.Helper()

	secrets := make(map[Identifier]*Round1Secret, n)
	packages := make(map[Identifier]*Round1Package, n)
	for i := uint16(1); i <= n; i++ {
		s, p, err := f.DKGRound1(rand.Reader, Identifier(i), n, threshold)
		require.NoError(t, err, "round 1 for %d", i)
		secrets[Identifier(i)] = s
		packages[Identifier(i)] = p
	}

	keys := make(map[Identifier]*KeyPackage, n)
	var pub *PublicKeyPackage
	for id, secret := range secrets {
		peers := make(map[Identifier]*Round1Package, n-1)
		for other, p := range packages {
			if other != id {
				peers[other] = p
			}
		}
		kp, pk, err := f.DKGRound2(secret, peers)
		require.NoError(t, err, "round 2 for %d", id)
		keys[id] = kp
		if pub == nil {
			pub = pk
		}
		require.True(t, pk.VerifyingKey.Equal(pub.VerifyingKey), "participants disagree on group key")
	}
	return keys, pub
}

// sign runs both signing rounds for the given signers.
func sign(t *testing.T, f *FROST, keys map[Identifier]*KeyPackage, pub *PublicKeyPackage, signers []Identifier, msg []byte) *Signature {
	t.Helper()

	nonces := make(map[Identifier]*SigningNonces, len(signers))
	commitments := make(map[Identifier]*SigningCommitments, len(signers))
	for _, id := range signers {
		n, c, err := f.NonceCommit(rand.Reader, keys[id].SigningShare)
		require.NoError(t, err)
		nonces[id] = n
		commitments[id] = c
	}
	pkg := NewSigningPackage(msg, commitments)

	shares := make(map[Identifier]*SignatureShare, len(signers))
	for _, id := range signers {
		s, err := f.SignShare(pkg, nonces[id], keys[id])
		require.NoError(t, err, "signer %d", id)
		shares[id] = s
	}

	sig, err := f.Aggregate(pkg, shares, pub)
	require.NoError(t, err)
	return sig
}

func TestDKGAndSign(t *testing.T) {
	for name, f := range suites() {
		t.Run(name, func(t *testing.T) {
			keys, pub := runDKG(t, f, 3, 2)
			require.Len(t, pub.VerifyingShares, 3)
			for id, kp := range keys {
				assert.True(t, kp.VerifyingShare.Equal(pub.VerifyingShares[id]))
			}

			msg := []byte("hello FROST")
			sig := sign(t, f, keys, pub, []Identifier{1, 2}, msg)
			assert.True(t, f.Verify(msg, sig, pub.VerifyingKey))
			assert.False(t, f.Verify([]byte("wrong message"), sig, pub.VerifyingKey))
		})
	}
}

func TestSigningWithDifferentSignerSubsets(t *testing.T) {
	f := New(secp256k1.New())
	keys, pub := runDKG(t, f, 4, 2)
	msg := []byte("subset")

	subsets := [][]Identifier{{1, 2}, {1, 3}, {2, 4}, {3, 4}, {1, 2, 3}, {1, 2, 3, 4}}
	for _, subset := range subsets {
		t.Run(fmt.Sprint(subset), func(t *testing.T) {
			sig := sign(t, f, keys, pub, subset, msg)
			assert.True(t, f.Verify(msg, sig, pub.VerifyingKey))
		})
	}
}

func TestSigningWithDifferentThresholds(t *testing.T) {
	f := New(bjj.New())
	cases := []struct{ threshold, total uint16 }{
		{1, 1}, {1, 3}, {2, 2}, {2, 3}, {3, 5}, {5, 5},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-of-%d", tc.threshold, tc.total), func(t *testing.T) {
			keys, pub := runDKG(t, f, tc.total, tc.threshold)
			signers := make([]Identifier, tc.threshold)
			for i := range signers {
				signers[i] = Identifier(tc.total - uint16(i))
			}
			msg := []byte("threshold")
			sig := sign(t, f, keys, pub, signers, msg)
			assert.True(t, f.Verify(msg, sig, pub.VerifyingKey))
		})
	}
}

func TestDKGWithPartialParticipation(t *testing.T) {
	// Only two of three possible participants contribute; their shares
	// still form a valid 2-of-2 signing group.
	f := New(secp256k1.New())
	s1, p1, err := f.DKGRound1(rand.Reader, 1, 3, 2)
	require.NoError(t, err)
	s2, p2, err := f.DKGRound1(rand.Reader, 2, 3, 2)
	require.NoError(t, err)

	k1, pub1, err := f.DKGRound2(s1, map[Identifier]*Round1Package{2: p2})
	require.NoError(t, err)
	k2, pub2, err := f.DKGRound2(s2, map[Identifier]*Round1Package{1: p1})
	require.NoError(t, err)
	require.True(t, pub1.VerifyingKey.Equal(pub2.VerifyingKey))
	assert.Len(t, pub1.VerifyingShares, 2)

	msg := []byte("partial")
	sig := sign(t, f, map[Identifier]*KeyPackage{1: k1, 2: k2}, pub1, []Identifier{1, 2}, msg)
	assert.True(t, f.Verify(msg, sig, pub1.VerifyingKey))
}

func TestDKGRejectsBadPeers(t *testing.T) {
	f := New(secp256k1.New())
	g := f.Group()

	fresh := func(t *testing.T) (*Round1Secret, map[Identifier]*Round1Package) {
		s1, _, err := f.DKGRound1(rand.Reader, 1, 3, 2)
		require.NoError(t, err)
		_, p2, err := f.DKGRound1(rand.Reader, 2, 3, 2)
		require.NoError(t, err)
		_, p3, err := f.DKGRound1(rand.Reader, 3, 3, 2)
		require.NoError(t, err)
		return s1, map[Identifier]*Round1Package{2: p2, 3: p3}
	}

	t.Run("TamperedShare", func(t *testing.T) {
		secret, peers := fresh(t)
		peers[2].Shares[1] = g.NewScalar().Add(peers[2].Shares[1], group.ScalarFromUint16(g, 1))
		_, _, err := f.DKGRound2(secret, peers)
		assert.ErrorIs(t, err, ErrInvalidShare)
	})

	t.Run("TamperedProof", func(t *testing.T) {
		secret, peers := fresh(t)
		peers[3].ProofZ = g.NewScalar().Add(peers[3].ProofZ, group.ScalarFromUint16(g, 1))
		_, _, err := f.DKGRound2(secret, peers)
		assert.ErrorIs(t, err, ErrInvalidProof)
	})

	t.Run("MisKeyedPackage", func(t *testing.T) {
		secret, peers := fresh(t)
		peers[2], peers[3] = peers[3], peers[2]
		_, _, err := f.DKGRound2(secret, peers)
		assert.ErrorIs(t, err, ErrMalformedPackage)
	})

	t.Run("TooFewPeers", func(t *testing.T) {
		secret, _ := fresh(t)
		_, _, err := f.DKGRound2(secret, nil)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})
}

func TestSignatureVerificationFailures(t *testing.T) {
	f := New(secp256k1.New())
	keys, pub := runDKG(t, f, 3, 2)
	g := f.Group()
	msg := []byte("verify me")
	sig := sign(t, f, keys, pub, []Identifier{1, 3}, msg)
	require.True(t, f.Verify(msg, sig, pub.VerifyingKey))

	t.Run("WrongMessage", func(t *testing.T) {
		assert.False(t, f.Verify([]byte("other"), sig, pub.VerifyingKey))
	})

	t.Run("WrongGroupKey", func(t *testing.T) {
		_, otherPub := runDKG(t, f, 3, 2)
		assert.False(t, f.Verify(msg, sig, otherPub.VerifyingKey))
	})

	t.Run("TamperedSignatureR", func(t *testing.T) {
		bad := &Signature{R: g.NewPoint().Add(sig.R, g.Generator()), Z: sig.Z}
		assert.False(t, f.Verify(msg, bad, pub.VerifyingKey))
	})

	t.Run("TamperedSignatureZ", func(t *testing.T) {
		bad := &Signature{R: sig.R, Z: g.NewScalar().Add(sig.Z, group.ScalarFromUint16(g, 1))}
		assert.False(t, f.Verify(msg, bad, pub.VerifyingKey))
	})

	t.Run("EmptyMessage", func(t *testing.T) {
		empty := sign(t, f, keys, pub, []Identifier{2, 3}, nil)
		assert.True(t, f.Verify(nil, empty, pub.VerifyingKey))
		assert.False(t, f.Verify(msg, empty, pub.VerifyingKey))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.False(t, f.Verify(msg, nil, pub.VerifyingKey))
	})
}

func TestAggregateNamesCheatingSigner(t *testing.T) {
	f := New(bjj.New())
	g := f.Group()
	keys, pub := runDKG(t, f, 3, 2)

	n1, c1, err := f.NonceCommit(rand.Reader, keys[1].SigningShare)
	require.NoError(t, err)
	n3, c3, err := f.NonceCommit(rand.Reader, keys[3].SigningShare)
	require.NoError(t, err)
	pkg := NewSigningPackage([]byte("m"), map[Identifier]*SigningCommitments{1: c1, 3: c3})

	s1, err := f.SignShare(pkg, n1, keys[1])
	require.NoError(t, err)
	s3, err := f.SignShare(pkg, n3, keys[3])
	require.NoError(t, err)
	s3.Z = g.NewScalar().Add(s3.Z, group.ScalarFromUint16(g, 7))

	_, err = f.Aggregate(pkg, map[Identifier]*SignatureShare{1: s1, 3: s3}, pub)
	var invalid *InvalidShareError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, Identifier(3), invalid.ID)
}

func TestSignShareChecks(t *testing.T) {
	f := New(secp256k1.New())
	keys, _ := runDKG(t, f, 3, 2)

	n1, c1, err := f.NonceCommit(rand.Reader, keys[1].SigningShare)
	require.NoError(t, err)
	n2, c2, err := f.NonceCommit(rand.Reader, keys[2].SigningShare)
	require.NoError(t, err)
	pkg := NewSigningPackage([]byte("m"), map[Identifier]*SigningCommitments{1: c1, 2: c2})

	t.Run("ForeignNonces", func(t *testing.T) {
		_, err := f.SignShare(pkg, n2, keys[1])
		assert.ErrorIs(t, err, ErrNonceMismatch)
	})

	t.Run("NotASigner", func(t *testing.T) {
		_, err := f.SignShare(pkg, n1, keys[3])
		assert.Error(t, err)
	})

	t.Run("BelowThreshold", func(t *testing.T) {
		solo := NewSigningPackage([]byte("m"), map[Identifier]*SigningCommitments{1: c1})
		_, err := f.SignShare(solo, n1, keys[1])
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})
}

func TestNonceCommitIsHedged(t *testing.T) {
	f := New(secp256k1.New())
	keys, _ := runDKG(t, f, 2, 2)

	// A stuck randomness source still yields distinct nonces per key.
	zeros := zeroReader{}
	n1, _, err := f.NonceCommit(zeros, keys[1].SigningShare)
	require.NoError(t, err)
	n2, _, err := f.NonceCommit(zeros, keys[2].SigningShare)
	require.NoError(t, err)
	assert.False(t, n1.Hiding.Equal(n2.Hiding))
	assert.False(t, n1.Hiding.Equal(n1.Binding))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestThresholdValidation(t *testing.T) {
	f := New(secp256k1.New())

	t.Run("ThresholdZero", func(t *testing.T) {
		_, _, err := f.DKGRound1(rand.Reader, 1, 3, 0)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("TotalLessThanThreshold", func(t *testing.T) {
		_, _, err := f.DKGRound1(rand.Reader, 1, 2, 3)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("IdentifierOutOfRange", func(t *testing.T) {
		_, _, err := f.DKGRound1(rand.Reader, 4, 3, 2)
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
		_, _, err = f.DKGRound1(rand.Reader, 0, 3, 2)
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})
}

func TestHasherByName(t *testing.T) {
	for _, name := range []string{HasherSHA256, HasherBlake2b, HasherBlake3} {
		h, err := HasherByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, h.Name())
	}
	_, err := HasherByName("md5")
	assert.Error(t, err)
}

func TestHashersDiffer(t *testing.T) {
	g := secp256k1.New()
	msg := []byte("domain separation")
	a := NewSHA256Hasher().H2(g, msg, msg, msg)
	b := NewBlake2bHasher().H2(g, msg, msg, msg)
	c := NewBlake3Hasher().H2(g, msg, msg, msg)
	assert.False(t, a.Equal(b))
	assert.False(t, b.Equal(c))
	assert.False(t, a.Equal(c))
	assert.True(t, NewBlake3Hasher().H2(g, msg, msg, msg).Equal(c), "hashing must be deterministic")
}
