package frost

import (
	"crypto/sha256"
	"hash"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Hash suite names accepted by [HasherByName].
const (
	HasherSHA256  = "sha256"
	HasherBlake2b = "blake2b"
	HasherBlake3  = "blake3"
)

// Domain tags, one per FROST hash.
const (
	tagRho   = "rho"
	tagChal  = "chal"
	tagNonce = "nonce"
	tagMsg   = "msg"
	tagCom   = "com"
)

// Hasher is the set of hash functions a FROST suite is parameterised by.
type Hasher interface {
	// Name returns the suite name, one of the Hasher* constants.
	Name() string
	// H1 derives a signer's binding factor from the message prefix, the
	// hashed commitment list and the signer's identifier.
	H1(g group.Group, msg, encCommitList, signerID []byte) group.Scalar
	// H2 is the Schnorr challenge over R, the public key and the message.
	H2(g group.Group, R, Y, msg []byte) group.Scalar
	// H3 derives a nonce from fresh randomness, a secret and a label.
	H3(g group.Group, seed, rho, msg []byte) group.Scalar
	// H4 hashes the message being signed.
	H4(g group.Group, msg []byte) []byte
	// H5 hashes the encoded commitment list.
	H5(g group.Group, encCommitList []byte) []byte
}

// tagged builds all five hashes from one domain-separated hash function.
// H1 to H3 reduce wide output into a scalar; H4 and H5 return the digest.
type tagged struct {
	name   string
	prefix string
	newFn  func() hash.Hash
	// wide returns the bytes reduced into a scalar, in the big-endian
	// order Scalar.SetBytes expects.
	wide func(h hash.Hash) []byte
}

func (t *tagged) Name() string { return t.name }

func (t *tagged) sum(tag string, data [][]byte) hash.Hash {
	h := t.newFn()
	h.Write([]byte(t.prefix))
	h.Write([]byte(tag))
	for _, d := range data {
		h.Write(d)
	}
	return h
}

func (t *tagged) digest(tag string, data ...[]byte) []byte {
	return t.sum(tag, data).Sum(nil)
}

func (t *tagged) scalar(g group.Group, tag string, data ...[]byte) group.Scalar {
	s, _ := g.NewScalar().SetBytes(t.wide(t.sum(tag, data)))
	return s
}

func (t *tagged) H1(g group.Group, msg, encCommitList, signerID []byte) group.Scalar {
	return t.scalar(g, tagRho, msg, encCommitList, signerID)
}

func (t *tagged) H2(g group.Group, R, Y, msg []byte) group.Scalar {
	return t.scalar(g, tagChal, R, Y, msg)
}

func (t *tagged) H3(g group.Group, seed, rho, msg []byte) group.Scalar {
	return t.scalar(g, tagNonce, seed, rho, msg)
}

func (t *tagged) H4(_ group.Group, msg []byte) []byte {
	return t.digest(tagMsg, msg)
}

func (t *tagged) H5(_ group.Group, encCommitList []byte) []byte {
	return t.digest(tagCom, encCommitList)
}

// NewSHA256Hasher returns the default suite: SHA-256 with no prefix and
// the 32-byte digest reduced directly.
func NewSHA256Hasher() Hasher {
	return &tagged{
		name:  HasherSHA256,
		newFn: sha256.New,
		wide:  func(h hash.Hash) []byte { return h.Sum(nil) },
	}
}

// Blake2bPrefix is the Ledger/iden3 compatible domain prefix.
const Blake2bPrefix = "FROST-EDBABYJUJUB-BLAKE512-v1"

// NewBlake2bHasher returns Blake2b-512 with [Blake2bPrefix]. The 64-byte
// output is read little-endian before reduction, matching Ledger/iden3
// FROST on Baby Jubjub.
func NewBlake2bHasher() Hasher {
	return &tagged{
		name:   HasherBlake2b,
		prefix: Blake2bPrefix,
		newFn: func() hash.Hash {
			h, _ := blake2b.New512(nil)
			return h
		},
		wide: func(h hash.Hash) []byte {
			sum := h.Sum(nil)
			for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
				sum[i], sum[j] = sum[j], sum[i]
			}
			return sum
		},
	}
}

// NewBlake3Hasher returns BLAKE3 under the "FROST-BLAKE3-v1" context.
// Scalars are reduced from 64 bytes of extendable output.
func NewBlake3Hasher() Hasher {
	return &tagged{
		name:   HasherBlake3,
		prefix: "FROST-BLAKE3-v1",
		newFn:  func() hash.Hash { return blake3.New() },
		wide: func(h hash.Hash) []byte {
			out := make([]byte, 64)
			h.(*blake3.Hasher).Digest().Read(out)
			return out
		},
	}
}

// HasherByName returns the suite registered under name. The empty name
// selects SHA-256.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case HasherSHA256, "":
		return NewSHA256Hasher(), nil
	case HasherBlake2b:
		return NewBlake2bHasher(), nil
	case HasherBlake3:
		return NewBlake3Hasher(), nil
	default:
		return nil, errors.Errorf("frost: unknown hasher %q", name)
	}
}
