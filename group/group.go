package group

import "io"

// Scalar is an integer modulo the group order: a secret share, a
// polynomial coefficient, a nonce or a participant identifier.
//
// Arithmetic writes its result into the receiver and returns it, so calls
// chain as g.NewScalar().Mul(a, b).
type Scalar interface {
	Add(a, b Scalar) Scalar
	Sub(a, b Scalar) Scalar
	Mul(a, b Scalar) Scalar
	Negate(a Scalar) Scalar
	// Invert fails on zero.
	Invert(a Scalar) (Scalar, error)
	Set(a Scalar) Scalar
	// Bytes is fixed length and big-endian.
	Bytes() []byte
	// SetBytes takes big-endian input of any length and reduces it.
	SetBytes(data []byte) (Scalar, error)
	Equal(b Scalar) bool
	IsZero() bool
}

// Point is a group element: a commitment, a verifying share or a group
// verifying key. Arithmetic follows the same receiver convention as Scalar.
type Point interface {
	Add(a, b Point) Point
	Sub(a, b Point) Point
	Negate(a Point) Point
	ScalarMult(s Scalar, p Point) Point
	Set(a Point) Point
	// Bytes is the compressed encoding. The identity has its own fixed
	// encoding per curve.
	Bytes() []byte
	// SetBytes rejects anything that is not a canonical encoding of an
	// element of the prime order group.
	SetBytes(data []byte) (Point, error)
	Equal(b Point) bool
	IsIdentity() bool
}

// Group is a prime-order group. Nothing above this interface knows which
// curve is in use.
//
//	g := secp256k1.New()
//	s, _ := g.RandomScalar(rand.Reader)
//	pub := g.NewPoint().ScalarMult(s, g.Generator())
type Group interface {
	// Name identifies the group in serialized packages, so material from
	// one group is never decoded as another.
	Name() string
	NewScalar() Scalar
	// NewPoint returns the identity.
	NewPoint() Point
	Generator() Point
	// RandomScalar samples uniformly, reading only from r.
	RandomScalar(r io.Reader) (Scalar, error)
	HashToScalar(data ...[]byte) (Scalar, error)
	// Order is big-endian.
	Order() []byte
}

// ScalarFromUint16 maps a small integer, usually an identifier, into g.
func ScalarFromUint16(g Group, v uint16) Scalar {
	s, _ := g.NewScalar().SetBytes([]byte{byte(v >> 8), byte(v)})
	return s
}
