package secp256k1

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// Name is the group name embedded into serialized packages.
const Name = "secp256k1"

const (
	scalarSize = 32
	pointSize  = 33
)

var curveOrder = new(big.Int).Set(secp256k1.Params().N)

// Scalar is an integer modulo the secp256k1 group order.
type Scalar struct {
	value secp256k1.ModNScalar
}

func castScalar(s group.Scalar) *Scalar {
	out, ok := s.(*Scalar)
	if !ok {
		panic(fmt.Sprintf("secp256k1: expected *secp256k1.Scalar, got %T", s))
	}
	return out
}

// Add sets s to a + b and returns s.
func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	s.value.Add2(&castScalar(a).value, &castScalar(b).value)
	return s
}

// Sub sets s to a - b and returns s.
func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	var negB secp256k1.ModNScalar
	negB.NegateVal(&castScalar(b).value)
	s.value.Add2(&castScalar(a).value, &negB)
	return s
}

// Mul sets s to a * b and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	s.value.Mul2(&castScalar(a).value, &castScalar(b).value)
	return s
}

// Negate sets s to -a and returns s.
func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	s.value.NegateVal(&castScalar(a).value)
	return s
}

// Invert sets s to a^(-1) and returns s.
func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	as := castScalar(a)
	if as.value.IsZero() {
		return nil, errors.New("secp256k1: cannot invert zero scalar")
	}
	s.value.InverseValNonConst(&as.value)
	return s, nil
}

// Set copies a into s and returns s.
func (s *Scalar) Set(a group.Scalar) group.Scalar {
	s.value.Set(&castScalar(a).value)
	return s
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b := s.value.Bytes()
	return b[:]
}

// SetBytes sets s from a big-endian byte slice of any length, reducing it
// modulo the group order.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) > scalarSize {
		reduced := new(big.Int).SetBytes(data)
		reduced.Mod(reduced, curveOrder)
		data = reduced.FillBytes(make([]byte, scalarSize))
	}
	s.value.SetByteSlice(data)
	return s, nil
}

// Equal reports whether s and b represent the same scalar.
func (s *Scalar) Equal(b group.Scalar) bool {
	return s.value.Equals(&castScalar(b).value)
}

// IsZero reports whether s is zero.
func (s *Scalar) IsZero() bool {
	return s.value.IsZero()
}

// Point is a secp256k1 point in Jacobian coordinates.
type Point struct {
	value secp256k1.JacobianPoint
}

func castPoint(p group.Point) *Point {
	out, ok := p.(*Point)
	if !ok {
		panic(fmt.Sprintf("secp256k1: expected *secp256k1.Point, got %T", p))
	}
	return out
}

func isInfinity(p *secp256k1.JacobianPoint) bool {
	return p.Z.IsZero() || (p.X.IsZero() && p.Y.IsZero())
}

// affine returns an affine copy of p, leaving p untouched.
func (p *Point) affine() secp256k1.JacobianPoint {
	var out secp256k1.JacobianPoint
	out.Set(&p.value)
	if isInfinity(&out) {
		return secp256k1.JacobianPoint{}
	}
	out.ToAffine()
	out.X.Normalize()
	out.Y.Normalize()
	return out
}

// Add sets p to a + b and returns p.
func (p *Point) Add(a, b group.Point) group.Point {
	var out secp256k1.JacobianPoint
	secp256k1.AddNonConst(&castPoint(a).value, &castPoint(b).value, &out)
	p.value.Set(&out)
	return p
}

// Sub sets p to a - b and returns p.
func (p *Point) Sub(a, b group.Point) group.Point {
	var negB Point
	negB.Negate(b)
	return p.Add(a, &negB)
}

// Negate sets p to -a and returns p.
func (p *Point) Negate(a group.Point) group.Point {
	out := castPoint(a).affine()
	if !isInfinity(&out) {
		out.Y.Negate(1)
		out.Y.Normalize()
	}
	p.value.Set(&out)
	return p
}

// ScalarMult sets p to s * q and returns p.
func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	var out secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&castScalar(s).value, &castPoint(q).value, &out)
	p.value.Set(&out)
	return p
}

// Set copies a into p and returns p.
func (p *Point) Set(a group.Point) group.Point {
	p.value.Set(&castPoint(a).value)
	return p
}

// Bytes returns the 33-byte compressed encoding of p.
func (p *Point) Bytes() []byte {
	out := make([]byte, pointSize)
	v := p.affine()
	if isInfinity(&v) {
		return out
	}
	out[0] = secp256k1.PubKeyFormatCompressedEven
	if v.Y.IsOdd() {
		out[0] = secp256k1.PubKeyFormatCompressedOdd
	}
	v.X.PutBytesUnchecked(out[1:])
	return out
}

// SetBytes decodes a compressed point into p.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != pointSize {
		return nil, errors.Errorf("secp256k1: invalid point length %d", len(data))
	}
	var v secp256k1.JacobianPoint
	switch data[0] {
	case 0:
		for _, b := range data[1:] {
			if b != 0 {
				return nil, errors.New("secp256k1: malformed identity encoding")
			}
		}
		p.value = v
		return p, nil
	case secp256k1.PubKeyFormatCompressedEven, secp256k1.PubKeyFormatCompressedOdd:
	default:
		return nil, errors.Errorf("secp256k1: invalid point prefix 0x%02x", data[0])
	}
	if v.X.SetByteSlice(data[1:]) {
		return nil, errors.New("secp256k1: x coordinate out of range")
	}
	if !secp256k1.DecompressY(&v.X, data[0] == secp256k1.PubKeyFormatCompressedOdd, &v.Y) {
		return nil, errors.New("secp256k1: x coordinate not on curve")
	}
	v.Z.SetInt(1)
	p.value = v
	return p, nil
}

// Equal reports whether p and b represent the same point.
func (p *Point) Equal(b group.Point) bool {
	x, y := p.affine(), castPoint(b).affine()
	xInf, yInf := isInfinity(&x), isInfinity(&y)
	if xInf || yInf {
		return xInf == yInf
	}
	return x.X.Equals(&y.X) && x.Y.Equals(&y.Y)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return isInfinity(&p.value)
}

// Secp256k1 implements [group.Group] for the secp256k1 curve.
type Secp256k1 struct{}

// New returns the secp256k1 group.
func New() *Secp256k1 {
	return &Secp256k1{}
}

// Name implements group.Group.
func (g *Secp256k1) Name() string {
	return Name
}

// NewScalar returns a new zero scalar.
func (g *Secp256k1) NewScalar() group.Scalar {
	return new(Scalar)
}

// NewPoint returns the point at infinity.
func (g *Secp256k1) NewPoint() group.Point {
	return new(Point)
}

// Generator returns the standard base point G.
func (g *Secp256k1) Generator() group.Point {
	var one secp256k1.ModNScalar
	one.SetInt(1)
	p := new(Point)
	secp256k1.ScalarBaseMultNonConst(&one, &p.value)
	return p
}

// RandomScalar reads 64 bytes from r and reduces them modulo the order.
func (g *Secp256k1) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [2 * scalarSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, errors.Wrap(err, "secp256k1: reading randomness")
	}
	return new(Scalar).SetBytes(buf[:])
}

// HashToScalar hashes the concatenated data with SHA-256 and reduces the
// digest modulo the order.
func (g *Secp256k1) HashToScalar(data ...[]byte) (group.Scalar, error) {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return new(Scalar).SetBytes(h.Sum(nil))
}

// Order returns the group order as a big-endian byte slice.
func (g *Secp256k1) Order() []byte {
	return curveOrder.Bytes()
}
