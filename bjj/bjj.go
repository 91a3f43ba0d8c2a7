package bjj

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/pkg/errors"
)

// Name is the group name embedded into serialized packages.
const Name = "bjj"

const scalarSize = 32

var (
	params = twistededwards.GetEdwardsCurve()
	// order is the prime subgroup order, not the BN254 scalar field.
	order = new(big.Int).Set(&params.Order)
)

// Scalar is an integer modulo the subgroup order.
type Scalar struct {
	v big.Int
}

func scalarOf(s group.Scalar) *big.Int {
	bs, ok := s.(*Scalar)
	if !ok {
		panic(fmt.Sprintf("bjj: foreign scalar %T", s))
	}
	return &bs.v
}

// set stores x mod order into s.
func (s *Scalar) set(x *big.Int) *Scalar {
	s.v.Mod(x, order)
	return s
}

func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	return s.set(new(big.Int).Add(scalarOf(a), scalarOf(b)))
}

func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	return s.set(new(big.Int).Sub(scalarOf(a), scalarOf(b)))
}

func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	return s.set(new(big.Int).Mul(scalarOf(a), scalarOf(b)))
}

func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	return s.set(new(big.Int).Neg(scalarOf(a)))
}

func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	x := scalarOf(a)
	if x.Sign() == 0 {
		return nil, errors.New("bjj: inverse of zero")
	}
	s.v.ModInverse(x, order)
	return s, nil
}

func (s *Scalar) Set(a group.Scalar) group.Scalar {
	s.v.Set(scalarOf(a))
	return s
}

// Bytes is the 32-byte big-endian value.
func (s *Scalar) Bytes() []byte {
	return s.v.FillBytes(make([]byte, scalarSize))
}

// SetBytes accepts any length and reduces.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	return s.set(new(big.Int).SetBytes(data)), nil
}

func (s *Scalar) Equal(b group.Scalar) bool { return s.v.Cmp(scalarOf(b)) == 0 }

func (s *Scalar) IsZero() bool { return s.v.Sign() == 0 }

// Point is a curve point kept in projective coordinates; it is converted
// to affine form only for encoding and comparison.
type Point struct {
	p twistededwards.PointProj
}

func pointOf(p group.Point) *twistededwards.PointProj {
	bp, ok := p.(*Point)
	if !ok {
		panic(fmt.Sprintf("bjj: foreign point %T", p))
	}
	return &bp.p
}

func identity() *Point {
	var pt Point
	pt.p.X.SetZero()
	pt.p.Y.SetOne()
	pt.p.Z.SetOne()
	return &pt
}

func fromAffine(a *twistededwards.PointAffine) *Point {
	var pt Point
	pt.p.FromAffine(a)
	return &pt
}

func (p *Point) affine() twistededwards.PointAffine {
	var a twistededwards.PointAffine
	a.FromProj(&p.p)
	return a
}

func (p *Point) Add(a, b group.Point) group.Point {
	p.p.Add(pointOf(a), pointOf(b))
	return p
}

func (p *Point) Sub(a, b group.Point) group.Point {
	var neg twistededwards.PointProj
	neg.Neg(pointOf(b))
	p.p.Add(pointOf(a), &neg)
	return p
}

func (p *Point) Negate(a group.Point) group.Point {
	p.p.Neg(pointOf(a))
	return p
}

func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	p.p.ScalarMultiplication(pointOf(q), scalarOf(s))
	return p
}

func (p *Point) Set(a group.Point) group.Point {
	p.p.Set(pointOf(a))
	return p
}

// Bytes returns the 32-byte compressed encoding of the affine point.
func (p *Point) Bytes() []byte {
	a := p.affine()
	b := a.Bytes()
	return b[:]
}

// SetBytes decodes a compressed point. Points outside the prime order
// subgroup are rejected.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	var a twistededwards.PointAffine
	if err := a.Unmarshal(data); err != nil {
		return nil, errors.Wrap(err, "bjj: decoding point")
	}
	if !a.IsOnCurve() {
		return nil, errors.New("bjj: point not on curve")
	}
	var check twistededwards.PointAffine
	check.ScalarMultiplication(&a, order)
	if !check.IsZero() {
		return nil, errors.New("bjj: point not in prime order subgroup")
	}
	p.p.FromAffine(&a)
	return p, nil
}

func (p *Point) Equal(b group.Point) bool {
	x, y := p.affine(), pointOf(b)
	var other twistededwards.PointAffine
	other.FromProj(y)
	return x.Equal(&other)
}

func (p *Point) IsIdentity() bool {
	a := p.affine()
	return a.IsZero()
}

// BJJ is the Baby Jubjub [group.Group].
type BJJ struct{}

// New returns the Baby Jubjub group.
func New() *BJJ { return &BJJ{} }

func (*BJJ) Name() string { return Name }

func (*BJJ) NewScalar() group.Scalar { return new(Scalar) }

func (*BJJ) NewPoint() group.Point { return identity() }

func (*BJJ) Generator() group.Point { return fromAffine(&params.Base) }

// RandomScalar reduces 64 bytes from r so the modular bias is negligible.
func (*BJJ) RandomScalar(r io.Reader) (group.Scalar, error) {
	buf := make([]byte, 2*scalarSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "bjj: reading randomness")
	}
	return new(Scalar).set(new(big.Int).SetBytes(buf)), nil
}

// HashToScalar reduces the SHA-256 digest of the concatenated inputs.
func (*BJJ) HashToScalar(data ...[]byte) (group.Scalar, error) {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return new(Scalar).set(new(big.Int).SetBytes(h.Sum(nil))), nil
}

// Order returns the subgroup order, big-endian.
func (*BJJ) Order() []byte { return order.Bytes() }
