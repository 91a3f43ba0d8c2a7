package frost

import (
	"io"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
)

// FROST binds the threshold primitives to a group and a hash suite.
// A FROST value holds no ceremony state and is safe for concurrent use.
type FROST struct {
	group  group.Group
	hasher Hasher
}

// Signature is a Schnorr signature (R, z) verifiable against the group
// verifying key.
type Signature struct {
	R group.Point
	Z group.Scalar
}

// New returns FROST over g with the default SHA-256 hash suite.
func New(g group.Group) *FROST {
	return NewWithHasher(g, NewSHA256Hasher())
}

// NewWithHasher returns FROST over g using h for H1 to H5.
func NewWithHasher(g group.Group, h Hasher) *FROST {
	return &FROST{group: g, hasher: h}
}

// Group returns the group the primitives operate in.
func (f *FROST) Group() group.Group {
	return f.group
}

// Hasher returns the hash suite.
func (f *FROST) Hasher() Hasher {
	return f.hasher
}

// evalPolynomial evaluates coeffs at x using Horner's rule.
func (f *FROST) evalPolynomial(coeffs []group.Scalar, x group.Scalar) group.Scalar {
	result := f.group.NewScalar().Set(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		result = f.group.NewScalar().Mul(result, x)
		result = f.group.NewScalar().Add(result, coeffs[i])
	}
	return result
}

// evalCommitments returns sum(C_k * x^k), the public image of the committed
// polynomial at x.
func (f *FROST) evalCommitments(commitments []group.Point, x group.Scalar) group.Point {
	result := f.group.NewPoint()
	xPower := group.ScalarFromUint16(f.group, 1)
	for _, c := range commitments {
		term := f.group.NewPoint().ScalarMult(xPower, c)
		result = f.group.NewPoint().Add(result, term)
		xPower = f.group.NewScalar().Mul(xPower, x)
	}
	return result
}

// randomPolynomial returns degree coefficients plus a constant term. When
// secret is nil the constant term is random as well.
func (f *FROST) randomPolynomial(r io.Reader, secret group.Scalar, degree int) ([]group.Scalar, error) {
	coeffs := make([]group.Scalar, degree+1)
	for i := range coeffs {
		if i == 0 && secret != nil {
			coeffs[0] = f.group.NewScalar().Set(secret)
			continue
		}
		c, err := f.group.RandomScalar(r)
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	return coeffs, nil
}

// commit returns C_k = a_k * G for each coefficient.
func (f *FROST) commit(coeffs []group.Scalar) []group.Point {
	commits := make([]group.Point, len(coeffs))
	for i, c := range coeffs {
		commits[i] = f.group.NewPoint().ScalarMult(c, f.group.Generator())
	}
	return commits
}
