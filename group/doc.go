// Package group is the curve abstraction under the frost package.
//
// A [Group] hands out [Scalar] and [Point] values and knows its generator,
// order and hash-to-scalar map. Every arithmetic method stores its result
// in the receiver:
//
//	// r = a + b*c
//	r := g.NewScalar().Mul(b, c)
//	r = g.NewScalar().Add(a, r)
//
// The secp256k1 package is the default group for ceremonies; the bjj
// package provides Baby Jubjub. A new implementation must keep scalars
// reduced, validate point encodings and use a Name no other group uses.
package group
