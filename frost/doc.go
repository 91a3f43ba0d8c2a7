// Package frost implements the FROST (Flexible Round-Optimized Schnorr
// Threshold) signature primitives over an arbitrary [group.Group].
//
// The package is stateless: every primitive takes its inputs explicitly and
// returns new values, which lets the ceremony coordinator keep all progress
// in caller-held state between calls.
//
// # Distributed Key Generation
//
//  1. Each participant calls [FROST.DKGRound1] with its [Identifier]. The
//     returned [Round1Secret] stays private; the [Round1Package] (Feldman
//     commitments, a proof of knowledge of the constant term and the
//     evaluations for every other identifier) is handed to the others.
//  2. Each participant calls [FROST.DKGRound2] with its secret and every
//     peer's package, obtaining its [KeyPackage] and the shared
//     [PublicKeyPackage].
//
// [FROST.GenerateWithDealer] produces the same outputs in one shot from a
// single trusted party.
//
// # Threshold Signing
//
//  1. Each signer calls [FROST.NonceCommit] and publishes the commitments.
//  2. The commitments and message form a [SigningPackage]; each signer calls
//     [FROST.SignShare].
//  3. [FROST.Aggregate] checks every share and produces the [Signature].
//  4. Anyone can check it with [FROST.Verify].
//
// # Example
//
//	f := frost.New(secp256k1.New())
//	keys, pub, _ := f.GenerateWithDealer(rand.Reader, nil, 3, 2)
//
//	n1, c1, _ := f.NonceCommit(rand.Reader, keys[1].SigningShare)
//	n2, c2, _ := f.NonceCommit(rand.Reader, keys[2].SigningShare)
//	pkg := frost.NewSigningPackage(msg, map[frost.Identifier]*frost.SigningCommitments{1: c1, 2: c2})
//
//	s1, _ := f.SignShare(pkg, n1, keys[1])
//	s2, _ := f.SignShare(pkg, n2, keys[2])
//	sig, _ := f.Aggregate(pkg, map[frost.Identifier]*frost.SignatureShare{1: s1, 2: s2}, pub)
//	ok := f.Verify(msg, sig, pub.VerifyingKey)
//
// # Encoding
//
// Every package type has an Encode/Decode pair on [FROST]. Encodings are
// canonical CBOR tagged with the group name and package kind, so bytes
// produced for one curve or type are rejected as another.
//
// # Security Considerations
//
// Nonces from [FROST.NonceCommit] must be used for exactly one call to
// [FROST.SignShare]. Round-1 packages carry the shares for every peer in the
// clear; whoever moves them between participants must keep them
// confidential.
package frost
