package frost

import (
	"fmt"
	"io"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/pkg/errors"
)

// ErrNonceMismatch is returned when a signer's nonces do not belong to the
// commitment recorded for it in the signing package.
var ErrNonceMismatch = errors.New("frost: nonces do not match signing package commitment")

// SigningNonces is a signer's secret nonce pair for one signing session.
// Nonces must be used for exactly one signature share.
type SigningNonces struct {
	Hiding  group.Scalar // d
	Binding group.Scalar // e
}

// SigningCommitments are the public commitments D = d*G and E = e*G.
type SigningCommitments struct {
	Hiding  group.Point
	Binding group.Point
}

// SigningPackage binds the message to the commitments of every signer.
type SigningPackage struct {
	Message     []byte
	Commitments map[Identifier]*SigningCommitments
}

// SignatureShare is one signer's contribution z_i.
type SignatureShare struct {
	Z group.Scalar
}

// InvalidShareError identifies the signer whose share failed verification
// during aggregation.
type InvalidShareError struct {
	ID Identifier
}

func (e *InvalidShareError) Error() string {
	return fmt.Sprintf("frost: invalid signature share from %d", e.ID)
}

// NonceCommit generates a hedged nonce pair for signingShare together with
// its commitments. Each nonce is H3 of 32 fresh random bytes and the
// signing share, so a faulty randomness source alone cannot repeat nonces
// across keys.
func (f *FROST) NonceCommit(r io.Reader, signingShare group.Scalar) (*SigningNonces, *SigningCommitments, error) {
	d, err := f.nonce(r, signingShare, "hiding")
	if err != nil {
		return nil, nil, err
	}
	e, err := f.nonce(r, signingShare, "binding")
	if err != nil {
		return nil, nil, err
	}
	return &SigningNonces{Hiding: d, Binding: e}, f.commitNonces(d, e), nil
}

func (f *FROST) nonce(r io.Reader, signingShare group.Scalar, label string) (group.Scalar, error) {
	var seed [32]byte
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return nil, errors.Wrap(err, "reading nonce randomness")
	}
	return f.hasher.H3(f.group, seed[:], signingShare.Bytes(), []byte(label)), nil
}

func (f *FROST) commitNonces(d, e group.Scalar) *SigningCommitments {
	return &SigningCommitments{
		Hiding:  f.group.NewPoint().ScalarMult(d, f.group.Generator()),
		Binding: f.group.NewPoint().ScalarMult(e, f.group.Generator()),
	}
}

// Commitments recomputes the public commitments of n.
func (f *FROST) Commitments(n *SigningNonces) *SigningCommitments {
	return f.commitNonces(n.Hiding, n.Binding)
}

// NewSigningPackage returns a signing package over message. The
// commitments map is copied.
func NewSigningPackage(message []byte, commitments map[Identifier]*SigningCommitments) *SigningPackage {
	cs := make(map[Identifier]*SigningCommitments, len(commitments))
	for id, c := range commitments {
		cs[id] = c
	}
	return &SigningPackage{Message: append([]byte(nil), message...), Commitments: cs}
}

// SignShare computes the signer's share
//
//	z_i = d + e*rho_i + lambda_i*s_i*c
//
// after checking that the signer and its nonces belong to pkg.
func (f *FROST) SignShare(pkg *SigningPackage, nonces *SigningNonces, kp *KeyPackage) (*SignatureShare, error) {
	if pkg == nil || nonces == nil || kp == nil {
		return nil, errors.Wrap(ErrMalformedPackage, "missing signing input")
	}
	if len(pkg.Commitments) < int(kp.MinSigners) {
		return nil, errors.Wrapf(ErrInvalidThreshold, "%d signers, need %d", len(pkg.Commitments), kp.MinSigners)
	}
	mine, ok := pkg.Commitments[kp.ID]
	if !ok {
		return nil, errors.Errorf("frost: signer %d not in signing package", kp.ID)
	}
	expected := f.Commitments(nonces)
	if !expected.Hiding.Equal(mine.Hiding) || !expected.Binding.Equal(mine.Binding) {
		return nil, ErrNonceMismatch
	}

	ids := sortedIdentifiers(pkg.Commitments)
	rhos := f.computeBindingFactors(pkg, kp.VerifyingKey, ids)
	R := f.groupCommitment(pkg, rhos, ids)
	c := f.challenge(R, kp.VerifyingKey, pkg.Message)
	lambda, err := f.lagrangeCoefficient(kp.ID, ids)
	if err != nil {
		return nil, err
	}

	// z = d + rho*e + lambda*s*c
	z := f.group.NewScalar().Mul(rhos[kp.ID], nonces.Binding)
	z = f.group.NewScalar().Add(nonces.Hiding, z)
	lambdaS := f.group.NewScalar().Mul(lambda, kp.SigningShare)
	lambdaSC := f.group.NewScalar().Mul(lambdaS, c)
	z = f.group.NewScalar().Add(z, lambdaSC)

	return &SignatureShare{Z: z}, nil
}

// Aggregate verifies every share against its signer's verifying share and
// sums them into the final signature. shares must be keyed by exactly the
// identifiers of pkg. A share that fails verification is reported as an
// *InvalidShareError.
func (f *FROST) Aggregate(pkg *SigningPackage, shares map[Identifier]*SignatureShare, pub *PublicKeyPackage) (*Signature, error) {
	if pkg == nil || pub == nil {
		return nil, errors.Wrap(ErrMalformedPackage, "missing aggregation input")
	}
	if len(shares) != len(pkg.Commitments) {
		return nil, errors.Errorf("frost: %d shares for %d commitments", len(shares), len(pkg.Commitments))
	}
	if len(pkg.Commitments) < int(pub.MinSigners) {
		return nil, errors.Wrapf(ErrInvalidThreshold, "%d signers, need %d", len(pkg.Commitments), pub.MinSigners)
	}

	ids := sortedIdentifiers(pkg.Commitments)
	rhos := f.computeBindingFactors(pkg, pub.VerifyingKey, ids)
	R := f.groupCommitment(pkg, rhos, ids)
	c := f.challenge(R, pub.VerifyingKey, pkg.Message)

	z := f.group.NewScalar()
	for _, id := range ids {
		share, ok := shares[id]
		if !ok || share == nil {
			return nil, errors.Errorf("frost: missing signature share from %d", id)
		}
		Y, ok := pub.VerifyingShares[id]
		if !ok {
			return nil, errors.Errorf("frost: no verifying share for %d", id)
		}
		lambda, err := f.lagrangeCoefficient(id, ids)
		if err != nil {
			return nil, err
		}
		// z_i*G == D_i + rho_i*E_i + c*lambda_i*Y_i
		comm := pkg.Commitments[id]
		lhs := f.group.NewPoint().ScalarMult(share.Z, f.group.Generator())
		rhs := f.group.NewPoint().Add(comm.Hiding, f.group.NewPoint().ScalarMult(rhos[id], comm.Binding))
		cl := f.group.NewScalar().Mul(c, lambda)
		rhs = f.group.NewPoint().Add(rhs, f.group.NewPoint().ScalarMult(cl, Y))
		if !lhs.Equal(rhs) {
			return nil, &InvalidShareError{ID: id}
		}
		z = f.group.NewScalar().Add(z, share.Z)
	}

	sig := &Signature{R: R, Z: z}
	if !f.Verify(pkg.Message, sig, pub.VerifyingKey) {
		return nil, errors.New("frost: aggregated signature does not verify")
	}
	return sig, nil
}

// Verify checks z*G == R + c*Y.
func (f *FROST) Verify(message []byte, sig *Signature, groupKey group.Point) bool {
	if sig == nil || sig.R == nil || sig.Z == nil || groupKey == nil {
		return false
	}
	c := f.challenge(sig.R, groupKey, message)
	lhs := f.group.NewPoint().ScalarMult(sig.Z, f.group.Generator())
	cY := f.group.NewPoint().ScalarMult(c, groupKey)
	rhs := f.group.NewPoint().Add(sig.R, cY)
	return lhs.Equal(rhs)
}

func (f *FROST) challenge(R, Y group.Point, message []byte) group.Scalar {
	return f.hasher.H2(f.group, R.Bytes(), Y.Bytes(), message)
}

// encodeCommitmentList serializes the commitments in ascending identifier
// order so every signer hashes the same bytes.
func (f *FROST) encodeCommitmentList(pkg *SigningPackage, ids []Identifier) []byte {
	var out []byte
	for _, id := range ids {
		c := pkg.Commitments[id]
		out = append(out, id.Scalar(f.group).Bytes()...)
		out = append(out, c.Hiding.Bytes()...)
		out = append(out, c.Binding.Bytes()...)
	}
	return out
}

func (f *FROST) computeBindingFactors(pkg *SigningPackage, groupKey group.Point, ids []Identifier) map[Identifier]group.Scalar {
	prefix := append(groupKey.Bytes(), f.hasher.H4(f.group, pkg.Message)...)
	encCommitHash := f.hasher.H5(f.group, f.encodeCommitmentList(pkg, ids))

	factors := make(map[Identifier]group.Scalar, len(ids))
	for _, id := range ids {
		factors[id] = f.hasher.H1(f.group, prefix, encCommitHash, id.Scalar(f.group).Bytes())
	}
	return factors
}

// groupCommitment returns R = sum(D_i + rho_i*E_i).
func (f *FROST) groupCommitment(pkg *SigningPackage, rhos map[Identifier]group.Scalar, ids []Identifier) group.Point {
	R := f.group.NewPoint()
	for _, id := range ids {
		c := pkg.Commitments[id]
		rhoE := f.group.NewPoint().ScalarMult(rhos[id], c.Binding)
		R = f.group.NewPoint().Add(R, f.group.NewPoint().Add(c.Hiding, rhoE))
	}
	return R
}

// lagrangeCoefficient returns lambda_i = prod x_j / (x_j - x_i) over the
// other signers.
func (f *FROST) lagrangeCoefficient(id Identifier, ids []Identifier) (group.Scalar, error) {
	x := id.Scalar(f.group)
	num := group.ScalarFromUint16(f.group, 1)
	den := group.ScalarFromUint16(f.group, 1)
	for _, other := range ids {
		if other == id {
			continue
		}
		xj := other.Scalar(f.group)
		num = f.group.NewScalar().Mul(num, xj)
		den = f.group.NewScalar().Mul(den, f.group.NewScalar().Sub(xj, x))
	}
	denInv, err := f.group.NewScalar().Invert(den)
	if err != nil {
		return nil, errors.Wrap(err, "lagrange coefficient")
	}
	return f.group.NewScalar().Mul(num, denInv), nil
}
