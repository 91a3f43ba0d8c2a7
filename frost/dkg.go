package frost

import (
	"io"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/pkg/errors"
)

// Errors returned by the distributed key generation.
var (
	ErrInvalidThreshold = errors.New("frost: invalid threshold")
	ErrInvalidProof     = errors.New("frost: invalid proof of knowledge")
	ErrInvalidShare     = errors.New("frost: share does not match commitments")
	ErrMalformedPackage = errors.New("frost: malformed package")
)

// Round1Secret is the private half of a participant's first DKG round.
// It must stay with the participant (or whoever holds its state) until
// round 2.
type Round1Secret struct {
	ID           Identifier
	Coefficients []group.Scalar
	Commitments  []group.Point
	MinSigners   uint16
	MaxSigners   uint16
}

// Round1Package is the public half of a participant's first DKG round.
//
// Commitments are the Feldman commitments to the participant's polynomial,
// (ProofR, ProofZ) is a Schnorr proof of knowledge of its constant term, and
// Shares holds the polynomial evaluated at every other identifier.
type Round1Package struct {
	ID          Identifier
	Commitments []group.Point
	ProofR      group.Point
	ProofZ      group.Scalar
	Shares      map[Identifier]group.Scalar
}

// KeyPackage is everything a participant needs to sign.
type KeyPackage struct {
	ID             Identifier
	SigningShare   group.Scalar
	VerifyingShare group.Point
	VerifyingKey   group.Point
	MinSigners     uint16
}

// PublicKeyPackage holds the group verifying key and the verifying share
// of every participant that took part in key generation.
type PublicKeyPackage struct {
	VerifyingShares map[Identifier]group.Point
	VerifyingKey    group.Point
	MinSigners      uint16
}

// ValidateParameters checks 1 <= minSigners <= maxSigners.
func ValidateParameters(maxSigners, minSigners uint16) error {
	if minSigners == 0 {
		return errors.Wrap(ErrInvalidThreshold, "min signers must be at least 1")
	}
	if minSigners > maxSigners {
		return errors.Wrapf(ErrInvalidThreshold, "min signers %d exceeds max signers %d", minSigners, maxSigners)
	}
	return nil
}

// DKGRound1 samples the participant's secret polynomial of degree
// minSigners-1, commits to it and proves knowledge of its constant term.
func (f *FROST) DKGRound1(r io.Reader, id Identifier, maxSigners, minSigners uint16) (*Round1Secret, *Round1Package, error) {
	if err := ValidateParameters(maxSigners, minSigners); err != nil {
		return nil, nil, err
	}
	if err := id.Validate(maxSigners); err != nil {
		return nil, nil, err
	}

	coeffs, err := f.randomPolynomial(r, nil, int(minSigners)-1)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sampling polynomial")
	}
	commits := f.commit(coeffs)

	k, err := f.group.RandomScalar(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sampling proof nonce")
	}
	R := f.group.NewPoint().ScalarMult(k, f.group.Generator())
	c := f.proofChallenge(id, R, commits[0])
	z := f.group.NewScalar().Add(k, f.group.NewScalar().Mul(coeffs[0], c))

	shares := make(map[Identifier]group.Scalar, maxSigners-1)
	for i := 1; i <= int(maxSigners); i++ {
		j := Identifier(i)
		if j == id {
			continue
		}
		shares[j] = f.evalPolynomial(coeffs, j.Scalar(f.group))
	}

	secret := &Round1Secret{
		ID:           id,
		Coefficients: coeffs,
		Commitments:  commits,
		MinSigners:   minSigners,
		MaxSigners:   maxSigners,
	}
	pkg := &Round1Package{
		ID:          id,
		Commitments: commits,
		ProofR:      R,
		ProofZ:      z,
		Shares:      shares,
	}
	return secret, pkg, nil
}

func (f *FROST) proofChallenge(id Identifier, R, c0 group.Point) group.Scalar {
	ctx := append([]byte("dkg"), id.Scalar(f.group).Bytes()...)
	return f.hasher.H2(f.group, R.Bytes(), c0.Bytes(), ctx)
}

// verifyProof checks z*G == R + c*C_0.
func (f *FROST) verifyProof(pkg *Round1Package) bool {
	c := f.proofChallenge(pkg.ID, pkg.ProofR, pkg.Commitments[0])
	lhs := f.group.NewPoint().ScalarMult(pkg.ProofZ, f.group.Generator())
	rhs := f.group.NewPoint().Add(pkg.ProofR, f.group.NewPoint().ScalarMult(c, pkg.Commitments[0]))
	return lhs.Equal(rhs)
}

// DKGRound2 verifies every peer's round-1 package against secret and
// combines the received shares into the participant's key package.
//
// peers must contain the round-1 package of every other participant of the
// ceremony, keyed by identifier. The resulting group key is the sum of the
// constant-term commitments of secret's owner and all peers.
func (f *FROST) DKGRound2(secret *Round1Secret, peers map[Identifier]*Round1Package) (*KeyPackage, *PublicKeyPackage, error) {
	if secret == nil {
		return nil, nil, errors.Wrap(ErrMalformedPackage, "missing round 1 secret")
	}
	if len(peers)+1 < int(secret.MinSigners) {
		return nil, nil, errors.Wrapf(ErrInvalidThreshold, "%d participants, need %d", len(peers)+1, secret.MinSigners)
	}

	myID := secret.ID.Scalar(f.group)
	signingShare := f.evalPolynomial(secret.Coefficients, myID)
	commitments := map[Identifier][]group.Point{secret.ID: secret.Commitments}

	for _, id := range sortedIdentifiers(peers) {
		pkg := peers[id]
		if pkg == nil || pkg.ID != id {
			return nil, nil, errors.Wrapf(ErrMalformedPackage, "package keyed %d", id)
		}
		if id == secret.ID {
			return nil, nil, errors.Wrapf(ErrMalformedPackage, "peer %d has our identifier", id)
		}
		if err := id.Validate(secret.MaxSigners); err != nil {
			return nil, nil, err
		}
		if len(pkg.Commitments) != int(secret.MinSigners) {
			return nil, nil, errors.Wrapf(ErrMalformedPackage, "peer %d committed to %d coefficients, want %d",
				id, len(pkg.Commitments), secret.MinSigners)
		}
		if !f.verifyProof(pkg) {
			return nil, nil, errors.Wrapf(ErrInvalidProof, "peer %d", id)
		}
		share, ok := pkg.Shares[secret.ID]
		if !ok {
			return nil, nil, errors.Wrapf(ErrMalformedPackage, "peer %d sent no share for %d", id, secret.ID)
		}
		lhs := f.group.NewPoint().ScalarMult(share, f.group.Generator())
		if !lhs.Equal(f.evalCommitments(pkg.Commitments, myID)) {
			return nil, nil, errors.Wrapf(ErrInvalidShare, "from peer %d", id)
		}
		signingShare = f.group.NewScalar().Add(signingShare, share)
		commitments[id] = pkg.Commitments
	}

	pub := f.publicKeyPackage(commitments, secret.MinSigners)
	kp := &KeyPackage{
		ID:             secret.ID,
		SigningShare:   signingShare,
		VerifyingShare: f.group.NewPoint().ScalarMult(signingShare, f.group.Generator()),
		VerifyingKey:   pub.VerifyingKey,
		MinSigners:     secret.MinSigners,
	}
	if !kp.VerifyingShare.Equal(pub.VerifyingShares[secret.ID]) {
		return nil, nil, errors.Wrap(ErrInvalidShare, "derived signing share does not match commitments")
	}
	return kp, pub, nil
}

// publicKeyPackage derives the group key and a verifying share for every
// contributing identifier from the summed commitments.
func (f *FROST) publicKeyPackage(commitments map[Identifier][]group.Point, minSigners uint16) *PublicKeyPackage {
	summed := make([]group.Point, minSigners)
	for i := range summed {
		summed[i] = f.group.NewPoint()
	}
	for _, cs := range commitments {
		for i, c := range cs {
			summed[i] = f.group.NewPoint().Add(summed[i], c)
		}
	}

	shares := make(map[Identifier]group.Point, len(commitments))
	for id := range commitments {
		shares[id] = f.evalCommitments(summed, id.Scalar(f.group))
	}
	return &PublicKeyPackage{
		VerifyingShares: shares,
		VerifyingKey:    summed[0],
		MinSigners:      minSigners,
	}
}
