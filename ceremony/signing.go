package ceremony

import (
	"time"

	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/pkg/errors"
)

// SigningRound1Result is returned by SigningRound1.
type SigningRound1Result struct {
	State *SigningState
	// Commitment is the signer's public nonce commitment.
	Commitment Blob
}

// SigningRound2Result is returned by SigningRound2.
type SigningRound2Result struct {
	State *SigningState
	// Signature is set by the call that completes the ceremony.
	Signature Blob
}

// CreateSigningState starts a signing ceremony for message by signers.
// Signer ids must be unique.
func (c *Coordinator) CreateSigningState(message []byte, signers []string) (_ *SigningState, err error) {
	defer c.track(OpCreateSigning, time.Now(), &err)

	if len(signers) == 0 {
		return nil, insufficient(1, 0, "at least one signer is required")
	}
	if dup, ok := duplicate(signers); ok {
		return nil, newError(KindInvalidParticipant, "signer %q listed twice", dup)
	}
	s := &SigningState{
		CeremonyID:      c.newID(),
		Message:         Blob(message).Clone(),
		CurrentRound:    round1,
		Signers:         append([]string(nil), signers...),
		Round1Packages:  map[string]Blob{},
		SignatureShares: map[string]Blob{},
		Identifiers:     map[string]frost.Identifier{},
	}
	if s.Message == nil {
		s.Message = Blob{}
	}
	c.log.Debug().Str("ceremony", s.CeremonyID).Int("signers", len(signers)).Msg("signing created")
	return s, nil
}

// SigningRound1 generates participantID's nonces and returns the public
// commitment. The nonces stay in the state for round 2. The ceremony moves
// to round 2 once every signer has committed.
func (c *Coordinator) SigningRound1(state *SigningState, participantID string, keyPackage Blob) (_ *SigningRound1Result, err error) {
	defer c.track(OpSigningRound1, time.Now(), &err)

	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.CurrentRound != round1 {
		return nil, newError(KindInvalidStateTransition, "expected round 1, got round %d", state.CurrentRound)
	}
	if !state.isSigner(participantID) {
		return nil, newError(KindInvalidParticipant, "%q is not a signer of this ceremony", participantID)
	}
	kp, err := c.suite.DecodeKeyPackage(keyPackage)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "key package of %q", participantID)
	}
	if int(kp.MinSigners) > len(state.Signers) {
		return nil, insufficient(int(kp.MinSigners), len(state.Signers), "key requires more signers than the ceremony lists")
	}
	for pid, id := range state.Identifiers {
		if pid != participantID && id == kp.ID {
			return nil, newError(KindInvalidParticipant, "%q and %q hold key packages for identifier %d", pid, participantID, id)
		}
	}
	s := state.Clone()

	nonces, commitments, err := c.suite.NonceCommit(c.rng, kp.SigningShare)
	if err != nil {
		return nil, wrapError(KindSigning, err, "nonce generation failed")
	}
	nonceBytes, err := c.suite.EncodeSigningNonces(nonces)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding nonces")
	}
	commitBytes, err := c.suite.EncodeSigningCommitments(commitments)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding commitments")
	}
	bundle, err := encodeBundle(&signingBundle{Nonces: nonceBytes, Commitments: commitBytes})
	if err != nil {
		return nil, err
	}

	s.Round1Packages[participantID] = bundle
	s.Identifiers[participantID] = kp.ID
	if len(s.Round1Packages) >= len(s.Signers) {
		s.CurrentRound = round2
	}

	c.log.Debug().Str("ceremony", s.CeremonyID).Str("participant", participantID).
		Stringer("identifier", kp.ID).Str("phase", string(s.Phase())).Msg("signing round 1")
	return &SigningRound1Result{State: s, Commitment: commitBytes}, nil
}

// signingPackage rebuilds the signing package from the commitments in s.
func (c *Coordinator) signingPackage(s *SigningState) (*frost.SigningPackage, error) {
	commitments := make(map[frost.Identifier]*frost.SigningCommitments, len(s.Signers))
	for _, pid := range s.Signers {
		var bundle signingBundle
		if err := decodeBundle(s.Round1Packages[pid], &bundle, pid); err != nil {
			return nil, err
		}
		comm, err := c.suite.DecodeSigningCommitments(bundle.Commitments)
		if err != nil {
			return nil, wrapError(KindSerialization, err, "commitments of %q", pid)
		}
		commitments[s.Identifiers[pid]] = comm
	}
	return frost.NewSigningPackage(s.Message, commitments), nil
}

// CreateSigningPackage assembles the signing package every signer needs
// for round 2 from the commitments collected in round 1.
func (c *Coordinator) CreateSigningPackage(state *SigningState) (_ Blob, err error) {
	defer c.track(OpCreateSigningPackage, time.Now(), &err)

	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.CurrentRound != round2 {
		return nil, newError(KindInvalidStateTransition, "round 1 has %d of %d commitments", len(state.Round1Packages), len(state.Signers))
	}
	pkg, err := c.signingPackage(state)
	if err != nil {
		return nil, err
	}
	out, err := c.suite.EncodeSigningPackage(pkg)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding signing package")
	}
	return out, nil
}

// SigningRound2 produces participantID's signature share. Its nonces are
// erased from the returned state, so a second call for the same signer
// fails. The call that supplies the last share aggregates the signature
// against groupPublicKey, which is only decoded then.
func (c *Coordinator) SigningRound2(state *SigningState, participantID string, keyPackage, signingPackage, groupPublicKey Blob) (_ *SigningRound2Result, err error) {
	defer c.track(OpSigningRound2, time.Now(), &err)

	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.CurrentRound != round2 {
		return nil, newError(KindInvalidStateTransition, "expected round 2, got round %d", state.CurrentRound)
	}
	stored, ok := state.Round1Packages[participantID]
	if !ok {
		return nil, newError(KindInvalidParticipant, "participant %q not found in round 1", participantID)
	}
	s := state.Clone()

	var bundle signingBundle
	if err := decodeBundle(stored, &bundle, participantID); err != nil {
		return nil, err
	}
	if len(bundle.Nonces) == 0 {
		return nil, newError(KindSigning, "nonces of %q were already used", participantID)
	}
	kp, err := c.suite.DecodeKeyPackage(keyPackage)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "key package of %q", participantID)
	}
	if kp.ID != s.Identifiers[participantID] {
		return nil, newError(KindInvalidParticipant, "key package of %q has identifier %d, round 1 used %d",
			participantID, kp.ID, s.Identifiers[participantID])
	}
	nonces, err := c.suite.DecodeSigningNonces(bundle.Nonces)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "nonces of %q", participantID)
	}
	pkg, err := c.suite.DecodeSigningPackage(signingPackage)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "signing package")
	}
	if err := c.checkSigningPackage(s, pkg); err != nil {
		return nil, err
	}

	share, err := c.suite.SignShare(pkg, nonces, kp)
	if err != nil {
		return nil, wrapError(KindSigning, err, "signing failed for %q", participantID)
	}
	shareBytes, err := c.suite.EncodeSignatureShare(share)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding signature share")
	}
	bundle.Nonces = nil
	spent, err := encodeBundle(&bundle)
	if err != nil {
		return nil, err
	}
	s.Round1Packages[participantID] = spent
	s.SignatureShares[participantID] = shareBytes

	if len(s.SignatureShares) >= len(s.Signers) {
		sig, err := c.aggregate(s, pkg, groupPublicKey)
		if err != nil {
			return nil, err
		}
		s.FinalSignature = sig
	}

	c.log.Debug().Str("ceremony", s.CeremonyID).Str("participant", participantID).
		Stringer("identifier", kp.ID).Int("shares", len(s.SignatureShares)).
		Str("phase", string(s.Phase())).Msg("signing round 2")
	return &SigningRound2Result{State: s, Signature: s.FinalSignature.Clone()}, nil
}

// checkSigningPackage rejects a package that does not match the message
// and commitments recorded in s.
func (c *Coordinator) checkSigningPackage(s *SigningState, pkg *frost.SigningPackage) error {
	if string(pkg.Message) != string(s.Message) {
		return newError(KindSigning, "signing package is for a different message")
	}
	expected, err := c.signingPackage(s)
	if err != nil {
		return err
	}
	if len(pkg.Commitments) != len(expected.Commitments) {
		return newError(KindSigning, "signing package has %d commitments, ceremony has %d",
			len(pkg.Commitments), len(expected.Commitments))
	}
	for id, want := range expected.Commitments {
		got, ok := pkg.Commitments[id]
		if !ok || !got.Hiding.Equal(want.Hiding) || !got.Binding.Equal(want.Binding) {
			return newError(KindSigning, "signing package commitment for identifier %d does not match round 1", id)
		}
	}
	return nil
}

func (c *Coordinator) aggregate(s *SigningState, pkg *frost.SigningPackage, groupPublicKey Blob) (Blob, error) {
	pub, err := c.suite.DecodePublicKeyPackage(groupPublicKey)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "group public key")
	}
	shares := make(map[frost.Identifier]*frost.SignatureShare, len(s.SignatureShares))
	owners := make(map[frost.Identifier]string, len(s.SignatureShares))
	for pid, blob := range s.SignatureShares {
		share, err := c.suite.DecodeSignatureShare(blob)
		if err != nil {
			return nil, wrapError(KindSerialization, err, "signature share of %q", pid)
		}
		id := s.Identifiers[pid]
		shares[id] = share
		owners[id] = pid
	}

	sig, err := c.suite.Aggregate(pkg, shares, pub)
	if err != nil {
		var invalid *frost.InvalidShareError
		if errors.As(err, &invalid) {
			return nil, wrapError(KindSigning, err, "invalid signature share from %q", owners[invalid.ID])
		}
		return nil, wrapError(KindSigning, err, "aggregation failed")
	}
	out, err := c.suite.EncodeSignature(sig)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding signature")
	}
	return out, nil
}
