package ceremony

import (
	"time"

	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
)

// KeygenRound1Result is returned by KeygenRound1.
type KeygenRound1Result struct {
	State *KeygenState
	// Package is the participant's public round-1 package, to be handed to
	// every other participant for round 2.
	Package Blob
}

// KeygenRound2Result is returned by KeygenRound2.
type KeygenRound2Result struct {
	State      *KeygenState
	KeyPackage Blob
}

// CreateKeygenState starts a threshold-of-maxParticipants key generation.
func (c *Coordinator) CreateKeygenState(threshold, maxParticipants uint16) (_ *KeygenState, err error) {
	defer c.track(OpCreateKeygen, time.Now(), &err)

	if threshold == 0 || threshold > maxParticipants {
		return nil, insufficient(int(threshold), int(maxParticipants), "threshold must be between 1 and the participant count")
	}
	s := &KeygenState{
		CeremonyID:      c.newID(),
		Threshold:       threshold,
		MaxParticipants: maxParticipants,
		CurrentRound:    round1,
		Round1Packages:  map[string]Blob{},
		KeyPackages:     map[string]Blob{},
		Identifiers:     map[string]frost.Identifier{},
	}
	c.log.Debug().Str("ceremony", s.CeremonyID).Uint16("threshold", threshold).
		Uint16("participants", maxParticipants).Msg("keygen created")
	return s, nil
}

// KeygenRound1 runs the first DKG round for participantID.
//
// A new participant gets identifier |round1 packages|+1, which is then kept
// in the state; a participant submitting again keeps its identifier and has
// its package replaced. The ceremony moves to round 2 as soon as threshold
// participants have submitted.
func (c *Coordinator) KeygenRound1(state *KeygenState, participantID string) (_ *KeygenRound1Result, err error) {
	defer c.track(OpKeygenRound1, time.Now(), &err)

	// A round-1 state with every slot taken fails Validate as well; the
	// slot count is reported first.
	if state != nil && state.CurrentRound == round1 {
		if _, known := state.Identifiers[participantID]; !known && len(state.Round1Packages) >= int(state.MaxParticipants) {
			return nil, insufficient(int(state.MaxParticipants), len(state.Round1Packages)+1, "all participant slots are taken")
		}
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.CurrentRound != round1 {
		return nil, newError(KindInvalidStateTransition, "expected round 1, got round %d", state.CurrentRound)
	}
	s := state.Clone()

	id, known := s.Identifiers[participantID]
	if !known {
		id = frost.Identifier(len(s.Round1Packages) + 1)
	}

	secret, pkg, err := c.suite.DKGRound1(c.rng, id, s.MaxParticipants, s.Threshold)
	if err != nil {
		return nil, wrapError(KindKeygen, err, "DKG round 1 failed")
	}
	secretBytes, err := c.suite.EncodeRound1Secret(secret)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding round 1 secret")
	}
	pkgBytes, err := c.suite.EncodeRound1Package(pkg)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding round 1 package")
	}
	bundle, err := encodeBundle(&keygenBundle{Secret: secretBytes, Package: pkgBytes})
	if err != nil {
		return nil, err
	}

	s.Round1Packages[participantID] = bundle
	s.Identifiers[participantID] = id
	if len(s.Round1Packages) >= int(s.Threshold) {
		s.CurrentRound = round2
	}

	c.log.Debug().Str("ceremony", s.CeremonyID).Str("participant", participantID).
		Stringer("identifier", id).Bool("resubmitted", known).Str("phase", string(s.Phase())).
		Msg("keygen round 1")
	return &KeygenRound1Result{State: s, Package: pkgBytes}, nil
}

// KeygenRound2 completes DKG for participantID.
//
// allRound1Packages maps participant ids to the public round-1 packages
// they published and must cover every other round-1 participant; an entry
// for participantID itself is ignored. Peer identifiers are resolved from
// the state. Once threshold participants have finished, the state carries
// the group public key package.
func (c *Coordinator) KeygenRound2(state *KeygenState, participantID string, allRound1Packages map[string]Blob) (_ *KeygenRound2Result, err error) {
	defer c.track(OpKeygenRound2, time.Now(), &err)

	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.CurrentRound != round2 {
		return nil, newError(KindInvalidStateTransition, "expected round 2, got round %d", state.CurrentRound)
	}
	s := state.Clone()

	stored, ok := s.Round1Packages[participantID]
	if !ok {
		return nil, newError(KindInvalidParticipant, "participant %q not found in round 1", participantID)
	}
	var bundle keygenBundle
	if err := decodeBundle(stored, &bundle, participantID); err != nil {
		return nil, err
	}
	secret, err := c.suite.DecodeRound1Secret(bundle.Secret)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "round 1 secret of %q", participantID)
	}

	peers := make(map[frost.Identifier]*frost.Round1Package, len(allRound1Packages))
	for pid, blob := range allRound1Packages {
		if pid == participantID {
			continue
		}
		id, ok := s.Identifiers[pid]
		if !ok {
			return nil, newError(KindInvalidParticipant, "participant %q did not take part in round 1", pid)
		}
		pkg, err := c.suite.DecodeRound1Package(blob)
		if err != nil {
			return nil, wrapError(KindSerialization, err, "round 1 package of %q", pid)
		}
		if pkg.ID != id {
			return nil, newError(KindKeygen, "package of %q carries identifier %d, ceremony assigned %d", pid, pkg.ID, id)
		}
		peers[id] = pkg
	}
	if want := len(s.Round1Packages) - 1; len(peers) < want {
		return nil, insufficient(want, len(peers), "round 1 packages from every other participant are required")
	}

	kp, pub, err := c.suite.DKGRound2(secret, peers)
	if err != nil {
		return nil, wrapError(KindKeygen, err, "DKG round 2 failed for %q", participantID)
	}
	kpBytes, err := c.suite.EncodeKeyPackage(kp)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding key package")
	}
	s.KeyPackages[participantID] = kpBytes

	if len(s.KeyPackages) >= int(s.Threshold) {
		pubBytes, err := c.suite.EncodePublicKeyPackage(pub)
		if err != nil {
			return nil, wrapError(KindSerialization, err, "encoding public key package")
		}
		if len(s.GroupPublicKey) > 0 && string(s.GroupPublicKey) != string(pubBytes) {
			return nil, newError(KindKeygen, "participant %q derived a different group key", participantID)
		}
		s.GroupPublicKey = pubBytes
	}

	c.log.Debug().Str("ceremony", s.CeremonyID).Str("participant", participantID).
		Stringer("identifier", kp.ID).Int("key_packages", len(s.KeyPackages)).
		Str("phase", string(s.Phase())).Msg("keygen round 2")
	return &KeygenRound2Result{State: s, KeyPackage: kpBytes}, nil
}
