package ceremony

import (
	"encoding/hex"
	"maps"
	"slices"

	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/pkg/errors"
)

// Blob is an opaque encoded package. It is rendered as lowercase hex in
// JSON.
type Blob []byte

// MarshalText implements encoding.TextMarshaler.
func (b Blob) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(out, b)
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Blob) UnmarshalText(text []byte) error {
	out := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(out, text); err != nil {
		return errors.Wrap(err, "decoding hex blob")
	}
	*b = out
	return nil
}

// Clone returns a copy of b.
func (b Blob) Clone() Blob {
	if b == nil {
		return nil
	}
	return append(Blob(nil), b...)
}

// Phase is the derived position of a ceremony in its state machine.
type Phase string

const (
	PhaseCreated  Phase = "created"
	PhaseRound1   Phase = "round1"
	PhaseRound2   Phase = "round2"
	PhaseComplete Phase = "complete"
)

const (
	round1 uint8 = 1
	round2 uint8 = 2
)

func cloneBlobs(m map[string]Blob) map[string]Blob {
	out := make(map[string]Blob, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// KeygenState is the caller-held state of a distributed key generation.
type KeygenState struct {
	CeremonyID      string `json:"ceremony_id"`
	Threshold       uint16 `json:"threshold"`
	MaxParticipants uint16 `json:"max_participants"`
	CurrentRound    uint8  `json:"current_round"`
	// Round1Packages holds each participant's round-1 secret and public
	// package.
	Round1Packages map[string]Blob `json:"round1_packages"`
	KeyPackages    map[string]Blob `json:"key_packages"`
	// GroupPublicKey is the encoded public key package, set once enough
	// participants finished round 2.
	GroupPublicKey Blob `json:"group_public_key,omitempty"`
	// Identifiers is fixed at a participant's first round-1 submission.
	Identifiers map[string]frost.Identifier `json:"identifiers"`
}

// Clone returns a deep copy of s.
func (s *KeygenState) Clone() *KeygenState {
	out := *s
	out.Round1Packages = cloneBlobs(s.Round1Packages)
	out.KeyPackages = cloneBlobs(s.KeyPackages)
	out.GroupPublicKey = s.GroupPublicKey.Clone()
	out.Identifiers = maps.Clone(s.Identifiers)
	if out.Identifiers == nil {
		out.Identifiers = map[string]frost.Identifier{}
	}
	return &out
}

// Phase derives the ceremony phase from s.
func (s *KeygenState) Phase() Phase {
	switch {
	case len(s.GroupPublicKey) > 0:
		return PhaseComplete
	case s.CurrentRound == round2:
		return PhaseRound2
	case len(s.Round1Packages) == 0:
		return PhaseCreated
	default:
		return PhaseRound1
	}
}

// Complete reports whether the group public key is available.
func (s *KeygenState) Complete() bool {
	return s.Phase() == PhaseComplete
}

// Validate checks the structural invariants of s.
func (s *KeygenState) Validate() error {
	if s == nil {
		return newError(KindInvalidStateTransition, "missing keygen state")
	}
	if s.Threshold == 0 || s.Threshold > s.MaxParticipants {
		return newError(KindInvalidStateTransition, "threshold %d invalid for %d participants", s.Threshold, s.MaxParticipants)
	}
	if s.CurrentRound != round1 && s.CurrentRound != round2 {
		return newError(KindInvalidStateTransition, "unknown round %d", s.CurrentRound)
	}
	n := int(s.MaxParticipants)
	if len(s.Round1Packages) > n || len(s.KeyPackages) > n {
		return newError(KindInvalidStateTransition, "more packages than the %d participants", n)
	}
	if s.CurrentRound == round1 && len(s.Round1Packages) >= int(s.Threshold) {
		return newError(KindInvalidStateTransition, "round 1 still open with %d of %d round-1 packages", len(s.Round1Packages), s.Threshold)
	}
	if s.CurrentRound == round2 && len(s.Round1Packages) < int(s.Threshold) {
		return newError(KindInvalidStateTransition, "round 2 reached with %d of %d round-1 packages", len(s.Round1Packages), s.Threshold)
	}
	if len(s.GroupPublicKey) > 0 && len(s.KeyPackages) < int(s.Threshold) {
		return newError(KindInvalidStateTransition, "group key present with %d of %d key packages", len(s.KeyPackages), s.Threshold)
	}
	seen := make(map[frost.Identifier]string, len(s.Identifiers))
	for pid := range s.Round1Packages {
		id, ok := s.Identifiers[pid]
		if !ok {
			return newError(KindInvalidStateTransition, "participant %q has no identifier", pid)
		}
		if err := id.Validate(s.MaxParticipants); err != nil {
			return wrapError(KindInvalidStateTransition, err, "participant %q", pid)
		}
		if other, dup := seen[id]; dup {
			return newError(KindInvalidStateTransition, "participants %q and %q share identifier %d", other, pid, id)
		}
		seen[id] = pid
	}
	for pid := range s.KeyPackages {
		if _, ok := s.Round1Packages[pid]; !ok {
			return newError(KindInvalidStateTransition, "key package for %q without round 1", pid)
		}
	}
	return nil
}

// SigningState is the caller-held state of one signing ceremony.
type SigningState struct {
	CeremonyID   string   `json:"ceremony_id"`
	Message      Blob     `json:"message"`
	CurrentRound uint8    `json:"current_round"`
	Signers      []string `json:"signers"`
	// Round1Packages holds each signer's nonces and commitments. Nonces
	// are erased once the signer's share has been produced.
	Round1Packages  map[string]Blob `json:"round1_packages"`
	SignatureShares map[string]Blob `json:"signature_shares"`
	FinalSignature  Blob            `json:"final_signature,omitempty"`
	// Identifiers records each signer's key package identifier.
	Identifiers map[string]frost.Identifier `json:"identifiers"`
}

// Clone returns a deep copy of s.
func (s *SigningState) Clone() *SigningState {
	out := *s
	out.Message = s.Message.Clone()
	out.Signers = slices.Clone(s.Signers)
	out.Round1Packages = cloneBlobs(s.Round1Packages)
	out.SignatureShares = cloneBlobs(s.SignatureShares)
	out.FinalSignature = s.FinalSignature.Clone()
	out.Identifiers = maps.Clone(s.Identifiers)
	if out.Identifiers == nil {
		out.Identifiers = map[string]frost.Identifier{}
	}
	return &out
}

// Phase derives the ceremony phase from s.
func (s *SigningState) Phase() Phase {
	switch {
	case len(s.FinalSignature) > 0:
		return PhaseComplete
	case s.CurrentRound == round2:
		return PhaseRound2
	case len(s.Round1Packages) == 0:
		return PhaseCreated
	default:
		return PhaseRound1
	}
}

// Complete reports whether the final signature is available.
func (s *SigningState) Complete() bool {
	return s.Phase() == PhaseComplete
}

func (s *SigningState) isSigner(pid string) bool {
	return slices.Contains(s.Signers, pid)
}

// Validate checks the structural invariants of s.
func (s *SigningState) Validate() error {
	if s == nil {
		return newError(KindInvalidStateTransition, "missing signing state")
	}
	if len(s.Signers) == 0 {
		return newError(KindInvalidStateTransition, "no signers")
	}
	if dup, ok := duplicate(s.Signers); ok {
		return newError(KindInvalidStateTransition, "signer %q listed twice", dup)
	}
	if s.CurrentRound != round1 && s.CurrentRound != round2 {
		return newError(KindInvalidStateTransition, "unknown round %d", s.CurrentRound)
	}
	if s.CurrentRound == round2 && len(s.Round1Packages) < len(s.Signers) {
		return newError(KindInvalidStateTransition, "round 2 reached with %d of %d commitments", len(s.Round1Packages), len(s.Signers))
	}
	if len(s.FinalSignature) > 0 && len(s.SignatureShares) < len(s.Signers) {
		return newError(KindInvalidStateTransition, "final signature with %d of %d shares", len(s.SignatureShares), len(s.Signers))
	}
	seen := make(map[frost.Identifier]string, len(s.Identifiers))
	for pid := range s.Round1Packages {
		if !s.isSigner(pid) {
			return newError(KindInvalidStateTransition, "round 1 package from non-signer %q", pid)
		}
		id, ok := s.Identifiers[pid]
		if !ok || id == 0 {
			return newError(KindInvalidStateTransition, "signer %q has no identifier", pid)
		}
		if other, dup := seen[id]; dup {
			return newError(KindInvalidStateTransition, "signers %q and %q share identifier %d", other, pid, id)
		}
		seen[id] = pid
	}
	for pid := range s.SignatureShares {
		if _, ok := s.Round1Packages[pid]; !ok {
			return newError(KindInvalidStateTransition, "signature share from %q without round 1", pid)
		}
	}
	return nil
}

// duplicate returns the first id that appears twice in ids.
func duplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
