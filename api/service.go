package api

import (
	"sync"

	"github.com/andotherstuff/hosted-nostr-auth-server/ceremony"
	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/andotherstuff/hosted-nostr-auth-server/internal/config"
	"github.com/andotherstuff/hosted-nostr-auth-server/secp256k1"
	"github.com/rs/zerolog"
)

// KeygenRound1Data is the payload of a successful KeygenRound1.
type KeygenRound1Data struct {
	State   *ceremony.KeygenState `json:"state"`
	Package ceremony.Blob         `json:"package"`
}

// KeygenRound2Data is the payload of a successful KeygenRound2.
type KeygenRound2Data struct {
	State      *ceremony.KeygenState `json:"state"`
	KeyPackage ceremony.Blob         `json:"key_package"`
}

// SigningRound1Data is the payload of a successful SigningRound1.
type SigningRound1Data struct {
	State      *ceremony.SigningState `json:"state"`
	Commitment ceremony.Blob          `json:"commitment"`
}

// SigningRound2Data is the payload of a successful SigningRound2.
// Signature is null until the last share has been collected.
type SigningRound2Data struct {
	State     *ceremony.SigningState `json:"state"`
	Signature *ceremony.Blob         `json:"signature"`
}

// Service exposes a Coordinator through JSON documents. Every method
// returns the JSON text of an Envelope and never panics on bad input.
type Service struct {
	c *ceremony.Coordinator
}

// NewService binds c.
func NewService(c *ceremony.Coordinator) *Service {
	return &Service{c: c}
}

// NewServiceFromConfig builds a Service for the suite described by cfg.
func NewServiceFromConfig(cfg config.Config) (*Service, error) {
	suite, err := cfg.Suite()
	if err != nil {
		return nil, err
	}
	c := ceremony.New(suite, ceremony.WithLogger(cfg.Logger("ceremony")))
	return NewService(c), nil
}

// CreateKeygenState starts a threshold-of-maxParticipants key generation
// and returns its state document.
func (s *Service) CreateKeygenState(threshold, maxParticipants uint16) string {
	return result(s.c.CreateKeygenState(threshold, maxParticipants))
}

// KeygenRound1 adds participantID to the ceremony and returns the new
// state with the participant's public round-1 package.
func (s *Service) KeygenRound1(stateJSON, participantID string) string {
	state, err := parseState[ceremony.KeygenState](stateJSON)
	if err != nil {
		return fail[KeygenRound1Data](err)
	}
	res, err := s.c.KeygenRound1(state, participantID)
	if err != nil {
		return fail[KeygenRound1Data](err)
	}
	return ok(KeygenRound1Data{State: res.State, Package: res.Package})
}

// KeygenRound2 takes the round-1 packages as a JSON object mapping
// participant ids to hex blobs.
func (s *Service) KeygenRound2(stateJSON, participantID, allRound1PackagesJSON string) string {
	state, err := parseState[ceremony.KeygenState](stateJSON)
	if err != nil {
		return fail[KeygenRound2Data](err)
	}
	var packages map[string]ceremony.Blob
	if err := parseJSON(allRound1PackagesJSON, "round-1 packages", &packages); err != nil {
		return fail[KeygenRound2Data](err)
	}
	res, err := s.c.KeygenRound2(state, participantID, packages)
	if err != nil {
		return fail[KeygenRound2Data](err)
	}
	return ok(KeygenRound2Data{State: res.State, KeyPackage: res.KeyPackage})
}

// CreateSigningState takes the signer ids as a JSON array of strings.
func (s *Service) CreateSigningState(message []byte, signersJSON string) string {
	var signers []string
	if err := parseJSON(signersJSON, "signers", &signers); err != nil {
		return fail[ceremony.SigningState](err)
	}
	return result(s.c.CreateSigningState(message, signers))
}

// SigningRound1 records the nonce commitment of participantID, whose hex
// key package comes from keygen or the dealer.
func (s *Service) SigningRound1(stateJSON, participantID, keyPackageHex string) string {
	state, err := parseState[ceremony.SigningState](stateJSON)
	if err != nil {
		return fail[SigningRound1Data](err)
	}
	kp, err := parseBlob(keyPackageHex, "key package")
	if err != nil {
		return fail[SigningRound1Data](err)
	}
	res, err := s.c.SigningRound1(state, participantID, kp)
	if err != nil {
		return fail[SigningRound1Data](err)
	}
	return ok(SigningRound1Data{State: res.State, Commitment: res.Commitment})
}

// CreateSigningPackage returns the hex signing package of a state whose
// round 1 is complete.
func (s *Service) CreateSigningPackage(stateJSON string) string {
	state, err := parseState[ceremony.SigningState](stateJSON)
	if err != nil {
		return fail[ceremony.Blob](err)
	}
	return result(s.c.CreateSigningPackage(state))
}

// SigningRound2 records the signature share of participantID. The data
// carries the hex signature once the last share is in.
func (s *Service) SigningRound2(stateJSON, participantID, keyPackageHex, signingPackageHex, groupPublicKeyHex string) string {
	state, err := parseState[ceremony.SigningState](stateJSON)
	if err != nil {
		return fail[SigningRound2Data](err)
	}
	kp, err := parseBlob(keyPackageHex, "key package")
	if err != nil {
		return fail[SigningRound2Data](err)
	}
	pkg, err := parseBlob(signingPackageHex, "signing package")
	if err != nil {
		return fail[SigningRound2Data](err)
	}
	gpk, err := parseBlob(groupPublicKeyHex, "group public key")
	if err != nil {
		return fail[SigningRound2Data](err)
	}
	res, err := s.c.SigningRound2(state, participantID, kp, pkg, gpk)
	if err != nil {
		return fail[SigningRound2Data](err)
	}
	data := SigningRound2Data{State: res.State}
	if res.Signature != nil {
		sig := res.Signature
		data.Signature = &sig
	}
	return ok(data)
}

// GenerateShares runs a trusted-dealer split. seedMaterial is an optional
// hex secret; empty means a random one.
func (s *Service) GenerateShares(seedMaterial string, threshold, maxParticipants uint16) string {
	return result(s.c.GenerateShares(seedMaterial, threshold, maxParticipants))
}

// VerifySignature reports whether the hex signature is valid for message
// under the hex group public key package.
func (s *Service) VerifySignature(message []byte, signatureHex, groupPublicKeyHex string) string {
	sig, err := parseBlob(signatureHex, "signature")
	if err != nil {
		return fail[bool](err)
	}
	gpk, err := parseBlob(groupPublicKeyHex, "group public key")
	if err != nil {
		return fail[bool](err)
	}
	return result(s.c.VerifySignature(message, sig, gpk))
}

var (
	defaultOnce    sync.Once
	defaultService *Service
)

// Default returns the process-wide Service, built on first use from the
// FROST_* environment.
func Default() *Service {
	defaultOnce.Do(func() {
		cfg := config.FromEnv()
		defaultService = newDefaultService(cfg, cfg.Logger("api"))
	})
	return defaultService
}

// newDefaultService builds the Service for cfg. An invalid cfg is logged and
// replaced by secp256k1 with SHA-256, which has no failure path.
func newDefaultService(cfg config.Config, log zerolog.Logger) *Service {
	svc, err := NewServiceFromConfig(cfg)
	if err == nil {
		return svc
	}
	log.Warn().Err(err).Str("curve", cfg.Curve).Str("hasher", cfg.Hasher).
		Msg("invalid configuration, using secp256k1/sha256")
	c := ceremony.New(frost.New(secp256k1.New()), ceremony.WithLogger(cfg.Logger("ceremony")))
	return NewService(c)
}

// CreateKeygenState calls [Service.CreateKeygenState] on the [Default] service.
func CreateKeygenState(threshold, maxParticipants uint16) string {
	return Default().CreateKeygenState(threshold, maxParticipants)
}

// KeygenRound1 calls [Service.KeygenRound1] on the [Default] service.
func KeygenRound1(stateJSON, participantID string) string {
	return Default().KeygenRound1(stateJSON, participantID)
}

// KeygenRound2 calls [Service.KeygenRound2] on the [Default] service.
func KeygenRound2(stateJSON, participantID, allRound1PackagesJSON string) string {
	return Default().KeygenRound2(stateJSON, participantID, allRound1PackagesJSON)
}

// CreateSigningState calls [Service.CreateSigningState] on the [Default] service.
func CreateSigningState(message []byte, signersJSON string) string {
	return Default().CreateSigningState(message, signersJSON)
}

// SigningRound1 calls [Service.SigningRound1] on the [Default] service.
func SigningRound1(stateJSON, participantID, keyPackageHex string) string {
	return Default().SigningRound1(stateJSON, participantID, keyPackageHex)
}

// CreateSigningPackage calls [Service.CreateSigningPackage] on the [Default] service.
func CreateSigningPackage(stateJSON string) string {
	return Default().CreateSigningPackage(stateJSON)
}

// SigningRound2 calls [Service.SigningRound2] on the [Default] service.
func SigningRound2(stateJSON, participantID, keyPackageHex, signingPackageHex, groupPublicKeyHex string) string {
	return Default().SigningRound2(stateJSON, participantID, keyPackageHex, signingPackageHex, groupPublicKeyHex)
}

// GenerateShares calls [Service.GenerateShares] on the [Default] service.
func GenerateShares(seedMaterial string, threshold, maxParticipants uint16) string {
	return Default().GenerateShares(seedMaterial, threshold, maxParticipants)
}

// VerifySignature calls [Service.VerifySignature] on the [Default] service.
func VerifySignature(message []byte, signatureHex, groupPublicKeyHex string) string {
	return Default().VerifySignature(message, signatureHex, groupPublicKeyHex)
}
