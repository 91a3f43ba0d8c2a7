package ceremony

import (
	"io"
	"time"

	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/andotherstuff/hosted-nostr-auth-server/internal/entropy"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Operation names used in logs and metrics.
const (
	OpCreateKeygen         = "create_keygen"
	OpKeygenRound1         = "keygen_round1"
	OpKeygenRound2         = "keygen_round2"
	OpCreateSigning        = "create_signing"
	OpSigningRound1        = "signing_round1"
	OpCreateSigningPackage = "create_signing_package"
	OpSigningRound2        = "signing_round2"
	OpGenerateShares       = "generate_shares"
	OpVerifySignature      = "verify_signature"
)

// Coordinator drives keygen and signing ceremonies. It keeps no ceremony
// state between calls: every operation takes the caller's state, works on
// a copy and returns the new state. The input state is never modified.
//
// A Coordinator is safe for concurrent use.
type Coordinator struct {
	suite *frost.FROST
	rng   io.Reader
	log   zerolog.Logger
	newID func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRand sets the randomness source used for DKG secrets and nonces.
// Reads are serialized.
func WithRand(r io.Reader) Option {
	return func(c *Coordinator) {
		if l, ok := r.(*entropy.Locked); ok {
			c.rng = l
			return
		}
		c.rng = entropy.NewLocked(r)
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// WithCeremonyIDs sets the generator of ceremony ids.
func WithCeremonyIDs(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

// New returns a Coordinator for suite.
func New(suite *frost.FROST, opts ...Option) *Coordinator {
	ensureMetrics()
	c := &Coordinator{
		suite: suite,
		rng:   entropy.System(),
		log:   zerolog.Nop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suite returns the primitives the coordinator delegates to.
func (c *Coordinator) Suite() *frost.FROST {
	return c.suite
}

// track records the outcome of op. Call it deferred with a pointer to the
// named error result.
func (c *Coordinator) track(op string, start time.Time, errp *error) {
	outcome := "ok"
	if err := *errp; err != nil {
		outcome = "error"
		kind := KindOf(err)
		operationErrors.WithLabelValues(op, kind.String()).Inc()
		c.log.Warn().Str("operation", op).Stringer("kind", kind).Err(err).Msg("operation rejected")
	}
	operationHist.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// keygenBundle is what a keygen state stores per participant after
// round 1.
type keygenBundle struct {
	Secret  []byte `cbor:"1,keyasint"`
	Package []byte `cbor:"2,keyasint"`
}

// signingBundle is what a signing state stores per signer after round 1.
// Nonces is nil once used.
type signingBundle struct {
	Nonces      []byte `cbor:"1,keyasint,omitempty"`
	Commitments []byte `cbor:"2,keyasint"`
}

func encodeBundle(v any) (Blob, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "encoding stored bundle")
	}
	return b, nil
}

func decodeBundle(b Blob, v any, pid string) error {
	if err := cbor.Unmarshal(b, v); err != nil {
		return wrapError(KindSerialization, err, "stored bundle of %q", pid)
	}
	return nil
}
