package ceremony

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/andotherstuff/hosted-nostr-auth-server/group"
)

// DealerShares is the output of GenerateShares.
type DealerShares struct {
	GroupPublicKey Blob `json:"group_public_key"`
	// Shares maps "participant_<identifier>" to that participant's key
	// package.
	Shares map[string]Blob `json:"shares"`
}

// ShareName returns the name under which GenerateShares files the key
// package of id.
func ShareName(id frost.Identifier) string {
	return fmt.Sprintf("participant_%d", id)
}

// GenerateShares deals maxParticipants key packages with the given
// threshold in one step. seedMaterial is an optional hex-encoded secret
// scalar to split; when empty a fresh secret is drawn.
func (c *Coordinator) GenerateShares(seedMaterial string, threshold, maxParticipants uint16) (_ *DealerShares, err error) {
	defer c.track(OpGenerateShares, time.Now(), &err)

	if threshold == 0 || threshold > maxParticipants {
		return nil, insufficient(int(threshold), int(maxParticipants), "threshold must be between 1 and the participant count")
	}
	secret, err := c.parseSecret(seedMaterial)
	if err != nil {
		return nil, err
	}

	keys, pub, err := c.suite.GenerateWithDealer(c.rng, secret, maxParticipants, threshold)
	if err != nil {
		return nil, wrapError(KindKeygen, err, "dealer key generation failed")
	}
	out := &DealerShares{Shares: make(map[string]Blob, len(keys))}
	if out.GroupPublicKey, err = c.suite.EncodePublicKeyPackage(pub); err != nil {
		return nil, wrapError(KindSerialization, err, "encoding public key package")
	}
	for id, kp := range keys {
		b, err := c.suite.EncodeKeyPackage(kp)
		if err != nil {
			return nil, wrapError(KindSerialization, err, "encoding key package %d", id)
		}
		out.Shares[ShareName(id)] = b
	}

	c.log.Debug().Uint16("threshold", threshold).Uint16("participants", maxParticipants).
		Bool("supplied_secret", secret != nil).Msg("shares dealt")
	return out, nil
}

// parseSecret decodes seedMaterial into a scalar. An empty string yields
// nil.
func (c *Coordinator) parseSecret(seedMaterial string) (group.Scalar, error) {
	seedMaterial = strings.TrimPrefix(strings.TrimSpace(seedMaterial), "0x")
	if seedMaterial == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(seedMaterial)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "seed material is not hex")
	}
	g := c.suite.Group()
	secret, err := g.NewScalar().SetBytes(raw)
	if err != nil || string(secret.Bytes()) != string(leftPad(raw, len(secret.Bytes()))) {
		return nil, newError(KindKeygen, "seed material is not a canonical scalar of %s", g.Name())
	}
	if secret.IsZero() {
		return nil, newError(KindKeygen, "seed material must be non-zero")
	}
	return secret, nil
}

func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
