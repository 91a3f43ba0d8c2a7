package ceremony

import (
	"fmt"
	"testing"

	"github.com/andotherstuff/hosted-nostr-auth-server/bjj"
	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/andotherstuff/hosted-nostr-auth-server/internal/entropy"
	"github.com/andotherstuff/hosted-nostr-auth-server/secp256k1"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ceremony-%d", n)
	}
}

// newCoordinator returns a deterministic secp256k1 coordinator.
func newCoordinator(t *testing.T, seed string) *Coordinator {
	t.Helper()
	return New(frost.New(secp256k1.New()),
		WithRand(entropy.NewSeeded([]byte(seed))),
		WithCeremonyIDs(sequentialIDs()),
	)
}

func newBJJCoordinator(t *testing.T, seed string) *Coordinator {
	t.Helper()
	return New(frost.NewWithHasher(bjj.New(), frost.NewBlake2bHasher()),
		WithRand(entropy.NewSeeded([]byte(seed))),
		WithCeremonyIDs(sequentialIDs()),
	)
}

type keygenResult struct {
	state    *KeygenState
	packages map[string]Blob
	keys     map[string]Blob
}

// runKeygen runs round 1 for every participant in order, then round 2 for
// each of them.
func runKeygen(t *testing.T, c *Coordinator, threshold uint16, participants ...string) *keygenResult {
	t.Helper()

	s, err := c.CreateKeygenState(threshold, uint16(len(participants)))
	require.NoError(t, err)
	out := &keygenResult{packages: map[string]Blob{}, keys: map[string]Blob{}}
	for _, pid := range participants {
		// Round 1 closes once threshold participants are in.
		if s.CurrentRound == round2 {
			break
		}
		r, err := c.KeygenRound1(s, pid)
		require.NoError(t, err, "round 1 for %s", pid)
		s = r.State
		out.packages[pid] = r.Package
	}
	for pid := range out.packages {
		r, err := c.KeygenRound2(s, pid, out.packages)
		require.NoError(t, err, "round 2 for %s", pid)
		s = r.State
		out.keys[pid] = r.KeyPackage
	}
	require.True(t, s.Complete())
	out.state = s
	return out
}

// runSigning signs msg with the given key packages and returns the final
// state.
func runSigning(t *testing.T, c *Coordinator, msg []byte, keys map[string]Blob, groupKey Blob, signers ...string) *SigningState {
	t.Helper()

	s, err := c.CreateSigningState(msg, signers)
	require.NoError(t, err)
	for _, pid := range signers {
		r, err := c.SigningRound1(s, pid, keys[pid])
		require.NoError(t, err, "signing round 1 for %s", pid)
		s = r.State
	}
	pkg, err := c.CreateSigningPackage(s)
	require.NoError(t, err)
	for i, pid := range signers {
		r, err := c.SigningRound2(s, pid, keys[pid], pkg, groupKey)
		require.NoError(t, err, "signing round 2 for %s", pid)
		s = r.State
		if i < len(signers)-1 {
			require.Nil(t, r.Signature)
		} else {
			require.NotNil(t, r.Signature)
		}
	}
	return s
}
