package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/andotherstuff/hosted-nostr-auth-server/ceremony"
	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/andotherstuff/hosted-nostr-auth-server/internal/config"
	"github.com/andotherstuff/hosted-nostr-auth-server/internal/entropy"
	"github.com/andotherstuff/hosted-nostr-auth-server/secp256k1"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func newService(t *testing.T, seed string) *Service {
	t.Helper()
	c := ceremony.New(frost.New(secp256k1.New()), ceremony.WithRand(entropy.NewSeeded([]byte(seed))))
	return NewService(c)
}

// decode parses an envelope and checks that exactly one side is set.
func decode(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if env.Success {
		require.Nil(t, env.Error, out)
		require.NotEqual(t, "null", string(env.Data), out)
	} else {
		require.NotNil(t, env.Error, out)
		require.Equal(t, "null", string(env.Data), out)
	}
	return env
}

func data(t *testing.T, out string, v any) {
	t.Helper()
	env := decode(t, out)
	require.True(t, env.Success, out)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func failure(t *testing.T, out string) *ErrorInfo {
	t.Helper()
	env := decode(t, out)
	require.False(t, env.Success, out)
	return env.Error
}

type stateAndBlob struct {
	State      json.RawMessage `json:"state"`
	Package    string          `json:"package"`
	KeyPackage string          `json:"key_package"`
	Commitment string          `json:"commitment"`
	Signature  *string         `json:"signature"`
}

func TestCeremonyOverJSON(t *testing.T) {
	svc := newService(t, "api-e2e")

	var state json.RawMessage
	data(t, svc.CreateKeygenState(2, 3), &state)

	packages := map[string]string{}
	for _, pid := range []string{"alice", "bob"} {
		var r stateAndBlob
		data(t, svc.KeygenRound1(string(state), pid), &r)
		state = r.State
		packages[pid] = r.Package
	}
	packagesJSON, err := json.Marshal(packages)
	require.NoError(t, err)

	keys := map[string]string{}
	for _, pid := range []string{"alice", "bob"} {
		var r stateAndBlob
		data(t, svc.KeygenRound2(string(state), pid, string(packagesJSON)), &r)
		state = r.State
		keys[pid] = r.KeyPackage
	}
	var keygen struct {
		GroupPublicKey string `json:"group_public_key"`
	}
	require.NoError(t, json.Unmarshal(state, &keygen))
	require.NotEmpty(t, keygen.GroupPublicKey)

	msg := []byte("sign in to example.com")
	var signing json.RawMessage
	data(t, svc.CreateSigningState(msg, `["alice","bob"]`), &signing)
	for _, pid := range []string{"alice", "bob"} {
		var r stateAndBlob
		data(t, svc.SigningRound1(string(signing), pid, keys[pid]), &r)
		require.NotEmpty(t, r.Commitment)
		signing = r.State
	}
	var pkg string
	data(t, svc.CreateSigningPackage(string(signing)), &pkg)

	var r stateAndBlob
	data(t, svc.SigningRound2(string(signing), "alice", keys["alice"], pkg, keygen.GroupPublicKey), &r)
	assert.Nil(t, r.Signature)
	assert.Contains(t, string(r.State), `"current_round":2`)
	data(t, svc.SigningRound2(string(r.State), "bob", keys["bob"], pkg, keygen.GroupPublicKey), &r)
	require.NotNil(t, r.Signature)

	var valid bool
	data(t, svc.VerifySignature(msg, *r.Signature, keygen.GroupPublicKey), &valid)
	assert.True(t, valid)
	data(t, svc.VerifySignature([]byte("other"), *r.Signature, keygen.GroupPublicKey), &valid)
	assert.False(t, valid)
}

func TestDealerOverJSON(t *testing.T) {
	svc := newService(t, "api-dealer")

	var shares ceremony.DealerShares
	data(t, svc.GenerateShares("", 2, 3), &shares)
	assert.NotEmpty(t, shares.GroupPublicKey)
	assert.Len(t, shares.Shares, 3)
	assert.Contains(t, shares.Shares, "participant_1")

	info := failure(t, svc.GenerateShares("not hex", 2, 3))
	assert.Equal(t, "SerializationError", info.Kind)
}

func TestErrors(t *testing.T) {
	svc := newService(t, "api-errors")

	t.Run("InsufficientParticipantsCarriesCounts", func(t *testing.T) {
		info := failure(t, svc.CreateKeygenState(3, 2))
		assert.Equal(t, "InsufficientParticipants", info.Kind)
		require.NotNil(t, info.Required)
		require.NotNil(t, info.Actual)
		assert.Equal(t, 3, *info.Required)
		assert.Equal(t, 2, *info.Actual)
	})

	t.Run("OtherKindsOmitCounts", func(t *testing.T) {
		info := failure(t, svc.KeygenRound1("{", "alice"))
		assert.Equal(t, "SerializationError", info.Kind)
		assert.Nil(t, info.Required)
		assert.Nil(t, info.Actual)
	})

	cases := []struct {
		name string
		out  string
		kind string
	}{
		{"EmptyState", svc.KeygenRound1("", "alice"), "InvalidStateTransition"},
		{"NullState", svc.CreateSigningPackage(" null "), "InvalidStateTransition"},
		{"BadSigners", svc.CreateSigningState([]byte("m"), "alice"), "SerializationError"},
		{"NoSigners", svc.CreateSigningState([]byte("m"), "[]"), "InsufficientParticipants"},
		{"DuplicateSigners", svc.CreateSigningState([]byte("m"), `["a","a"]`), "InvalidParticipant"},
		{"BadPackagesJSON", svc.KeygenRound2("{}", "alice", "[]"), "SerializationError"},
		{"BadSignatureHex", svc.VerifySignature([]byte("m"), "zz", "00"), "SerializationError"},
		{"UndecodableSignature", svc.VerifySignature([]byte("m"), "00", "00"), "SerializationError"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := failure(t, tc.out)
			assert.Equal(t, tc.kind, info.Kind)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestWrongRound(t *testing.T) {
	svc := newService(t, "api-round")

	var created json.RawMessage
	data(t, svc.CreateKeygenState(2, 2), &created)
	info := failure(t, svc.KeygenRound2(string(created), "alice", "{}"))
	assert.Equal(t, "InvalidStateTransition", info.Kind)
}

func TestRenderFallback(t *testing.T) {
	out := ok(math.NaN())
	env := decode(t, out)
	assert.Equal(t, "SerializationError", env.Error.Kind)
	assert.Equal(t, fallback, out)
}

func TestDefaultService(t *testing.T) {
	out := CreateKeygenState(2, 3)
	var state ceremony.KeygenState
	data(t, out, &state)
	assert.Equal(t, uint16(2), state.Threshold)
	assert.True(t, strings.Contains(out, `"current_round":1`))
	assert.Same(t, Default(), Default())
}

func TestNewServiceFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Curve = "ed448"
	_, err := NewServiceFromConfig(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Curve = "bjj"
	cfg.Hasher = frost.HasherBlake3
	svc, err := NewServiceFromConfig(cfg)
	require.NoError(t, err)
	var state json.RawMessage
	data(t, svc.CreateKeygenState(1, 1), &state)
}

func TestDefaultServiceFallback(t *testing.T) {
	t.Setenv(config.EnvCurve, "bogus")
	cfg := config.FromEnv()
	require.Error(t, cfg.Validate())

	var logs bytes.Buffer
	svc := newDefaultService(cfg, zerolog.New(&logs))
	require.NotNil(t, svc)
	assert.Equal(t, secp256k1.Name, svc.c.Suite().Group().Name())
	assert.Equal(t, frost.HasherSHA256, svc.c.Suite().Hasher().Name())
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "invalid configuration")
	assert.Contains(t, logs.String(), "bogus")

	var state ceremony.KeygenState
	data(t, svc.CreateKeygenState(2, 3), &state)
	assert.Equal(t, uint16(3), state.MaxParticipants)
}

func TestDefaultServiceUsesValidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Curve = "bjj"
	cfg.Hasher = frost.HasherBlake2b

	var logs bytes.Buffer
	svc := newDefaultService(cfg, zerolog.New(&logs))
	assert.Equal(t, "bjj", svc.c.Suite().Group().Name())
	assert.Equal(t, frost.HasherBlake2b, svc.c.Suite().Hasher().Name())
	assert.Empty(t, logs.String())
}
