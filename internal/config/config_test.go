package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	f, err := cfg.Suite()
	require.NoError(t, err)
	assert.Equal(t, "secp256k1", f.Group().Name())
	assert.Equal(t, "sha256", f.Hasher().Name())
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvCurve, "bjj")
	t.Setenv(EnvHasher, "blake2b")
	t.Setenv("FROST_LOG", "info")

	cfg := FromEnv()
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	f, err := cfg.Suite()
	require.NoError(t, err)
	assert.Equal(t, "bjj", f.Group().Name())
	assert.Equal(t, "blake2b", f.Hasher().Name())
}

func TestValidateRejectsUnknown(t *testing.T) {
	cfg := Default()
	cfg.Curve = "p256"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Hasher = "md5"
	assert.Error(t, cfg.Validate())
	_, err := cfg.Suite()
	assert.Error(t, err)
}
