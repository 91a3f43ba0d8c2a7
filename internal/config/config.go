// Package config selects the curve, hash suite and log level of the
// ceremony coordinator.
package config

import (
	"os"

	"github.com/andotherstuff/hosted-nostr-auth-server/bjj"
	"github.com/andotherstuff/hosted-nostr-auth-server/frost"
	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/andotherstuff/hosted-nostr-auth-server/internal/logging"
	"github.com/andotherstuff/hosted-nostr-auth-server/secp256k1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Environment variables read by FromEnv.
const (
	EnvCurve  = "FROST_CURVE"
	EnvHasher = "FROST_HASHER"
)

// Config describes one FROST suite plus its logging.
type Config struct {
	Curve    string
	Hasher   string
	LogLevel zerolog.Level
}

// Default returns secp256k1 with SHA-256 and logging disabled.
func Default() Config {
	return Config{
		Curve:    secp256k1.Name,
		Hasher:   frost.HasherSHA256,
		LogLevel: zerolog.Disabled,
	}
}

// FromEnv overlays the FROST_* environment variables on Default.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv(EnvCurve); v != "" {
		cfg.Curve = v
	}
	if v := os.Getenv(EnvHasher); v != "" {
		cfg.Hasher = v
	}
	cfg.LogLevel = logging.LevelFromEnv()
	return cfg
}

// Validate reports an unknown curve or hash suite.
func (c Config) Validate() error {
	if _, err := c.group(); err != nil {
		return err
	}
	_, err := frost.HasherByName(c.Hasher)
	return err
}

func (c Config) group() (group.Group, error) {
	switch c.Curve {
	case secp256k1.Name:
		return secp256k1.New(), nil
	case bjj.Name:
		return bjj.New(), nil
	default:
		return nil, errors.Errorf("config: unknown curve %q", c.Curve)
	}
}

// Suite builds the FROST primitives for the configured curve and hasher.
func (c Config) Suite() (*frost.FROST, error) {
	g, err := c.group()
	if err != nil {
		return nil, err
	}
	h, err := frost.HasherByName(c.Hasher)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return frost.NewWithHasher(g, h), nil
}

// Logger returns the component logger at the configured level.
func (c Config) Logger(component string) zerolog.Logger {
	return logging.New(component, c.LogLevel)
}
