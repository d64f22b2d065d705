// Package config loads node-local runtime settings from TOML: ratchet
// tolerances, orderer watermarks, RNG seeding, and default space access
// levels. It follows the go-ethereum-family convention of a tomlSettings
// wrapper (relaxed field-name matching, strict-on-unknown-keys) around a
// single config struct.
package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/naoina/toml"
	"github.com/p2panda/p2panda-go/authgraph"
	"github.com/p2panda/p2panda-go/dcgka"
)

// Config is the full set of node-local settings a p2panda-go process reads
// at startup. Every field has a zero-value-safe default applied by
// Default(), so a partial TOML file only needs to name what it overrides.
type Config struct {
	// Orderer governs causal-ordering buffering (C5).
	Orderer OrdererConfig

	// DCGKA governs the per-sender decryption ratchet (C8).
	DCGKA DCGKAConfig

	// Spaces holds default access levels applied when a space is created
	// without explicit per-member levels (C9).
	Spaces SpacesConfig

	// RNGSeedHex is a hex RNG seed for reproducible test/demo runs. It is
	// loaded from TOML, but nothing in this module reads it: the demo
	// command always draws from the OS RNG.
	RNGSeedHex string
}

// OrdererConfig holds causal-orderer settings. orderer.New takes no
// configuration: a Processor buffers operations with missing dependencies
// without limit and never drops them.
type OrdererConfig struct {
	// MaxPendingPerAuthor is a per-author limit on buffered not-yet-ready
	// operations; orderer.Processor does not read it.
	MaxPendingPerAuthor int
}

// DCGKAConfig holds DecryptionRatchet bounds. dcgka.NewGroup does not take
// them: every Group uses DefaultOutOfOrderTolerance and
// DefaultMaxForwardDistance.
type DCGKAConfig struct {
	OutOfOrderTolerance int
	MaxForwardDistance  uint64
}

// SpacesConfig holds the access level newly-added members default to when
// a caller does not specify one explicitly.
type SpacesConfig struct {
	DefaultAccess string
}

// Default returns the configuration a process runs with when no TOML file
// is supplied.
func Default() Config {
	return Config{
		Orderer: OrdererConfig{MaxPendingPerAuthor: 1024},
		DCGKA: DCGKAConfig{
			OutOfOrderTolerance: dcgka.DefaultOutOfOrderTolerance,
			MaxForwardDistance:  dcgka.DefaultMaxForwardDistance,
		},
		Spaces: SpacesConfig{DefaultAccess: "write"},
	}
}

// DefaultAccessLevel parses Spaces.DefaultAccess into an authgraph.Access,
// falling back to Write if the string is empty or unrecognised.
func (c Config) DefaultAccessLevel() authgraph.Access {
	switch strings.ToLower(strings.TrimSpace(c.Spaces.DefaultAccess)) {
	case "pull":
		return authgraph.Pull
	case "read":
		return authgraph.Read
	case "write", "":
		return authgraph.Write
	case "manage":
		return authgraph.Manage
	default:
		return authgraph.Write
	}
}

// tomlSettings mirrors the naoina/toml field-matching convention used
// throughout the go-ethereum family of config loaders: permissive on
// casing/separators when reading, strict about unrecognised keys.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return strings.ReplaceAll(strings.ToLower(key), "_", "")
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return strings.ToLower(field)
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Load reads a TOML file at path, applying it on top of Default().
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader reads TOML from r, applying it on top of Default().
func LoadReader(r io.Reader) (Config, error) {
	cfg := Default()
	if err := tomlSettings.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}
