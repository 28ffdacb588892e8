package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Initialize loads, resolves, and validates the chainpulse configuration at
// path. This is the primary entry point used by cmd/chainpulse.
//
// Steps performed:
//  1. Parse the TOML file.
//  2. Load the sibling chains.json, if present.
//  3. Expand "ref:NAME" chain URLs against chains.json.
//  4. Apply defaults (comet_version, ibc_version, global ibc_versions).
//  5. Validate the fully resolved configuration.
func Initialize(path string) (*Config, error) {
	log := slog.With("config_path", path)
	log.Info("loading configuration")

	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration loaded", "chains", len(cfg.Chains))
	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var raw rawConfig
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTOML, err)
	}

	if len(raw.Global.IBCVersions) == 0 {
		raw.Global.IBCVersions = []string{defaultIBCVersion}
	}

	chainsRef, err := loadChainsReference(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	chains := make(map[string]ChainConfig, len(raw.Chains))
	for chainID, rc := range raw.Chains {
		resolved, err := resolveChain(chainID, rc, chainsRef)
		if err != nil {
			return nil, err
		}
		chains[chainID] = resolved
	}

	return &Config{
		configDir: filepath.Dir(path),
		Global:    raw.Global,
		Chains:    chains,
		Database:  raw.Database,
		Metrics:   raw.Metrics,
	}, nil
}

// resolveChain applies defaults and, for "ref:NAME" URLs, substitutes the
// matching chains.json entry's websocket/username/password/comet_version.
func resolveChain(chainID string, rc rawChain, ref *chainsReference) (ChainConfig, error) {
	cometVersion := rc.CometVersion
	if cometVersion == "" {
		cometVersion = defaultCometVersion
	}
	ibcVersion := rc.IBCVersion
	if ibcVersion == "" {
		ibcVersion = defaultIBCVersion
	}

	if !strings.HasPrefix(rc.URL, "ref:") {
		if rc.URL == "" {
			return ChainConfig{}, fmt.Errorf("%w: chain %q", ErrMissingURL, chainID)
		}
		return ChainConfig{
			ChainID:      chainID,
			URL:          rc.URL,
			CometVersion: cometVersion,
			IBCVersion:   ibcVersion,
			Username:     rc.Username,
			Password:     rc.Password,
		}, nil
	}

	name := strings.TrimPrefix(rc.URL, "ref:")
	if ref == nil {
		return ChainConfig{}, fmt.Errorf("%w: chain %q references %q", ErrChainsFileNotFound, chainID, name)
	}
	info, ok := ref.Chains[name]
	if !ok {
		return ChainConfig{}, fmt.Errorf("%w: %q (chain %q)", ErrUnknownChainRef, name, chainID)
	}

	refCometVersion := info.CometVersion
	if refCometVersion == "" {
		refCometVersion = defaultCometVersion
	}

	return ChainConfig{
		ChainID:      chainID,
		URL:          info.WebSocket,
		CometVersion: refCometVersion,
		IBCVersion:   ibcVersion,
		Username:     info.Username,
		Password:     info.Password,
	}, nil
}

func loadChainsReference(dir string) (*chainsReference, error) {
	path := filepath.Join(dir, "chains.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NewLoadError("chains.json", err)
	}

	var ref chainsReference
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, NewLoadError("chains.json", err)
	}
	return &ref, nil
}

// validate checks the fully resolved configuration for the conditions that
// would otherwise surface as confusing runtime errors deep in the collector.
func validate(cfg *Config) error {
	if len(cfg.Chains) == 0 {
		return ErrNoChains
	}

	ids := make([]string, 0, len(cfg.Chains))
	for id := range cfg.Chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		chain := cfg.Chains[id]
		switch chain.CometVersion {
		case "0.34", "0.37", "0.38":
		default:
			return NewValidationError(id, "comet_version",
				fmt.Errorf("%w: %q", ErrUnsupportedVersion, chain.CometVersion))
		}
		if chain.URL == "" {
			return NewValidationError(id, "url", ErrMissingURL)
		}
	}

	if cfg.Database.Path == "" {
		return NewValidationError("", "database.path", ErrMissingRequiredDatabasePath)
	}

	return nil
}
