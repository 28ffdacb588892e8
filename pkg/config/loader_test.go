package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestInitializeInlineChain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[global]
ibc_versions = ["v1"]

[chains.osmosis-1]
url = "wss://osmosis.example.com/websocket"
comet_version = "0.38"

[database]
path = "./data.db"

[metrics]
enabled = true
port = 3000
`)

	cfg, err := Initialize(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	require.Contains(t, cfg.Chains, "osmosis-1")
	chain := cfg.Chains["osmosis-1"]
	assert.Equal(t, "0.38", chain.CometVersion)
	assert.Equal(t, defaultIBCVersion, chain.IBCVersion)
	assert.False(t, chain.HasAuth())
	assert.Equal(t, "./data.db", cfg.Database.Path)
	assert.Equal(t, 3000, cfg.Metrics.Port)
}

func TestInitializeChainRef(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[chains.cosmoshub-4]
url = "ref:cosmoshub"

[database]
path = "./data.db"

[metrics]
enabled = true
port = 3000
`)
	writeFile(t, dir, "chains.json", `{
  "chains": {
    "cosmoshub": {
      "chain_id": "cosmoshub-4",
      "rpc": "https://rpc.example.com",
      "websocket": "wss://rpc.example.com/websocket",
      "username": "relayer",
      "password": "secret",
      "comet_version": "0.37"
    }
  }
}`)

	cfg, err := Initialize(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	chain := cfg.Chains["cosmoshub-4"]
	assert.Equal(t, "wss://rpc.example.com/websocket", chain.URL)
	assert.Equal(t, "0.37", chain.CometVersion)
	assert.True(t, chain.HasAuth())
	assert.Equal(t, "relayer", chain.Username)
}

func TestInitializeUnknownChainRef(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[chains.cosmoshub-4]
url = "ref:does-not-exist"

[database]
path = "./data.db"

[metrics]
enabled = true
port = 3000
`)
	writeFile(t, dir, "chains.json", `{"chains": {}}`)

	_, err := Initialize(filepath.Join(dir, "config.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownChainRef)
}

func TestInitializeMissingChainsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[chains.cosmoshub-4]
url = "ref:cosmoshub"

[database]
path = "./data.db"

[metrics]
enabled = true
port = 3000
`)

	_, err := Initialize(filepath.Join(dir, "config.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChainsFileNotFound)
}

func TestInitializeUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[chains.a]
url = "wss://a.example.com/websocket"
comet_version = "0.40"

[database]
path = "./data.db"

[metrics]
enabled = true
port = 3000
`)

	_, err := Initialize(filepath.Join(dir, "config.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestInitializeNoChains(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[database]
path = "./data.db"

[metrics]
enabled = true
port = 3000
`)

	_, err := Initialize(filepath.Join(dir, "config.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoChains)
}

func TestInitializeConfigNotFound(t *testing.T) {
	_, err := Initialize(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
