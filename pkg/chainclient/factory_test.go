package chainclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDispatchesByVersion(t *testing.T) {
	c34, err := NewClient("ws://node:26657/websocket", "0.34", nil)
	require.NoError(t, err)
	assert.IsType(t, &ClassicClient{}, c34)

	c37, err := NewClient("ws://node:26657/websocket", "0.37", nil)
	require.NoError(t, err)
	assert.IsType(t, &ClassicClient{}, c37)

	c38, err := NewClient("ws://node:26657/websocket", "0.38", nil)
	require.NoError(t, err)
	assert.IsType(t, &ModernClient{}, c38)
}

func TestNewClientAuthTakesPriority(t *testing.T) {
	c, err := NewClient("wss://node:443/websocket", "0.38", &BasicAuth{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.IsType(t, &AuthClient{}, c)
}

func TestNewClientUnsupportedVersion(t *testing.T) {
	_, err := NewClient("ws://node:26657/websocket", "0.40", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedCometVersion))
}
