// Package chainclient implements the wire adapters used to subscribe to
// new blocks and fetch block results from a CometBFT-family RPC node,
// across the three protocol dialects chainpulse-go needs to speak.
package chainclient

import "context"

// BlockEvent is one observed new-block notification.
type BlockEvent struct {
	Height int64
	Block  RawBlock
}

// RawBlock is the subset of a decoded block payload the collector needs:
// the list of raw transaction bytes in their original order.
type RawBlock struct {
	Txs [][]byte
}

// EventAttribute is a single decoded (key, value) pair from a block-result event.
type EventAttribute struct {
	Key   string
	Value string
}

// TxEvent is one event attached to a transaction result.
type TxEvent struct {
	Type       string
	Attributes []EventAttribute
}

// TxResult is one transaction's block-results entry.
type TxResult struct {
	Code   uint32
	Events []TxEvent
}

// Client is the uniform capability set exposed by every protocol dialect.
type Client interface {
	// SubscribeBlocks opens a single-consumer stream of new-block events.
	// Any transport error terminates the stream with a single error value.
	SubscribeBlocks(ctx context.Context) (<-chan BlockEvent, <-chan error, error)

	// GetBlockResults returns the per-transaction results for height, or an
	// empty slice for clients that do not support it.
	GetBlockResults(ctx context.Context, height int64) ([]TxResult, error)

	// SupportsEvents is a capability hint consulted by the collector to
	// decide whether to request block results at all.
	SupportsEvents() bool

	// Close releases any resources held by the client between iterations.
	Close()
}

// BasicAuth holds HTTP Basic credentials for endpoints that require them.
type BasicAuth struct {
	Username string
	Password string
}

// eventBacklog bounds the in-process channel between each dialect's raw
// WebSocket reader goroutine and its collector consumer. If the consumer
// falls this far behind, the reader drops the subscription rather than
// blocking indefinitely — preferring reconnection to silent lag.
const eventBacklog = 100
