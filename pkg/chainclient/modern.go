package chainclient

import (
	"context"
	"fmt"

	"nhooyr.io/websocket"
)

// ModernClient speaks JSON-RPC 2.0 over a WebSocket to a protocol-0.38
// node: a persistent connection for the block subscription, and a
// fresh short-lived connection per block-results request.
type ModernClient struct {
	url string
	ids requestIDSeq
}

// NewModernClient returns a client for protocol version 0.38.
func NewModernClient(url string) *ModernClient {
	return &ModernClient{url: url}
}

func (c *ModernClient) SupportsEvents() bool { return true }

func (c *ModernClient) Close() {}

func (c *ModernClient) SubscribeBlocks(ctx context.Context) (<-chan BlockEvent, <-chan error, error) {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("modern client: dial: %w", err)
	}

	sub := newSubscribeRequest(c.ids.next("v038"))
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, nil, fmt.Errorf("modern client: subscribe: %w", err)
	}

	events := make(chan BlockEvent, eventBacklog)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		defer conn.Close(websocket.StatusNormalClosure, "done")

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				errs <- fmt.Errorf("modern client: stream: %w", err)
				return
			}
			block, ok, err := parseNewBlockEvent(data)
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				continue // subscribe ack or unrelated push
			}
			select {
			case events <- block:
			case <-ctx.Done():
				return
			default:
				errs <- fmt.Errorf("modern client: event backlog exceeded %d, dropping subscription", eventBacklog)
				return
			}
		}
	}()

	return events, errs, nil
}

func (c *ModernClient) GetBlockResults(ctx context.Context, height int64) ([]TxResult, error) {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("modern client: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	req := newHeightRequest(c.ids.next("v038"), "block_results", height)
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		return nil, fmt.Errorf("modern client: block_results request: %w", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("modern client: block_results response: %w", err)
	}

	result, err := parseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("modern client: %w", err)
	}
	return parseBlockResults(result)
}
