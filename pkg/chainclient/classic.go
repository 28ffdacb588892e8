package chainclient

import (
	"context"
	"fmt"

	"nhooyr.io/websocket"
)

// ClassicClient speaks the same JSON-RPC-over-WebSocket wire protocol as
// ModernClient but is kept as a distinct type for protocol versions 0.34
// and 0.37, matching the three-dialect split in the factory's dispatch
// table. The wire shape the two dialects actually exchange has not
// diverged in a way this decoder needs to special-case.
type ClassicClient struct {
	url string
	ids requestIDSeq
}

// NewClassicClient returns a client for protocol versions 0.34 and 0.37.
func NewClassicClient(url string) *ClassicClient {
	return &ClassicClient{url: url}
}

func (c *ClassicClient) SupportsEvents() bool { return true }

func (c *ClassicClient) Close() {}

func (c *ClassicClient) SubscribeBlocks(ctx context.Context) (<-chan BlockEvent, <-chan error, error) {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("classic client: dial: %w", err)
	}

	sub := newSubscribeRequest(c.ids.next("classic"))
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, nil, fmt.Errorf("classic client: subscribe: %w", err)
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
				errs <- fmt.Errorf("classic client: stream: %w", err)
				return
			}
			block, ok, err := parseNewBlockEvent(data)
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				continue
			}
			select {
			case events <- block:
			case <-ctx.Done():
				return
			default:
				errs <- fmt.Errorf("classic client: event backlog exceeded %d, dropping subscription", eventBacklog)
				return
			}
		}
	}()

	return events, errs, nil
}

func (c *ClassicClient) GetBlockResults(ctx context.Context, height int64) ([]TxResult, error) {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("classic client: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	req := newHeightRequest(c.ids.next("classic"), "block_results", height)
	if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
		return nil, fmt.Errorf("classic client: block_results request: %w", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("classic client: block_results response: %w", err)
	}

	result, err := parseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("classic client: %w", err)
	}
	return parseBlockResults(result)
}
