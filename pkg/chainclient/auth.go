package chainclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"nhooyr.io/websocket"
)

// AuthClient subscribes to new blocks over a WebSocket endpoint that
// requires HTTP Basic credentials on the upgrade request. It is the most
// limited dialect: it cannot fetch block results at all, so the
// collector must treat it as event-blind.
type AuthClient struct {
	url  string
	auth BasicAuth
	ids  requestIDSeq
}

// NewAuthClient returns a client that authenticates the WebSocket upgrade
// with HTTP Basic credentials and an Origin header derived from url.
func NewAuthClient(rawURL string, auth BasicAuth) *AuthClient {
	return &AuthClient{url: rawURL, auth: auth}
}

func (c *AuthClient) SupportsEvents() bool { return false }

func (c *AuthClient) Close() {}

func (c *AuthClient) dialHeader() http.Header {
	h := make(http.Header)
	creds := base64.StdEncoding.EncodeToString([]byte(c.auth.Username + ":" + c.auth.Password))
	h.Set("Authorization", "Basic "+creds)
	if u, err := url.Parse(c.url); err == nil {
		origin := "https://" + u.Host
		h.Set("Origin", origin)
	}
	return h
}

func (c *AuthClient) SubscribeBlocks(ctx context.Context) (<-chan BlockEvent, <-chan error, error) {
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{
		HTTPHeader: c.dialHeader(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("auth client: dial: %w", err)
	}

	sub := newSubscribeRequest(c.ids.next("auth"))
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, nil, fmt.Errorf("auth client: subscribe: %w", err)
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
				errs <- fmt.Errorf("auth client: stream: %w", err)
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
				errs <- fmt.Errorf("auth client: event backlog exceeded %d, dropping subscription", eventBacklog)
				return
			}
		}
	}()

	return events, errs, nil
}

// GetBlockResults is not implemented by the authenticated dialect; it
// returns an empty result rather than an error, matching SupportsEvents
// returning false so callers skip event-derived correlation entirely.
func (c *AuthClient) GetBlockResults(ctx context.Context, height int64) ([]TxResult, error) {
	return nil, nil
}
