package chainclient

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpcError   `json:"error"`
}

// requestIDSeq generates unique per-process JSON-RPC request ids, mirroring
// the teacher-domain "chainpulse-v038-N" scheme from the original client.
type requestIDSeq struct {
	n atomic.Uint64
}

func (s *requestIDSeq) next(label string) string {
	return fmt.Sprintf("chainpulse-%s-%d", label, s.n.Add(1))
}

func newSubscribeRequest(id string) []byte {
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "subscribe",
		Params:  map[string]string{"query": "tm.event='NewBlock'"},
	}
	b, _ := json.Marshal(req)
	return b
}

func newHeightRequest(id, method string, height int64) []byte {
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  map[string]string{"height": fmt.Sprintf("%d", height)},
	}
	b, _ := json.Marshal(req)
	return b
}

func parseResponse(raw []byte) (json.RawMessage, error) {
	var resp jsonrpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed JSON-RPC response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("JSON-RPC error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// rpcEventAttribute mirrors a wire event attribute that may arrive as plain
// UTF-8 or as base64-encoded key/value strings, depending on node version.
type rpcEventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// decodeAttribute accepts any attribute with a non-empty key as plain
// UTF-8, unchanged; it returns ok=false only when the key is empty. A
// base64-encoded key and value are therefore passed through undecoded.
func decodeAttribute(attr rpcEventAttribute) (EventAttribute, bool) {
	if attr.Key != "" {
		return EventAttribute{Key: attr.Key, Value: attr.Value}, true
	}
	return EventAttribute{}, false
}

// decodeAttributeBase64 decodes a base64-encoded key/value pair, used by
// older nodes that emit event attributes this way.
func decodeAttributeBase64(keyB64, valueB64 string) (EventAttribute, bool) {
	keyBytes, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return EventAttribute{}, false
	}
	valueBytes, err := base64.StdEncoding.DecodeString(valueB64)
	if err != nil {
		return EventAttribute{}, false
	}
	return EventAttribute{Key: string(keyBytes), Value: string(valueBytes)}, true
}
