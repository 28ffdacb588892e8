package chainclient

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

func decodeBase64Tx(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

type wireEventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wireEvent struct {
	Type       string               `json:"type"`
	Attributes []wireEventAttribute `json:"attributes"`
}

type wireTxResult struct {
	Code   uint32      `json:"code"`
	Events []wireEvent `json:"events"`
}

type wireBlockResults struct {
	TxsResults []wireTxResult `json:"txs_results"`
}

// parseBlockResults decodes a block_results RPC response into TxResults.
// Attributes with a non-empty key are kept as-is, without base64 decoding;
// only attributes with an empty key go through decodeAttributeBase64, and
// those whose value is not valid base64 are dropped silently.
func parseBlockResults(raw json.RawMessage) ([]TxResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var wire wireBlockResults
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode block_results: %w", err)
	}

	results := make([]TxResult, 0, len(wire.TxsResults))
	for _, wtx := range wire.TxsResults {
		events := make([]TxEvent, 0, len(wtx.Events))
		for _, we := range wtx.Events {
			attrs := make([]EventAttribute, 0, len(we.Attributes))
			for _, wa := range we.Attributes {
				if attr, ok := decodeAttribute(rpcEventAttribute(wa)); ok {
					attrs = append(attrs, attr)
					continue
				}
				if attr, ok := decodeAttributeBase64(wa.Key, wa.Value); ok {
					attrs = append(attrs, attr)
				}
			}
			events = append(events, TxEvent{Type: we.Type, Attributes: attrs})
		}
		results = append(results, TxResult{Code: wtx.Code, Events: events})
	}
	return results, nil
}

type wireNewBlockEvent struct {
	Result struct {
		Data struct {
			Value struct {
				Block struct {
					Header struct {
						Height string `json:"height"`
					} `json:"header"`
					Data struct {
						Txs []string `json:"txs"`
					} `json:"data"`
				} `json:"block"`
			} `json:"value"`
		} `json:"data"`
	} `json:"result"`
}

// parseNewBlockEvent extracts a BlockEvent from a subscription push
// message. ok is false for non-block messages (e.g. the subscribe ack),
// which callers should skip rather than treat as malformed.
func parseNewBlockEvent(raw []byte) (BlockEvent, bool, error) {
	var wire wireNewBlockEvent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return BlockEvent{}, false, fmt.Errorf("decode NewBlock event: %w", err)
	}
	heightStr := wire.Result.Data.Value.Block.Header.Height
	if heightStr == "" {
		return BlockEvent{}, false, nil
	}
	height, err := strconv.ParseInt(heightStr, 10, 64)
	if err != nil {
		return BlockEvent{}, false, fmt.Errorf("parse block height %q: %w", heightStr, err)
	}

	txs := make([][]byte, 0, len(wire.Result.Data.Value.Block.Data.Txs))
	for _, b64 := range wire.Result.Data.Value.Block.Data.Txs {
		decoded, err := decodeBase64Tx(b64)
		if err != nil {
			return BlockEvent{}, false, fmt.Errorf("decode tx at height %d: %w", height, err)
		}
		txs = append(txs, decoded)
	}

	return BlockEvent{Height: height, Block: RawBlock{Txs: txs}}, true, nil
}
