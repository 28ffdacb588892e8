package ibcmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

func encodeTxBody(memo string, anys ...[]byte) []byte {
	var b []byte
	for _, a := range anys {
		b = appendBytes(b, 1, a)
	}
	b = appendString(b, 2, memo)
	return b
}

func encodeTx(body []byte) []byte {
	return appendBytes(nil, 1, body)
}

func TestDecodeTxSingleMessage(t *testing.T) {
	any1 := encodeAny(TypeURLTransfer, []byte{0xAA})
	body := encodeTxBody("hello", any1)
	tx := encodeTx(body)

	decoded, err := DecodeTx(tx)
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded.Memo)
	require.Len(t, decoded.Messages, 1)
	assert.Equal(t, TypeURLTransfer, decoded.Messages[0].TypeURL)
	assert.Equal(t, []byte{0xAA}, decoded.Messages[0].Value)
}

func TestDecodeTxMultipleMessagesPreservesOrder(t *testing.T) {
	any1 := encodeAny(TypeURLCreateClient, []byte{0x01})
	any2 := encodeAny(TypeURLRecvPacket, []byte{0x02})
	any3 := encodeAny(TypeURLTransfer, []byte{0x03})
	body := encodeTxBody("", any1, any2, any3)
	tx := encodeTx(body)

	decoded, err := DecodeTx(tx)
	require.NoError(t, err)
	require.Len(t, decoded.Messages, 3)
	assert.Equal(t, TypeURLCreateClient, decoded.Messages[0].TypeURL)
	assert.Equal(t, TypeURLRecvPacket, decoded.Messages[1].TypeURL)
	assert.Equal(t, TypeURLTransfer, decoded.Messages[2].TypeURL)
}

func TestDecodeTxEmptyIsError(t *testing.T) {
	_, err := DecodeTx(nil)
	assert.Error(t, err)
}

func TestDecodeTxMissingBodyIsError(t *testing.T) {
	// A Tx with only a varint field 5 and no body (field 1).
	var b []byte
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)

	_, err := DecodeTx(b)
	assert.Error(t, err)
}
