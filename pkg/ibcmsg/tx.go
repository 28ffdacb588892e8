package ibcmsg

import "fmt"

// AnyMsg is a decoded protobuf Any: a type URL and its still-encoded value,
// ready to be handed to Decode.
type AnyMsg struct {
	TypeURL string
	Value   []byte
}

// DecodedTx is the minimal subset of a cosmos-sdk Tx envelope the collector
// needs: the ordered list of Any-typed messages and the transaction memo,
// both carried inside TxBody (Tx field 1).
type DecodedTx struct {
	Messages []AnyMsg
	Memo     string
}

// DecodeTx parses a cosmos-sdk Tx envelope off the wire without depending
// on the generated cosmos-sdk types: Tx.body is field 1 (TxBody),
// TxBody.messages is repeated field 1 (Any), TxBody.memo is field 2, and
// Any.type_url/Any.value are fields 1/2. An empty or bodyless transaction
// is reported as an error so the caller can skip it without aborting the
// surrounding block.
func DecodeTx(raw []byte) (*DecodedTx, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode tx: empty transaction body")
	}

	txFields, err := scan(raw)
	if err != nil {
		return nil, fmt.Errorf("decode tx: %w", err)
	}
	bodyBytes := txFields.bytes(1)
	if len(bodyBytes) == 0 {
		return nil, fmt.Errorf("decode tx: missing body")
	}

	bodyFields, err := scan(bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("decode tx body: %w", err)
	}
	rawMessages, err := scanRepeated(bodyBytes, 1)
	if err != nil {
		return nil, fmt.Errorf("decode tx body messages: %w", err)
	}

	msgs := make([]AnyMsg, 0, len(rawMessages))
	for _, m := range rawMessages {
		anyFields, err := scan(m)
		if err != nil {
			return nil, fmt.Errorf("decode Any: %w", err)
		}
		msgs = append(msgs, AnyMsg{TypeURL: anyFields.str(1), Value: anyFields.bytes(2)})
	}

	return &DecodedTx{Messages: msgs, Memo: bodyFields.str(2)}, nil
}
