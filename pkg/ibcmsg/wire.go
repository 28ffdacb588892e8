package ibcmsg

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// rawFields is a minimal protobuf wire-format scanner used to pull known
// field numbers out of IBC core message types without depending on the
// full generated cosmos-sdk/ibc-go type tree. Field numbers below are the
// stable, publicly documented layout of the IBC core proto messages (the
// same wire format the original Rust client decodes via prost-generated
// types); later occurrences of a field win, matching protobuf semantics.
type rawFields struct {
	bytesByField  map[protowire.Number][]byte
	varintByField map[protowire.Number]uint64
}

// scan parses b into a rawFields, recording the LEN-type (string/bytes/
// submessage) and VARINT-type field occurrences. Unknown wire types
// (fixed32/fixed64/group) are skipped rather than treated as fatal, since
// none of the messages decoded here use them.
func scan(b []byte) (*rawFields, error) {
	f := &rawFields{
		bytesByField:  make(map[protowire.Number][]byte),
		varintByField: make(map[protowire.Number]uint64),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("ibcmsg: invalid protobuf tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("ibcmsg: invalid varint field %d: %w", num, protowire.ParseError(n))
			}
			f.varintByField[num] = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("ibcmsg: invalid bytes field %d: %w", num, protowire.ParseError(n))
			}
			f.bytesByField[num] = v
			b = b[n:]
		case protowire.Fixed32Type:
			_, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, fmt.Errorf("ibcmsg: invalid fixed32 field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		case protowire.Fixed64Type:
			_, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("ibcmsg: invalid fixed64 field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("ibcmsg: invalid field %d (wire type %v)", num, typ)
			}
			b = b[n:]
		}
	}
	return f, nil
}

func (f *rawFields) str(num protowire.Number) string {
	return string(f.bytesByField[num])
}

func (f *rawFields) bytes(num protowire.Number) []byte {
	return f.bytesByField[num]
}

func (f *rawFields) u64(num protowire.Number) uint64 {
	return f.varintByField[num]
}

func (f *rawFields) has(num protowire.Number) bool {
	_, ok := f.bytesByField[num]
	return ok
}

// scanRepeated parses b and returns every LEN-type occurrence of field num,
// in wire order, rather than just the last-wins value scan returns. Used
// for protobuf "repeated" fields such as TxBody.messages, which scan's
// single-value map cannot represent.
func scanRepeated(b []byte, num protowire.Number) ([][]byte, error) {
	var out [][]byte
	for len(b) > 0 {
		n, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return nil, fmt.Errorf("ibcmsg: invalid protobuf tag: %w", protowire.ParseError(tagLen))
		}
		b = b[tagLen:]

		valLen := protowire.ConsumeFieldValue(n, typ, b)
		if valLen < 0 {
			return nil, fmt.Errorf("ibcmsg: invalid field %d (wire type %v)", n, typ)
		}
		if n == num && typ == protowire.BytesType {
			v, _ := protowire.ConsumeBytes(b)
			out = append(out, v)
		}
		b = b[valLen:]
	}
	return out, nil
}
