// Package ibcmsg decodes the protobuf "Any"-typed messages carried inside
// an IBC chain transaction into a tagged union, and extracts a
// chain-agnostic UniversalPacketInfo from any message that carries a
// packet.
package ibcmsg

import "fmt"

// Known IBC core message type URLs. Anything else decodes to Other.
const (
	TypeURLCreateClient     = "/ibc.core.client.v1.MsgCreateClient"
	TypeURLUpdateClient     = "/ibc.core.client.v1.MsgUpdateClient"
	TypeURLChanOpenInit     = "/ibc.core.channel.v1.MsgChannelOpenInit"
	TypeURLChanOpenTry      = "/ibc.core.channel.v1.MsgChannelOpenTry"
	TypeURLChanOpenAck      = "/ibc.core.channel.v1.MsgChannelOpenAck"
	TypeURLChanOpenConfirm  = "/ibc.core.channel.v1.MsgChannelOpenConfirm"
	TypeURLRecvPacket       = "/ibc.core.channel.v1.MsgRecvPacket"
	TypeURLAcknowledgement  = "/ibc.core.channel.v1.MsgAcknowledgement"
	TypeURLTimeout          = "/ibc.core.channel.v1.MsgTimeout"
	TypeURLTransfer         = "/ibc.applications.transfer.v1.MsgTransfer"
)

// Height is an IBC client height (revision number + revision height).
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

// Packet is the IBC packet identity, payload, and timeout carried by the
// three packet-lifecycle message types.
type Packet struct {
	Sequence            uint64
	SourcePort          string
	SourceChannel       string
	DestinationPort     string
	DestinationChannel  string
	Data                []byte
	TimeoutHeight       *Height
	TimeoutTimestamp    uint64
}

func decodePacket(raw []byte) (*Packet, error) {
	f, err := scan(raw)
	if err != nil {
		return nil, fmt.Errorf("decode packet: %w", err)
	}
	p := &Packet{
		Sequence:           f.u64(1),
		SourcePort:         f.str(2),
		SourceChannel:      f.str(3),
		DestinationPort:    f.str(4),
		DestinationChannel: f.str(5),
		Data:               f.bytes(6),
		TimeoutTimestamp:   f.u64(8),
	}
	if f.has(7) {
		hf, err := scan(f.bytes(7))
		if err != nil {
			return nil, fmt.Errorf("decode packet timeout_height: %w", err)
		}
		p.TimeoutHeight = &Height{RevisionNumber: hf.u64(1), RevisionHeight: hf.u64(2)}
	}
	return p, nil
}

// Msg is the tagged union of decoded IBC messages. Exactly one concrete
// type below implements it for each recognized type URL, plus Other for
// anything unrecognized.
type Msg interface {
	// TypeURL returns the protobuf Any type URL this message was decoded from.
	TypeURL() string
	// IsIBC reports whether this message belongs to the IBC module family.
	IsIBC() bool
	// IsRelevant reports whether this message carries or initiates a packet.
	IsRelevant() bool
	// Signer returns the submitting address, if the message carries one.
	Signer() string
	// Packet returns the embedded packet for packet-lifecycle messages, else nil.
	Packet() *Packet
}

type baseMsg struct {
	typeURL string
}

func (b baseMsg) TypeURL() string  { return b.typeURL }
func (b baseMsg) IsIBC() bool      { return true }
func (b baseMsg) IsRelevant() bool { return false }
func (b baseMsg) Signer() string   { return "" }
func (b baseMsg) Packet() *Packet  { return nil }

// CreateClient is a decoded MsgCreateClient.
type CreateClient struct {
	baseMsg
	SignerAddr string
}

func (m CreateClient) Signer() string { return m.SignerAddr }

// UpdateClient is a decoded MsgUpdateClient.
type UpdateClient struct {
	baseMsg
	ClientID   string
	SignerAddr string
}

func (m UpdateClient) Signer() string { return m.SignerAddr }

// ChanOpenInit is a decoded MsgChannelOpenInit.
type ChanOpenInit struct {
	baseMsg
	PortID     string
	SignerAddr string
}

func (m ChanOpenInit) Signer() string { return m.SignerAddr }

// ChanOpenTry is a decoded MsgChannelOpenTry.
type ChanOpenTry struct {
	baseMsg
	PortID     string
	SignerAddr string
}

func (m ChanOpenTry) Signer() string { return m.SignerAddr }

// ChanOpenAck is a decoded MsgChannelOpenAck.
type ChanOpenAck struct {
	baseMsg
	ChannelID  string
	PortID     string
	SignerAddr string
}

func (m ChanOpenAck) Signer() string { return m.SignerAddr }

// ChanOpenConfirm is a decoded MsgChannelOpenConfirm.
type ChanOpenConfirm struct {
	baseMsg
	ChannelID  string
	PortID     string
	SignerAddr string
}

func (m ChanOpenConfirm) Signer() string { return m.SignerAddr }

// RecvPacket is a decoded MsgRecvPacket.
type RecvPacket struct {
	baseMsg
	Pkt        *Packet
	SignerAddr string
}

func (m RecvPacket) Signer() string   { return m.SignerAddr }
func (m RecvPacket) IsRelevant() bool { return true }
func (m RecvPacket) Packet() *Packet  { return m.Pkt }

// Acknowledgement is a decoded MsgAcknowledgement.
type Acknowledgement struct {
	baseMsg
	Pkt        *Packet
	SignerAddr string
}

func (m Acknowledgement) Signer() string   { return m.SignerAddr }
func (m Acknowledgement) IsRelevant() bool { return true }
func (m Acknowledgement) Packet() *Packet  { return m.Pkt }

// Timeout is a decoded MsgTimeout.
type Timeout struct {
	baseMsg
	Pkt        *Packet
	SignerAddr string
}

func (m Timeout) Signer() string   { return m.SignerAddr }
func (m Timeout) IsRelevant() bool { return true }
func (m Timeout) Packet() *Packet  { return m.Pkt }

// Transfer is a decoded MsgTransfer. It initiates a packet but carries no
// assigned sequence yet, so it has no embedded Packet.
type Transfer struct {
	baseMsg
	SourcePort    string
	SourceChannel string
	SenderAddr    string
	Receiver      string
	Denom         string
	Amount        string
	Memo          string
}

func (m Transfer) Signer() string   { return m.SenderAddr }
func (m Transfer) IsRelevant() bool { return true }

// Other is an opaque passthrough for any unrecognized type URL.
type Other struct {
	baseMsg
	Value []byte
}

func (m Other) IsIBC() bool {
	return len(m.typeURL) >= 4 && m.typeURL[:4] == "/ibc"
}

// Decode turns a protobuf Any (type_url, value) pair into a tagged Msg.
// Unrecognized type URLs decode to Other rather than failing.
func Decode(typeURL string, value []byte) (Msg, error) {
	base := baseMsg{typeURL: typeURL}

	switch typeURL {
	case TypeURLCreateClient:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		return CreateClient{baseMsg: base, SignerAddr: f.str(3)}, nil

	case TypeURLUpdateClient:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		return UpdateClient{baseMsg: base, ClientID: f.str(1), SignerAddr: f.str(3)}, nil

	case TypeURLChanOpenInit:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		return ChanOpenInit{baseMsg: base, PortID: f.str(1), SignerAddr: f.str(3)}, nil

	case TypeURLChanOpenTry:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		return ChanOpenTry{baseMsg: base, PortID: f.str(1), SignerAddr: f.str(7)}, nil

	case TypeURLChanOpenAck:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		return ChanOpenAck{baseMsg: base, PortID: f.str(1), ChannelID: f.str(2), SignerAddr: f.str(7)}, nil

	case TypeURLChanOpenConfirm:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		return ChanOpenConfirm{baseMsg: base, PortID: f.str(1), ChannelID: f.str(2), SignerAddr: f.str(5)}, nil

	case TypeURLRecvPacket:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		pkt, err := decodePacket(f.bytes(1))
		if err != nil {
			return nil, fmt.Errorf("decode MsgRecvPacket: %w", err)
		}
		return RecvPacket{baseMsg: base, Pkt: pkt, SignerAddr: f.str(4)}, nil

	case TypeURLAcknowledgement:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		pkt, err := decodePacket(f.bytes(1))
		if err != nil {
			return nil, fmt.Errorf("decode MsgAcknowledgement: %w", err)
		}
		return Acknowledgement{baseMsg: base, Pkt: pkt, SignerAddr: f.str(5)}, nil

	case TypeURLTimeout:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		pkt, err := decodePacket(f.bytes(1))
		if err != nil {
			return nil, fmt.Errorf("decode MsgTimeout: %w", err)
		}
		return Timeout{baseMsg: base, Pkt: pkt, SignerAddr: f.str(5)}, nil

	case TypeURLTransfer:
		f, err := scan(value)
		if err != nil {
			return nil, err
		}
		var denom, amount string
		if f.has(3) {
			tf, err := scan(f.bytes(3))
			if err != nil {
				return nil, fmt.Errorf("decode MsgTransfer token: %w", err)
			}
			denom, amount = tf.str(1), tf.str(2)
		}
		return Transfer{
			baseMsg:       base,
			SourcePort:    f.str(1),
			SourceChannel: f.str(2),
			Denom:         denom,
			Amount:        amount,
			SenderAddr:    f.str(4),
			Receiver:      f.str(5),
			Memo:          f.str(8),
		}, nil

	default:
		return Other{baseMsg: base, Value: value}, nil
	}
}
