package ibcmsg

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// FungibleTokenPacketData is the standard JSON payload of a fungible-token
// transfer packet on the "transfer" port.
type FungibleTokenPacketData struct {
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Memo     string `json:"memo,omitempty"`
}

// UniversalPacketInfo is the chain-agnostic view of a packet built from any
// message that carries one: identity, timeout, user payload (when the
// packet is a fungible-token transfer), and a content hash for duplicate
// detection.
type UniversalPacketInfo struct {
	Sequence            uint64
	SourceChannel       string
	DestinationChannel  string
	SourcePort          string
	DestinationPort     string
	TimeoutTimestamp    *uint64
	TimeoutHeight       *Height

	Sender       *string
	Receiver     *string
	Amount       *string
	Denom        *string
	TransferMemo *string

	IBCVersion string
	DataHash   string
}

// UniversalPacketInfoFromPacket builds a UniversalPacketInfo from a decoded
// Packet, attempting fungible-token-transfer extraction when the source
// port is "transfer".
func UniversalPacketInfoFromPacket(p *Packet) *UniversalPacketInfo {
	info := &UniversalPacketInfo{
		Sequence:           p.Sequence,
		SourceChannel:      p.SourceChannel,
		DestinationChannel: p.DestinationChannel,
		SourcePort:         p.SourcePort,
		DestinationPort:    p.DestinationPort,
		TimeoutHeight:      p.TimeoutHeight,
		IBCVersion:         "v1",
		DataHash:           hashHex(p.Data),
	}

	if p.TimeoutTimestamp != 0 {
		ts := p.TimeoutTimestamp
		info.TimeoutTimestamp = &ts
	}

	if p.SourcePort == "transfer" {
		var ft FungibleTokenPacketData
		if err := json.Unmarshal(p.Data, &ft); err == nil {
			info.Sender = &ft.Sender
			info.Receiver = &ft.Receiver
			info.Denom = &ft.Denom
			info.Amount = &ft.Amount
			info.TransferMemo = &ft.Memo
		}
	}

	return info
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
