package store

// Transaction is one row of the txs table: an immutable record of a
// decoded chain transaction, unique per (chain, hash).
type Transaction struct {
	ID        int64
	Chain     string
	Height    int64
	Hash      string
	Memo      string
	CreatedAt string
}

// Packet is one row of the packets table. Fields populated only for
// fungible-token-transfer payloads, or only once a packet has been
// effected by a later message, are nullable.
type Packet struct {
	ID                          int64
	TxID                        int64
	Sequence                    int64
	SrcChannel                  string
	SrcPort                     string
	DstChannel                  string
	DstPort                     string
	MsgTypeURL                  string
	Signer                      string
	Effected                    bool
	EffectedSigner              *string
	EffectedTx                  *int64
	Sender                      *string
	Receiver                    *string
	Denom                       *string
	Amount                      *string
	TransferMemo                *string
	IBCVersion                  string
	TimeoutTimestamp            *int64
	TimeoutHeightRevisionNumber *int64
	TimeoutHeightRevisionHeight *int64
	DataHash                    *string
	CreatedAt                   string
}

// NewPacket is the set of fields the collector supplies when inserting a
// packet row; the store fills in id/created_at.
type NewPacket struct {
	TxID                        int64
	Sequence                    int64
	SrcChannel                  string
	SrcPort                     string
	DstChannel                  string
	DstPort                     string
	MsgTypeURL                  string
	Signer                      string
	Effected                    bool
	EffectedSigner              *string
	EffectedTx                  *int64
	Sender                      *string
	Receiver                    *string
	Denom                       *string
	Amount                      *string
	TransferMemo                *string
	IBCVersion                  string
	TimeoutTimestamp            *int64
	TimeoutHeightRevisionNumber *int64
	TimeoutHeightRevisionHeight *int64
	DataHash                    *string
}

// PacketInfo is the flattened, API-facing view of a packet joined with
// its transaction's chain id, used by the packet list and packet detail
// endpoints in pkg/api.
type PacketInfo struct {
	ChainID       string  `json:"chain_id"`
	Sequence      int64   `json:"sequence"`
	SrcChannel    string  `json:"src_channel"`
	DstChannel    string  `json:"dst_channel"`
	Sender        *string `json:"sender"`
	Receiver      *string `json:"receiver"`
	Amount        *string `json:"amount"`
	Denom         *string `json:"denom"`
	IBCVersion    string  `json:"ibc_version"`
	LastAttemptBy string  `json:"last_attempt_by"`
	AgeSeconds    int64   `json:"age_seconds"`
	RelayAttempts int64   `json:"relay_attempts"`
}

// ChannelCongestion summarizes stuck packets grouped by channel pair.
type ChannelCongestion struct {
	SrcChannel            string            `json:"src_channel"`
	DstChannel            string            `json:"dst_channel"`
	StuckCount            int64             `json:"stuck_count"`
	OldestStuckAgeSeconds *int64            `json:"oldest_stuck_age_seconds"`
	TotalValue            map[string]string `json:"total_value"`
}

// StuckGroup is one (chain, src_channel, dst_channel) bucket of unrelayed
// packets, as consumed by pkg/monitor.
type StuckGroup struct {
	Chain        string
	SrcChannel   string
	DstChannel   string
	Count        int64
	OldestAgeSec int64
	HasUserData  bool
}
