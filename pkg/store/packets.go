package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// FindPacket probes for an existing packet row with the same identity
// quadruple, sequence, and message type — the correlation step used to
// classify a newly observed relay message as effected or uneffected.
// A nil, nil result means no prior row exists.
func (s *Store) FindPacket(srcChannel, srcPort, dstChannel, dstPort string, sequence int64, msgTypeURL string) (*Packet, error) {
	row := s.db.QueryRow(
		`SELECT id, tx_id, sequence, src_channel, src_port, dst_channel, dst_port,
			msg_type_url, signer, effected, effected_signer, effected_tx,
			sender, receiver, denom, amount, transfer_memo, ibc_version,
			timeout_timestamp, timeout_height_revision_number, timeout_height_revision_height,
			data_hash, created_at
		 FROM packets
		 WHERE src_channel = ? AND src_port = ? AND dst_channel = ? AND dst_port = ?
		   AND sequence = ? AND msg_type_url = ?
		 LIMIT 1`,
		srcChannel, srcPort, dstChannel, dstPort, sequence, msgTypeURL,
	)
	p, err := scanPacket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find packet: %w", err)
	}
	return p, nil
}

// InsertPacket inserts a packet row with INSERT OR IGNORE. The packets
// table has no unique index, so every call adds a row, including one that
// repeats an existing identity/sequence/msg_type_url; the caller's
// Effected flag is what marks the first observation apart from later ones.
func (s *Store) InsertPacket(p NewPacket) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO packets
			(tx_id, sequence, src_channel, src_port, dst_channel, dst_port,
			 msg_type_url, signer, effected, effected_signer, effected_tx,
			 sender, receiver, denom, amount, transfer_memo, ibc_version,
			 timeout_timestamp, timeout_height_revision_number, timeout_height_revision_height,
			 data_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		p.TxID, p.Sequence, p.SrcChannel, p.SrcPort, p.DstChannel, p.DstPort,
		p.MsgTypeURL, p.Signer, p.Effected, p.EffectedSigner, p.EffectedTx,
		p.Sender, p.Receiver, p.Denom, p.Amount, p.TransferMemo, p.IBCVersion,
		p.TimeoutTimestamp, p.TimeoutHeightRevisionNumber, p.TimeoutHeightRevisionHeight,
		p.DataHash,
	)
	if err != nil {
		return fmt.Errorf("insert packet: %w", err)
	}
	return nil
}

// UpdateSendPacketEffected marks an event-derived send_packet row as
// effected once a matching acknowledge_packet or timeout_packet event
// arrives on the same channel pair and sequence. newMsgTypeURL lets the
// timeout path relabel the row as "timeout_packet" the way the ack path
// leaves it as "send_packet".
func (s *Store) UpdateSendPacketEffected(srcChannel, dstChannel string, sequence, effectedTx int64, newMsgTypeURL string) error {
	_, err := s.db.Exec(
		`UPDATE packets
		 SET effected = 1, effected_tx = ?, msg_type_url = ?
		 WHERE sequence = ? AND src_channel = ? AND dst_channel = ? AND msg_type_url = 'send_packet'`,
		effectedTx, newMsgTypeURL, sequence, srcChannel, dstChannel,
	)
	if err != nil {
		return fmt.Errorf("update event-derived packet: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPacket(row rowScanner) (*Packet, error) {
	var p Packet
	err := row.Scan(
		&p.ID, &p.TxID, &p.Sequence, &p.SrcChannel, &p.SrcPort, &p.DstChannel, &p.DstPort,
		&p.MsgTypeURL, &p.Signer, &p.Effected, &p.EffectedSigner, &p.EffectedTx,
		&p.Sender, &p.Receiver, &p.Denom, &p.Amount, &p.TransferMemo, &p.IBCVersion,
		&p.TimeoutTimestamp, &p.TimeoutHeightRevisionNumber, &p.TimeoutHeightRevisionHeight,
		&p.DataHash, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
