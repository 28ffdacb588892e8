package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const packetInfoColumns = `
	t.chain AS chain_id,
	p.sequence,
	p.src_channel,
	p.dst_channel,
	p.sender,
	p.receiver,
	p.amount,
	p.denom,
	p.ibc_version,
	p.signer AS last_attempt_by,
	CAST((strftime('%s', 'now') - strftime('%s', p.created_at)) AS INTEGER) AS age_seconds,
	(SELECT COUNT(*) FROM packets p2 WHERE p2.src_channel = p.src_channel
	 AND p2.dst_channel = p.dst_channel AND p2.sequence = p.sequence) AS relay_attempts
`

func scanPacketInfo(row rowScanner) (PacketInfo, error) {
	var pi PacketInfo
	err := row.Scan(
		&pi.ChainID, &pi.Sequence, &pi.SrcChannel, &pi.DstChannel,
		&pi.Sender, &pi.Receiver, &pi.Amount, &pi.Denom,
		&pi.IBCVersion, &pi.LastAttemptBy, &pi.AgeSeconds, &pi.RelayAttempts,
	)
	return pi, err
}

// PacketsByUser returns packets where address appears as sender,
// receiver, or either, depending on role ("sender", "receiver", or any
// other value such as "both" for either).
func (s *Store) PacketsByUser(address, role string, limit, offset int64) ([]PacketInfo, error) {
	var condition string
	var args []any
	switch role {
	case "sender":
		condition = "p.sender = ?"
		args = []any{address}
	case "receiver":
		condition = "p.receiver = ?"
		args = []any{address}
	default:
		condition = "(p.sender = ? OR p.receiver = ?)"
		args = []any{address, address}
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`, packetInfoColumns, condition)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("packets by user: %w", err)
	}
	defer rows.Close()
	return collectPacketInfos(rows)
}

// StuckPackets returns uneffected packets older than minAgeSeconds,
// oldest first.
func (s *Store) StuckPackets(minAgeSeconds, limit int64) ([]PacketInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE p.effected = 0
		  AND CAST((strftime('%%s', 'now') - strftime('%%s', p.created_at)) AS INTEGER) > ?
		ORDER BY p.created_at ASC
		LIMIT ?`, packetInfoColumns)

	rows, err := s.db.Query(query, minAgeSeconds, limit)
	if err != nil {
		return nil, fmt.Errorf("stuck packets: %w", err)
	}
	defer rows.Close()
	return collectPacketInfos(rows)
}

// PacketByIdentity returns the single packet identified by chain,
// src_channel, and sequence. Returns nil, nil if no match exists.
func (s *Store) PacketByIdentity(chain, srcChannel string, sequence int64) (*PacketInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE t.chain = ? AND p.src_channel = ? AND p.sequence = ?
		LIMIT 1`, packetInfoColumns)

	row := s.db.QueryRow(query, chain, srcChannel, sequence)
	pi, err := scanPacketInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("packet by identity: %w", err)
	}
	return &pi, nil
}

func collectPacketInfos(rows *sql.Rows) ([]PacketInfo, error) {
	infos := make([]PacketInfo, 0)
	for rows.Next() {
		pi, err := scanPacketInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan packet info: %w", err)
		}
		infos = append(infos, pi)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// ChannelCongestion groups stuck (unrelayed, >900s old) packets by
// channel pair, aggregating per-denom totals where the amount parses as
// a plain decimal string.
func (s *Store) ChannelCongestion() ([]ChannelCongestion, error) {
	rows, err := s.db.Query(`
		SELECT
			p.src_channel,
			p.dst_channel,
			COUNT(*) AS stuck_count,
			MAX(CAST((strftime('%s', 'now') - strftime('%s', p.created_at)) AS INTEGER)) AS oldest_stuck_age,
			GROUP_CONCAT(p.denom || ':' || p.amount) AS amounts
		FROM packets p
		WHERE p.effected = 0
		  AND CAST((strftime('%s', 'now') - strftime('%s', p.created_at)) AS INTEGER) > 900
		GROUP BY p.src_channel, p.dst_channel
		ORDER BY stuck_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("channel congestion: %w", err)
	}
	defer rows.Close()

	var out []ChannelCongestion
	for rows.Next() {
		var cc ChannelCongestion
		var amounts sql.NullString
		if err := rows.Scan(&cc.SrcChannel, &cc.DstChannel, &cc.StuckCount, &cc.OldestStuckAgeSeconds, &amounts); err != nil {
			return nil, fmt.Errorf("scan channel congestion: %w", err)
		}
		cc.TotalValue = parseAmounts(amounts.String)
		out = append(out, cc)
	}
	return out, rows.Err()
}

// parseAmounts reconciles the "denom:amount,denom:amount" GROUP_CONCAT
// payload into a per-denom map, summing entries that parse as numbers
// and otherwise keeping the last value seen for a denom — the source's
// own fallback when an amount isn't a plain decimal.
func parseAmounts(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	sums := make(map[string]*big.Int)
	for _, pair := range strings.Split(raw, ",") {
		denom, amount, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		n, isNum := new(big.Int).SetString(amount, 10)
		if !isNum {
			out[denom] = amount
			continue
		}
		if sum, seen := sums[denom]; seen {
			n.Add(n, sum)
		}
		sums[denom] = n
		out[denom] = n.String()
	}
	return out
}

// StuckGroups returns the count and oldest age of uneffected packets
// grouped by (chain, src_channel, dst_channel), for the stuck-packet
// monitor's gauge updates.
func (s *Store) StuckGroups(minAgeSeconds int64) ([]StuckGroup, error) {
	rows, err := s.db.Query(`
		SELECT
			t.chain,
			p.src_channel,
			p.dst_channel,
			COUNT(*) AS stuck_count,
			MAX(CAST((strftime('%s', 'now') - strftime('%s', p.created_at)) AS INTEGER)) AS oldest_age,
			MAX(CASE WHEN p.sender IS NOT NULL THEN 1 ELSE 0 END) AS has_user_data
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE p.effected = 0
		  AND CAST((strftime('%s', 'now') - strftime('%s', p.created_at)) AS INTEGER) > ?
		GROUP BY t.chain, p.src_channel, p.dst_channel`, minAgeSeconds)
	if err != nil {
		return nil, fmt.Errorf("stuck groups: %w", err)
	}
	defer rows.Close()

	var out []StuckGroup
	for rows.Next() {
		var g StuckGroup
		var hasUserData int
		if err := rows.Scan(&g.Chain, &g.SrcChannel, &g.DstChannel, &g.Count, &g.OldestAgeSec, &hasUserData); err != nil {
			return nil, fmt.Errorf("scan stuck group: %w", err)
		}
		g.HasUserData = hasUserData == 1
		out = append(out, g)
	}
	return out, rows.Err()
}

// TimeoutGroup is one (chain, src_channel, dst_channel) bucket of
// uneffected packets approaching or past their relay deadline.
type TimeoutGroup struct {
	Chain            string
	SrcChannel       string
	DstChannel       string
	ExpiringCount    int64
	ExpiredCount     int64
	SoonestRemaining int64 // seconds remaining until the soonest unexpired timeout; 0 if none
}

// TimeoutGroups groups uneffected, timeout-bearing packets by channel pair,
// splitting counts into "expiring" (within nearWindowSeconds) and
// "expired" (already past), for the stuck-packet monitor's near-timeout
// gauges.
func (s *Store) TimeoutGroups(nearWindowSeconds int64) ([]TimeoutGroup, error) {
	rows, err := s.db.Query(`
		SELECT
			t.chain,
			p.src_channel,
			p.dst_channel,
			SUM(CASE WHEN p.timeout_timestamp > CAST(strftime('%s', 'now') AS INTEGER) * 1000000000
			         AND p.timeout_timestamp <= (CAST(strftime('%s', 'now') AS INTEGER) + ?) * 1000000000
			    THEN 1 ELSE 0 END) AS expiring_count,
			SUM(CASE WHEN p.timeout_timestamp <= CAST(strftime('%s', 'now') AS INTEGER) * 1000000000
			    THEN 1 ELSE 0 END) AS expired_count,
			MIN(CASE WHEN p.timeout_timestamp > CAST(strftime('%s', 'now') AS INTEGER) * 1000000000
			    THEN (p.timeout_timestamp / 1000000000) - CAST(strftime('%s', 'now') AS INTEGER)
			    ELSE NULL END) AS soonest_remaining
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE p.effected = 0 AND p.timeout_timestamp IS NOT NULL
		GROUP BY t.chain, p.src_channel, p.dst_channel`, nearWindowSeconds)
	if err != nil {
		return nil, fmt.Errorf("timeout groups: %w", err)
	}
	defer rows.Close()

	var out []TimeoutGroup
	for rows.Next() {
		var g TimeoutGroup
		var soonest sql.NullInt64
		if err := rows.Scan(&g.Chain, &g.SrcChannel, &g.DstChannel, &g.ExpiringCount, &g.ExpiredCount, &soonest); err != nil {
			return nil, fmt.Errorf("scan timeout group: %w", err)
		}
		if soonest.Valid {
			g.SoonestRemaining = soonest.Int64
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ExpiringPackets returns uneffected packets whose timeout_timestamp
// falls within the next withinSeconds, ordered soonest-first.
func (s *Store) ExpiringPackets(withinSeconds, limit int64) ([]PacketInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE p.effected = 0
		  AND p.timeout_timestamp IS NOT NULL
		  AND p.timeout_timestamp > CAST(strftime('%%s', 'now') AS INTEGER) * 1000000000
		  AND p.timeout_timestamp <= (CAST(strftime('%%s', 'now') AS INTEGER) + ?) * 1000000000
		ORDER BY p.timeout_timestamp ASC
		LIMIT ?`, packetInfoColumns)

	rows, err := s.db.Query(query, withinSeconds, limit)
	if err != nil {
		return nil, fmt.Errorf("expiring packets: %w", err)
	}
	defer rows.Close()
	return collectPacketInfos(rows)
}

// ExpiredPackets returns uneffected packets whose timeout_timestamp has
// already passed — packets that are stuck *and* can never be relayed
// successfully again.
func (s *Store) ExpiredPackets(limit int64) ([]PacketInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE p.effected = 0
		  AND p.timeout_timestamp IS NOT NULL
		  AND p.timeout_timestamp <= CAST(strftime('%%s', 'now') AS INTEGER) * 1000000000
		ORDER BY p.timeout_timestamp ASC
		LIMIT ?`, packetInfoColumns)

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("expired packets: %w", err)
	}
	defer rows.Close()
	return collectPacketInfos(rows)
}

// DuplicatePacket groups rows sharing a data_hash, surfacing identical
// packet payloads observed under different identities (e.g. a relayed
// packet re-submitted on a different channel after a path change).
type DuplicatePacket struct {
	DataHash string  `json:"data_hash"`
	Count    int64   `json:"count"`
	ChainIDs string  `json:"chain_ids"`
}

// DuplicatePackets finds data_hash values shared by more than one packet
// row.
func (s *Store) DuplicatePackets(limit int64) ([]DuplicatePacket, error) {
	rows, err := s.db.Query(`
		SELECT p.data_hash, COUNT(*) AS cnt, GROUP_CONCAT(DISTINCT t.chain)
		FROM packets p
		JOIN txs t ON p.tx_id = t.id
		WHERE p.data_hash IS NOT NULL AND p.data_hash != ''
		GROUP BY p.data_hash
		HAVING COUNT(*) > 1
		ORDER BY cnt DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("duplicate packets: %w", err)
	}
	defer rows.Close()

	var out []DuplicatePacket
	for rows.Next() {
		var d DuplicatePacket
		if err := rows.Scan(&d.DataHash, &d.Count, &d.ChainIDs); err != nil {
			return nil, fmt.Errorf("scan duplicate packet: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
