package store

import "fmt"

// InsertTransaction inserts a transaction row if (chain, hash) is not
// already present, then selects back the canonical row either way —
// matching the insert-or-ignore-then-select pattern this table relies on
// for its uniqueness invariant instead of a transactional upsert.
func (s *Store) InsertTransaction(chain string, height int64, hash, memo string) (*Transaction, error) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO txs (chain, height, hash, memo, created_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`,
		chain, height, hash, memo,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tx: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT id, chain, height, hash, memo, created_at FROM txs WHERE chain = ? AND hash = ? LIMIT 1`,
		chain, hash,
	)
	var tx Transaction
	if err := row.Scan(&tx.ID, &tx.Chain, &tx.Height, &tx.Hash, &tx.Memo, &tx.CreatedAt); err != nil {
		return nil, fmt.Errorf("select tx after insert: %w", err)
	}
	return &tx, nil
}

// GetTransaction fetches a transaction by id, used when reporting the
// transaction that effected a packet (frontrun attribution).
func (s *Store) GetTransaction(id int64) (*Transaction, error) {
	row := s.db.QueryRow(
		`SELECT id, chain, height, hash, memo, created_at FROM txs WHERE id = ? LIMIT 1`,
		id,
	)
	var tx Transaction
	if err := row.Scan(&tx.ID, &tx.Chain, &tx.Height, &tx.Hash, &tx.Memo, &tx.CreatedAt); err != nil {
		return nil, fmt.Errorf("select tx: %w", err)
	}
	return &tx, nil
}
