package store

import "fmt"

// InsertTxEvent records one raw event attached to a transaction's block
// results, retained for later inspection independent of whatever
// packet-level interpretation the collector derives from it.
func (s *Store) InsertTxEvent(txID int64, eventType string, eventIndex int) (int64, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO tx_events (tx_id, event_type, event_index, created_at)
		 VALUES (?, ?, ?, datetime('now'))`,
		txID, eventType, eventIndex,
	)
	if err != nil {
		return 0, fmt.Errorf("insert tx_event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		row := s.db.QueryRow(
			`SELECT id FROM tx_events WHERE tx_id = ? AND event_type = ? AND event_index = ?`,
			txID, eventType, eventIndex,
		)
		if scanErr := row.Scan(&id); scanErr != nil {
			return 0, fmt.Errorf("select tx_event after insert: %w", scanErr)
		}
	}
	return id, nil
}

// InsertEventAttribute records one (key, value) attribute of a tx event.
func (s *Store) InsertEventAttribute(eventID int64, key, value string, attrIndex int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO event_attributes (event_id, key, value, attribute_index)
		 VALUES (?, ?, ?, ?)`,
		eventID, key, value, attrIndex,
	)
	if err != nil {
		return fmt.Errorf("insert event_attribute: %w", err)
	}
	return nil
}
