package store

// tableStatements are idempotent CREATE TABLE statements applied in order
// at every startup, mirroring the four-table layout of
// original_source/src/db.rs (transactions, packets, and the two optional
// event tables retained for later use).
var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS txs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		chain      TEXT    NOT NULL,
		height     INTEGER NOT NULL,
		hash       TEXT    NOT NULL,
		memo       TEXT    NOT NULL,
		created_at TEXT    NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS packets (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id           INTEGER NOT NULL REFERENCES txs (id),
		sequence        INTEGER NOT NULL,
		src_channel     TEXT    NOT NULL,
		src_port        TEXT    NOT NULL,
		dst_channel     TEXT    NOT NULL,
		dst_port        TEXT    NOT NULL,
		msg_type_url    TEXT    NOT NULL,
		signer          TEXT,
		effected        BOOL    NOT NULL,
		effected_signer TEXT,
		created_at      TEXT    NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS tx_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id       INTEGER NOT NULL REFERENCES txs (id),
		event_type  TEXT    NOT NULL,
		event_index INTEGER NOT NULL,
		created_at  TEXT    NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS event_attributes (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id        INTEGER NOT NULL REFERENCES tx_events (id),
		key             TEXT    NOT NULL,
		value           TEXT    NOT NULL,
		attribute_index INTEGER NOT NULL
	);`,
}

// migrationStatements are additive ALTER TABLE statements applied after
// table creation. Each is run independently and a "duplicate column"
// failure (already applied on a prior startup) is swallowed rather than
// treated as fatal — there is no up/down migration state to track.
var migrationStatements = []string{
	`ALTER TABLE packets ADD COLUMN effected_tx INTEGER REFERENCES txs (id);`,
	`ALTER TABLE packets ADD COLUMN sender TEXT;`,
	`ALTER TABLE packets ADD COLUMN receiver TEXT;`,
	`ALTER TABLE packets ADD COLUMN denom TEXT;`,
	`ALTER TABLE packets ADD COLUMN amount TEXT;`,
	`ALTER TABLE packets ADD COLUMN ibc_version TEXT DEFAULT 'v1';`,
	`ALTER TABLE packets ADD COLUMN transfer_memo TEXT;`,
	`ALTER TABLE packets ADD COLUMN timeout_timestamp INTEGER;`,
	`ALTER TABLE packets ADD COLUMN timeout_height_revision_number INTEGER;`,
	`ALTER TABLE packets ADD COLUMN timeout_height_revision_height INTEGER;`,
	`ALTER TABLE packets ADD COLUMN data_hash TEXT;`,
}

var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS txs_unique ON txs (chain, hash);`,
	`CREATE INDEX IF NOT EXISTS txs_chain ON txs (chain);`,
	`CREATE INDEX IF NOT EXISTS txs_hash ON txs (hash);`,
	`CREATE INDEX IF NOT EXISTS txs_memo ON txs (memo);`,
	`CREATE INDEX IF NOT EXISTS txs_height ON txs (height);`,
	`CREATE INDEX IF NOT EXISTS txs_created_at ON txs (created_at);`,
	`CREATE INDEX IF NOT EXISTS packets_tx_id ON packets (tx_id);`,
	`CREATE INDEX IF NOT EXISTS packets_signer ON packets (signer);`,
	`CREATE INDEX IF NOT EXISTS packets_src_channel ON packets (src_channel);`,
	`CREATE INDEX IF NOT EXISTS packets_dst_channel ON packets (dst_channel);`,
	`CREATE INDEX IF NOT EXISTS packets_effected ON packets (effected);`,
	`CREATE INDEX IF NOT EXISTS packets_effected_tx ON packets (effected_tx);`,
	`CREATE INDEX IF NOT EXISTS packets_sender ON packets (sender) WHERE sender IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS packets_receiver ON packets (receiver) WHERE receiver IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS packets_pending_sender ON packets (sender, effected) WHERE effected = 0 AND sender IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS packets_pending_receiver ON packets (receiver, effected) WHERE effected = 0 AND receiver IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS packets_stuck ON packets (src_channel, dst_channel, effected, created_at) WHERE effected = 0;`,
	`CREATE INDEX IF NOT EXISTS packets_data_hash ON packets (data_hash);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tx_events_unique ON tx_events (tx_id, event_type, event_index);`,
	`CREATE INDEX IF NOT EXISTS tx_events_tx_id ON tx_events (tx_id);`,
	`CREATE INDEX IF NOT EXISTS tx_events_type ON tx_events (event_type);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS event_attr_unique ON event_attributes (event_id, key, attribute_index);`,
	`CREATE INDEX IF NOT EXISTS event_attr_event ON event_attributes (event_id);`,
	`CREATE INDEX IF NOT EXISTS event_attr_key ON event_attributes (key);`,
}
