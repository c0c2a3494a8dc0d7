package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create conversations and escalations",
		SQL: `
			CREATE TABLE conversations (
				id               TEXT PRIMARY KEY,
				customer_id      TEXT NOT NULL,
				pharmacy_id      TEXT NOT NULL DEFAULT '',
				status           TEXT NOT NULL DEFAULT 'active',
				last_intent      TEXT NOT NULL DEFAULT '',
				last_confidence  REAL NOT NULL DEFAULT 0,
				session_data     TEXT,
				cart             TEXT,
				delivery_address TEXT NOT NULL DEFAULT '',
				created_at       TEXT NOT NULL DEFAULT (datetime('now')),
				last_activity_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_conversations_customer ON conversations (customer_id);
			CREATE INDEX idx_conversations_status ON conversations (status);

			CREATE TABLE escalations (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
				reason          TEXT NOT NULL,
				resolved        INTEGER NOT NULL DEFAULT 0,
				created_at      TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_escalations_conversation ON escalations (conversation_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create messages",
		SQL: `
			CREATE TABLE messages (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
				role            TEXT NOT NULL,
				content         TEXT NOT NULL,
				intent          TEXT NOT NULL DEFAULT '',
				timestamp       TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_messages_conversation ON messages (conversation_id, id);
		`,
	},
	{
		Version: 3,
		Name:    "create products",
		SQL: `
			CREATE TABLE products (
				id                    TEXT PRIMARY KEY,
				name                  TEXT NOT NULL,
				description           TEXT NOT NULL DEFAULT '',
				category              TEXT NOT NULL DEFAULT '',
				price                 REAL NOT NULL DEFAULT 0,
				in_stock              INTEGER NOT NULL DEFAULT 1,
				requires_prescription INTEGER NOT NULL DEFAULT 0,
				updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_products_category ON products (category);
		`,
	},
}
