package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS budget (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    amount               REAL NOT NULL,
    balance_remaining    REAL NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS budget_items (
    item_id              INTEGER PRIMARY KEY,
    position             INTEGER NOT NULL,
    funded_to_date       REAL NOT NULL,
    original_amount      REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS draw_requests (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    payload              TEXT NOT NULL,
    imported_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_budget_items_position ON budget_items(position);
`
