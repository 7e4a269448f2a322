package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS departments (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'staff' CHECK (role IN ('admin', 'manager', 'engineer', 'staff')),
    department_id INTEGER NOT NULL REFERENCES departments(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS request_type_departments (
    request_type  TEXT PRIMARY KEY,
    department_id INTEGER NOT NULL REFERENCES departments(id)
);

CREATE TABLE IF NOT EXISTS locations (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT,
    is_consumable INTEGER NOT NULL DEFAULT 1,
    uom           TEXT NOT NULL DEFAULT 'pcs',
    photo         BLOB,
    photo_mime    TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE TABLE IF NOT EXISTS item_locations (
    item_id      INTEGER NOT NULL REFERENCES items(id),
    location_id  INTEGER NOT NULL REFERENCES locations(id),
    on_hand_qty  INTEGER NOT NULL DEFAULT 0 CHECK (on_hand_qty >= 0),
    reserved_qty INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (item_id, location_id)
);

CREATE TABLE IF NOT EXISTS assets (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES items(id),
    serial_no   TEXT,
    status      TEXT NOT NULL DEFAULT 'Ready' CHECK (status IN ('Ready', 'Issued', 'Under_Maintenance', 'Retired')),
    location_id INTEGER NOT NULL DEFAULT 1 REFERENCES locations(id),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS requests (
    id                        INTEGER PRIMARY KEY,
    requested_by              INTEGER NOT NULL REFERENCES users(id),
    subject                   TEXT,
    description               TEXT,
    priority                  TEXT NOT NULL DEFAULT 'Medium',
    request_type              TEXT NOT NULL,
    department_id             INTEGER NOT NULL REFERENCES departments(id),
    status                    TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Approved', 'Rejected', 'Transferred', 'Completed')),
    equipment_id              INTEGER REFERENCES items(id),
    new_equipment_name        TEXT,
    is_new_equipment          INTEGER NOT NULL DEFAULT 0,
    transferred_to_department INTEGER REFERENCES departments(id),
    transferred_by            INTEGER REFERENCES users(id),
    transferred_at            DATETIME,
    transfer_notes            TEXT,
    approved_by               INTEGER REFERENCES users(id),
    approved_at               DATETIME,
    created_at                DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at                DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_requests_department ON requests(department_id, status);
CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requested_by);

CREATE TABLE IF NOT EXISTS request_lines (
    id            INTEGER PRIMARY KEY,
    request_id    INTEGER NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
    item_id       INTEGER REFERENCES items(id),
    item_name     TEXT NOT NULL,
    requested_qty INTEGER NOT NULL CHECK (requested_qty > 0),
    is_consumable INTEGER NOT NULL DEFAULT 1,
    uom           TEXT NOT NULL DEFAULT 'pcs',
    extra_data    TEXT
);

CREATE TABLE IF NOT EXISTS request_approvals (
    id            INTEGER PRIMARY KEY,
    request_id    INTEGER NOT NULL REFERENCES requests(id),
    department_id INTEGER NOT NULL REFERENCES departments(id),
    approved_by   INTEGER NOT NULL REFERENCES users(id),
    status        TEXT NOT NULL CHECK (status IN ('approved', 'rejected', 'transferred')),
    notes         TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS issues (
    id         INTEGER PRIMARY KEY,
    request_id INTEGER NOT NULL REFERENCES requests(id),
    issued_by  INTEGER NOT NULL REFERENCES users(id),
    waybill_no TEXT,
    issued_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS issue_lines (
    id              INTEGER PRIMARY KEY,
    issue_id        INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
    request_line_id INTEGER NOT NULL REFERENCES request_lines(id),
    item_id         INTEGER NOT NULL REFERENCES items(id),
    qty             INTEGER,
    uom             TEXT,
    asset_id        INTEGER REFERENCES assets(id)
);

CREATE TABLE IF NOT EXISTS returns (
    id          INTEGER PRIMARY KEY,
    issue_id    INTEGER NOT NULL REFERENCES issues(id),
    received_by INTEGER NOT NULL REFERENCES users(id),
    notes       TEXT,
    received_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS return_lines (
    id            INTEGER PRIMARY KEY,
    return_id     INTEGER NOT NULL REFERENCES returns(id) ON DELETE CASCADE,
    issue_line_id INTEGER NOT NULL REFERENCES issue_lines(id),
    item_id       INTEGER NOT NULL REFERENCES items(id),
    qty           INTEGER,
    asset_id      INTEGER REFERENCES assets(id),
    condition     TEXT
);

CREATE TABLE IF NOT EXISTS stock_ledger (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES items(id),
    location_id INTEGER NOT NULL REFERENCES locations(id),
    txn_type    TEXT NOT NULL CHECK (txn_type IN ('ISSUE', 'RETURN', 'RECEIPT')),
    qty_delta   INTEGER NOT NULL,
    ref_table   TEXT NOT NULL,
    ref_id      INTEGER NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_item_location ON stock_ledger(item_id, location_id);
CREATE INDEX IF NOT EXISTS idx_ledger_ref ON stock_ledger(ref_table, ref_id);

CREATE TABLE IF NOT EXISTS activity_log (
    id          INTEGER PRIMARY KEY,
    actor_id    INTEGER NOT NULL REFERENCES users(id),
    action_type TEXT NOT NULL,
    entity_type TEXT,
    entity_id   INTEGER,
    entity_name TEXT,
    description TEXT,
    metadata    TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS maintenance_logs (
    id            INTEGER PRIMARY KEY,
    asset_id      INTEGER NOT NULL REFERENCES assets(id),
    performed_by  INTEGER NOT NULL REFERENCES users(id),
    department_id INTEGER NOT NULL REFERENCES departments(id),
    description   TEXT NOT NULL,
    performed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
