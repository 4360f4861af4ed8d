package keylifecycle

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists key metadata and state transitions to a SQLite
// database. Key material itself is stored hex-encoded; callers running
// in a security-sensitive environment should point dbPath at storage
// with restricted permissions and treat the file like key material.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLiteStore opens (and migrates) a SQLite-backed Store at dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("keylifecycle: opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("keylifecycle: pinging database: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite serializes writers; avoid lock contention under load
	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS keys (
			id              TEXT PRIMARY KEY,
			material_hex    TEXT NOT NULL,
			state           INTEGER NOT NULL,
			generated_at    DATETIME,
			activated_at    DATETIME,
			rotation_due    DATETIME,
			deactivated_at  DATETIME,
			destroyed_at    DATETIME,
			rotation_count  INTEGER NOT NULL DEFAULT 0,
			created_by      TEXT,
			zeroized        BOOLEAN NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return fmt.Errorf("keylifecycle: migrating keys table: %w", err)
	}

	_, err = s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS key_audit_log (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			key_id       TEXT NOT NULL,
			event_type   TEXT NOT NULL,
			description  TEXT NOT NULL,
			operator_id  TEXT NOT NULL,
			chain_hex    TEXT NOT NULL,
			timestamp    DATETIME NOT NULL,
			FOREIGN KEY(key_id) REFERENCES keys(id)
		)`)
	if err != nil {
		return fmt.Errorf("keylifecycle: migrating audit log table: %w", err)
	}

	_, err = s.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_key_audit_log_key_id ON key_audit_log(key_id)`)
	if err != nil {
		return fmt.Errorf("keylifecycle: creating audit log index: %w", err)
	}
	return nil
}

// PutKey upserts k's metadata and appends any audit entries not yet
// persisted. It does not lock k: the Manager calls it while already
// holding k's lock (or before k is shared).
func (s *SQLiteStore) PutKey(k *Key) error {
	_, err := s.conn.Exec(`
		INSERT INTO keys (id, material_hex, state, generated_at, activated_at, rotation_due,
			deactivated_at, destroyed_at, rotation_count, created_by, zeroized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			material_hex=excluded.material_hex, state=excluded.state,
			activated_at=excluded.activated_at, rotation_due=excluded.rotation_due,
			deactivated_at=excluded.deactivated_at, destroyed_at=excluded.destroyed_at,
			rotation_count=excluded.rotation_count, zeroized=excluded.zeroized`,
		k.ID, hex.EncodeToString(k.Material[:]), int(k.State),
		k.Generated, k.Activated, k.RotationDue, k.Deactivated, k.Destroyed,
		k.RotationCount, k.CreatedBy, k.Zeroized)
	if err != nil {
		return fmt.Errorf("keylifecycle: upserting key %q: %w", k.ID, err)
	}

	for _, e := range k.trail {
		var exists int
		err := s.conn.QueryRow(`SELECT COUNT(*) FROM key_audit_log WHERE key_id = ? AND chain_hex = ?`,
			k.ID, hex.EncodeToString(e.Chain[:])).Scan(&exists)
		if err != nil {
			return fmt.Errorf("keylifecycle: checking audit entry: %w", err)
		}
		if exists > 0 {
			continue
		}
		_, err = s.conn.Exec(`
			INSERT INTO key_audit_log (key_id, event_type, description, operator_id, chain_hex, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
			k.ID, e.EventType, e.Description, e.OperatorID, hex.EncodeToString(e.Chain[:]), e.Timestamp)
		if err != nil {
			return fmt.Errorf("keylifecycle: inserting audit entry: %w", err)
		}
	}
	return nil
}

// GetKey loads key metadata (without its audit trail) by ID.
func (s *SQLiteStore) GetKey(id string) (*Key, error) {
	var materialHex, createdBy string
	var state int
	var generated, activated, rotationDue, deactivated, destroyed time.Time
	var rotationCount int
	var zeroized bool

	row := s.conn.QueryRow(`
		SELECT material_hex, state, generated_at, activated_at, rotation_due,
			deactivated_at, destroyed_at, rotation_count, created_by, zeroized
		FROM keys WHERE id = ?`, id)
	err := row.Scan(&materialHex, &state, &generated, &activated, &rotationDue,
		&deactivated, &destroyed, &rotationCount, &createdBy, &zeroized)
	if err == sql.ErrNoRows {
		return nil, errKeyNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("keylifecycle: loading key %q: %w", id, err)
	}

	raw, err := hex.DecodeString(materialHex)
	if err != nil {
		return nil, fmt.Errorf("keylifecycle: decoding stored key material for %q: %w", id, err)
	}

	k := &Key{
		ID:            id,
		Generated:     generated,
		Activated:     activated,
		RotationDue:   rotationDue,
		Deactivated:   deactivated,
		Destroyed:     destroyed,
		State:         State(state),
		RotationCount: rotationCount,
		CreatedBy:     createdBy,
		Zeroized:      zeroized,
	}
	copy(k.Material[:], raw)
	return k, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
