package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/wamd/types"
)

// SQLiteStore is a durable DeviceStore backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

const deviceSchema = `
	CREATE TABLE IF NOT EXISTS devices (
		jid               TEXT PRIMARY KEY,
		lid               TEXT,
		business_name     TEXT NOT NULL DEFAULT '',
		platform          TEXT NOT NULL DEFAULT '',
		noise_key_pub     BLOB,
		noise_key_priv    BLOB,
		identity_key_pub  BLOB,
		identity_key_priv BLOB,
		adv_secret_key    BLOB,
		account           BLOB,
		registration_id   INTEGER NOT NULL DEFAULT 0,
		signed_prekey_id  INTEGER NOT NULL DEFAULT 0,
		paired_at         INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)
`

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open device database: %w", err)
	}
	if _, err := db.Exec(deviceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize device schema: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewSQLiteStore",
		"package":  "store",
		"path":     path,
	}).Debug("Device database opened")

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const deviceColumns = `jid, lid, business_name, platform,
	noise_key_pub, noise_key_priv, identity_key_pub, identity_key_priv,
	adv_secret_key, account, registration_id, signed_prekey_id`

// GetFirstDevice returns the most recently paired device, falling back to
// the unpaired placeholder record.
func (s *SQLiteStore) GetFirstDevice() (*Device, error) {
	row := s.db.QueryRow(`
		SELECT ` + deviceColumns + ` FROM devices
		ORDER BY (jid = '` + placeholderKey + `') ASC, paired_at DESC
		LIMIT 1
	`)
	return scanDevice(row)
}

// GetDevice returns the device stored under the given JID.
func (s *SQLiteStore) GetDevice(jid types.JID) (*Device, error) {
	row := s.db.QueryRow(`SELECT `+deviceColumns+` FROM devices WHERE jid = ?`, jid.String())
	return scanDevice(row)
}

// Save writes a device record, keyed by its JID once paired.
func (s *SQLiteStore) Save(device *Device) error {
	var lid sql.NullString
	if device.LID != nil {
		lid = sql.NullString{String: device.LID.String(), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO devices (
			jid, lid, business_name, platform,
			noise_key_pub, noise_key_priv, identity_key_pub, identity_key_priv,
			adv_secret_key, account, registration_id, signed_prekey_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			lid               = excluded.lid,
			business_name     = excluded.business_name,
			platform          = excluded.platform,
			noise_key_pub     = excluded.noise_key_pub,
			noise_key_priv    = excluded.noise_key_priv,
			identity_key_pub  = excluded.identity_key_pub,
			identity_key_priv = excluded.identity_key_priv,
			adv_secret_key    = excluded.adv_secret_key,
			account           = excluded.account,
			registration_id   = excluded.registration_id,
			signed_prekey_id  = excluded.signed_prekey_id,
			paired_at         = strftime('%s','now')
	`,
		deviceKey(device), lid, device.BusinessName, device.Platform,
		device.NoiseKeyPub, device.NoiseKeyPriv, device.IdentityKeyPub, device.IdentityKeyPriv,
		device.AdvSecretKey, device.Account, device.RegistrationID, device.SignedPreKeyID,
	)
	if err != nil {
		return fmt.Errorf("save device: %w", err)
	}
	return nil
}

// Delete removes the device stored under the given JID.
func (s *SQLiteStore) Delete(jid types.JID) error {
	if _, err := s.db.Exec(`DELETE FROM devices WHERE jid = ?`, jid.String()); err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}

// GetAllDevices returns every paired device.
func (s *SQLiteStore) GetAllDevices() ([]*Device, error) {
	rows, err := s.db.Query(`
		SELECT ` + deviceColumns + ` FROM devices
		WHERE jid != '` + placeholderKey + `'
		ORDER BY paired_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*Device, error) {
	var device Device
	var jid string
	var lid sql.NullString

	err := row.Scan(
		&jid, &lid, &device.BusinessName, &device.Platform,
		&device.NoiseKeyPub, &device.NoiseKeyPriv, &device.IdentityKeyPub, &device.IdentityKeyPriv,
		&device.AdvSecretKey, &device.Account, &device.RegistrationID, &device.SignedPreKeyID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}

	if jid != placeholderKey {
		parsed, err := types.ParseJID(jid)
		if err != nil {
			return nil, fmt.Errorf("stored device JID: %w", err)
		}
		device.ID = &parsed
	}
	if lid.Valid {
		parsed, err := types.ParseJID(lid.String)
		if err != nil {
			return nil, fmt.Errorf("stored device LID: %w", err)
		}
		device.LID = &parsed
	}
	return &device, nil
}
