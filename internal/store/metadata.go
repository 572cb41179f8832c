package store

import (
	"database/sql"
)

// SchemaVersion is recorded in the metadata table on every start.
const SchemaVersion = "1"

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Ping checks that the database answers and reports its schema version.
func (s *Store) Ping() (string, error) {
	if err := s.db.Ping(); err != nil {
		return "", err
	}
	return s.GetMetadata("schema_version")
}
