package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// The journal is one serialized document under one logical key, the
// same contract the file store honors. The table stays a key/payload
// pair instead of per-shot rows so both backends load and rewrite the
// journal whole.
const journalSchema = `
CREATE TABLE IF NOT EXISTS journal (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const journalKey = "shots"

// InitJournalDB opens (or creates) the sqlite database and ensures the
// schema exists.
func InitJournalDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return db, nil
}

// SQLiteStore persists the journal blob in a single sqlite row.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load() ([]ShotRecord, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM journal WHERE key = ?`, journalKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal row: %w", err)
	}

	var doc journalDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("parse journal payload: %w", err)
	}
	return doc.Shots, nil
}

func (s *SQLiteStore) Save(shots []ShotRecord) error {
	doc := journalDocument{Version: journalFormatVersion, Shots: shots}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO journal (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		journalKey, string(payload))
	if err != nil {
		return fmt.Errorf("write journal row: %w", err)
	}
	return nil
}
