package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// TextHash is the cache key for an extractor input.
func TextHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// GetCachedPhrases returns the stored extraction for text, if any. Entries
// older than maxAge are ignored; a zero maxAge never expires.
func (db *DB) GetCachedPhrases(extractor, text string, maxAge time.Duration) ([]string, bool, error) {
	row := db.conn.QueryRow(
		`SELECT phrases, created_at FROM phrase_cache WHERE extractor = ? AND text_hash = ?`,
		extractor, TextHash(text),
	)

	var raw, createdAt string
	if err := row.Scan(&raw, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	if maxAge > 0 {
		created, err := time.Parse(time.DateTime, createdAt)
		if err == nil && time.Since(created) > maxAge {
			return nil, false, nil
		}
	}

	var phrases []string
	if err := json.Unmarshal([]byte(raw), &phrases); err != nil {
		return nil, false, fmt.Errorf("decoding cached phrases: %w", err)
	}
	return phrases, true, nil
}

// PutCachedPhrases stores or replaces the extraction for text.
func (db *DB) PutCachedPhrases(extractor, text string, phrases []string) error {
	if phrases == nil {
		phrases = []string{}
	}
	data, err := json.Marshal(phrases)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO phrase_cache (extractor, text_hash, phrases, created_at)
		VALUES (?, ?, ?, datetime('now'))`,
		extractor, TextHash(text), string(data),
	)
	return err
}

// ClearPhraseCache removes cached extractions, for one extractor (every
// version of it) or all when extractor is empty. Returns the number of
// removed entries.
func (db *DB) ClearPhraseCache(extractor string) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if extractor == "" {
		result, err = db.conn.Exec("DELETE FROM phrase_cache")
	} else {
		result, err = db.conn.Exec(
			"DELETE FROM phrase_cache WHERE extractor = ? OR instr(extractor, ?) = 1",
			extractor, extractor+"@",
		)
	}
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
