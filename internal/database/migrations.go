package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS phrase_cache (
    extractor TEXT NOT NULL,
    text_hash TEXT NOT NULL,
    phrases TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (extractor, text_hash)
);

CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    extractor TEXT NOT NULL,
    started_at TEXT DEFAULT (datetime('now')),
    finished_at TEXT,
    documents INTEGER DEFAULT 0,
    novel_documents INTEGER DEFAULT 0,
    novel_phrases INTEGER DEFAULT 0,
    notes TEXT
);

CREATE TABLE IF NOT EXISTS run_years (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    year INTEGER NOT NULL,
    documents INTEGER DEFAULT 0,
    novel_documents INTEGER DEFAULT 0,
    new_phrases INTEGER DEFAULT 0,
    corpus_size INTEGER DEFAULT 0,
    PRIMARY KEY (run_id, year)
);

CREATE TABLE IF NOT EXISTS run_documents (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    doc_id INTEGER NOT NULL,
    year INTEGER NOT NULL,
    title TEXT,
    novel INTEGER DEFAULT 0,
    num_phrases INTEGER DEFAULT 0,
    PRIMARY KEY (run_id, doc_id)
);

CREATE TABLE IF NOT EXISTS run_novel_phrases (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    doc_id INTEGER NOT NULL,
    phrase TEXT NOT NULL,
    PRIMARY KEY (run_id, doc_id, phrase)
);

CREATE INDEX IF NOT EXISTS idx_run_documents_year ON run_documents(run_id, year);
CREATE INDEX IF NOT EXISTS idx_run_novel_phrases_phrase ON run_novel_phrases(run_id, phrase);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
