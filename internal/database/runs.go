package database

import (
	"database/sql"
	"fmt"
)

// StartRun records the beginning of a novelty run and returns its ID.
func (db *DB) StartRun(extractor string) (int64, error) {
	result, err := db.conn.Exec("INSERT INTO runs (extractor) VALUES (?)", extractor)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// SaveRunResults stores year summaries and per-document verdicts for a run
// and marks it finished. Everything is written in one transaction so an
// aborted run never looks complete.
func (db *DB) SaveRunResults(runID int64, years []RunYear, docs []RunDocument, notes string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, y := range years {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO run_years (run_id, year, documents, novel_documents, new_phrases, corpus_size)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, y.Year, y.Documents, y.NovelDocuments, y.NewPhrases, y.CorpusSize,
		); err != nil {
			return fmt.Errorf("inserting year %d: %w", y.Year, err)
		}
	}

	var novelDocs, novelPhrases int
	for _, d := range docs {
		novel := 0
		if d.Novel {
			novel = 1
			novelDocs++
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO run_documents (run_id, doc_id, year, title, novel, num_phrases)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, d.DocID, d.Year, d.Title, novel, d.NumPhrases,
		); err != nil {
			return fmt.Errorf("inserting document %d: %w", d.DocID, err)
		}
		for _, p := range d.NovelPhrases {
			if _, err := tx.Exec(
				"INSERT OR IGNORE INTO run_novel_phrases (run_id, doc_id, phrase) VALUES (?, ?, ?)",
				runID, d.DocID, p,
			); err != nil {
				return fmt.Errorf("inserting phrase for document %d: %w", d.DocID, err)
			}
			novelPhrases++
		}
	}

	if _, err := tx.Exec(
		`UPDATE runs SET finished_at = datetime('now'), documents = ?, novel_documents = ?,
		novel_phrases = ?, notes = ? WHERE id = ?`,
		len(docs), novelDocs, novelPhrases, notes, runID,
	); err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	return tx.Commit()
}

// DeleteRun removes a run and everything recorded for it.
func (db *DB) DeleteRun(runID int64) error {
	_, err := db.conn.Exec("DELETE FROM runs WHERE id = ?", runID)
	return err
}

// GetRun returns a single run by ID.
func (db *DB) GetRun(runID int64) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, extractor, started_at, finished_at, documents, novel_documents, novel_phrases, notes
		FROM runs WHERE id = ?`, runID,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetLatestRun returns the most recent finished run, or nil.
func (db *DB) GetLatestRun() (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, extractor, started_at, finished_at, documents, novel_documents, novel_phrases, notes
		FROM runs WHERE finished_at IS NOT NULL ORDER BY id DESC LIMIT 1`,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAllRuns returns all runs ordered by ID DESC.
func (db *DB) GetAllRuns() ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, extractor, started_at, finished_at, documents, novel_documents, novel_phrases, notes
		FROM runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Extractor, &r.StartedAt, &r.FinishedAt,
			&r.Documents, &r.NovelDocuments, &r.NovelPhrases, &r.Notes); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunYears returns the year summaries of a run in increasing year order.
func (db *DB) GetRunYears(runID int64) ([]RunYear, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, year, documents, novel_documents, new_phrases, corpus_size
		FROM run_years WHERE run_id = ? ORDER BY year`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []RunYear
	for rows.Next() {
		var y RunYear
		if err := rows.Scan(&y.RunID, &y.Year, &y.Documents, &y.NovelDocuments,
			&y.NewPhrases, &y.CorpusSize); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// GetRunDocuments returns the documents of one year, with their novel
// phrases, ordered by document ID.
func (db *DB) GetRunDocuments(runID int64, year int, onlyNovel bool) ([]RunDocument, error) {
	query := `SELECT run_id, doc_id, year, title, novel, num_phrases
		FROM run_documents WHERE run_id = ? AND year = ?`
	if onlyNovel {
		query += " AND novel = 1"
	}
	query += " ORDER BY doc_id"

	rows, err := db.conn.Query(query, runID, year)
	if err != nil {
		return nil, err
	}
	var docs []RunDocument
	index := make(map[int64]int)
	for rows.Next() {
		var d RunDocument
		var novel int
		if err := rows.Scan(&d.RunID, &d.DocID, &d.Year, &d.Title, &novel, &d.NumPhrases); err != nil {
			rows.Close()
			return nil, err
		}
		d.Novel = novel != 0
		index[d.DocID] = len(docs)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The connection pool holds a single connection, so phrases are read
	// only after the document cursor is closed.
	prows, err := db.conn.Query(
		`SELECT p.doc_id, p.phrase FROM run_novel_phrases p
		JOIN run_documents d ON d.run_id = p.run_id AND d.doc_id = p.doc_id
		WHERE p.run_id = ? AND d.year = ? ORDER BY p.doc_id, p.phrase`, runID, year,
	)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var docID int64
		var phrase string
		if err := prows.Scan(&docID, &phrase); err != nil {
			return nil, err
		}
		if i, ok := index[docID]; ok {
			docs[i].NovelPhrases = append(docs[i].NovelPhrases, phrase)
		}
	}
	return docs, prows.Err()
}

// FindPhrase returns the occurrences of novel phrases containing q within a
// run, earliest year first.
func (db *DB) FindPhrase(runID int64, q string, limit int) ([]PhraseOccurrence, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(
		`SELECT p.phrase, p.doc_id, d.year, d.title FROM run_novel_phrases p
		JOIN run_documents d ON d.run_id = p.run_id AND d.doc_id = p.doc_id
		WHERE p.run_id = ? AND p.phrase LIKE '%' || ? || '%'
		ORDER BY d.year, p.doc_id, p.phrase LIMIT ?`, runID, q, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PhraseOccurrence
	for rows.Next() {
		var o PhraseOccurrence
		if err := rows.Scan(&o.Phrase, &o.DocID, &o.Year, &o.Title); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.Extractor, &r.StartedAt, &r.FinishedAt,
		&r.Documents, &r.NovelDocuments, &r.NovelPhrases, &r.Notes); err != nil {
		return nil, err
	}
	return &r, nil
}
