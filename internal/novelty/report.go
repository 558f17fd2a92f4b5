package novelty

import "sort"

// Stat keys written to the statistics directory.
const (
	StatNovelDocuments = "novel_N_novel"
	StatNovelPhrases   = "novel_N_terms"
)

// Row is the per-document output without phrase sets.
type Row struct {
	ID         int64
	Year       int
	Novel      bool
	NumPhrases int
}

// AuditRow is one novel phrase of one document.
type AuditRow struct {
	ID     int64
	Phrase string
}

// Result is the flattened output of a run.
type Result struct {
	Rows  []Row
	Audit []AuditRow
	// NovelDocuments counts rows with Novel set.
	NovelDocuments int
}

// NovelPhrases is the number of audit rows.
func (r Result) NovelPhrases() int { return len(r.Audit) }

// Stats returns the side-channel counters keyed by file name.
func (r Result) Stats() map[string]int {
	return map[string]int{
		StatNovelDocuments: r.NovelDocuments,
		StatNovelPhrases:   r.NovelPhrases(),
	}
}

// Report flattens records. Rows keep the order of records, which Estimate
// returns in input order; audit rows are sorted by id, then by phrase bytes.
func Report(records []Record) Result {
	res := Result{Rows: make([]Row, len(records))}
	for i, r := range records {
		res.Rows[i] = Row{ID: r.ID, Year: r.Year, Novel: r.IsNovel(), NumPhrases: r.NumPhrases()}
		if r.IsNovel() {
			res.NovelDocuments++
		}
		for _, p := range r.Novel.Sorted() {
			res.Audit = append(res.Audit, AuditRow{ID: r.ID, Phrase: p})
		}
	}
	sort.SliceStable(res.Audit, func(i, j int) bool {
		a, b := res.Audit[i], res.Audit[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Phrase < b.Phrase
	})
	return res
}
