package database

// Run is one execution of the novelty estimation.
type Run struct {
	ID             int64
	Extractor      string
	StartedAt      *string
	FinishedAt     *string
	Documents      int
	NovelDocuments int
	NovelPhrases   int
	Notes          *string
}

// Finished reports whether the run completed.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// RunYear summarises one year cohort of a run.
type RunYear struct {
	RunID          int64
	Year           int
	Documents      int
	NovelDocuments int
	NewPhrases     int
	CorpusSize     int
}

// RunDocument is the persisted novelty verdict for one dissertation.
type RunDocument struct {
	RunID        int64
	DocID        int64
	Year         int
	Title        *string
	Novel        bool
	NumPhrases   int
	NovelPhrases []string
}

// PhraseOccurrence locates a novel phrase within a run.
type PhraseOccurrence struct {
	Phrase string
	DocID  int64
	Year   int
	Title  *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Runs          int
	FinishedRuns  int
	CachedEntries int
	Extractors    int
}
