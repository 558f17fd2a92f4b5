// Package novelty marks dissertations whose titles introduce noun phrases
// never seen in an earlier year.
package novelty

import (
	"errors"
	"fmt"
	"sort"

	"github.com/TobiSchelling/dissnovelty/internal/phrases"
)

// ErrYearOrder is returned when a cohort is not later than the previous one.
var ErrYearOrder = errors.New("cohort years must be strictly increasing")

// Document is one title's cleaned phrase set tagged with its year.
type Document struct {
	ID      int64
	Year    int
	Phrases phrases.Set
}

// Record is the novelty verdict for one document.
type Record struct {
	ID      int64
	Year    int
	Phrases phrases.Set
	Novel   phrases.Set
}

// IsNovel reports whether the document introduced at least one phrase.
func (r Record) IsNovel() bool { return len(r.Novel) > 0 }

// NumPhrases is the size of the full cleaned phrase set.
func (r Record) NumPhrases() int { return len(r.Phrases) }

// YearSummary describes one processed cohort.
type YearSummary struct {
	Year           int
	Documents      int
	NovelDocuments int
	NewPhrases     int
	CorpusSize     int
}

// Accumulator owns the known-phrase corpus of one run. The zero value is
// not usable; call NewAccumulator.
type Accumulator struct {
	known     phrases.Set
	last      int
	started   bool
	summaries []YearSummary
}

// NewAccumulator returns an accumulator with an empty corpus.
func NewAccumulator() *Accumulator {
	return &Accumulator{known: phrases.NewSet()}
}

// Cohort evaluates every document of year against the corpus as it stood
// before the call, then folds the cohort's full phrase sets into the corpus.
// Document years are ignored in favour of year.
func (a *Accumulator) Cohort(year int, docs []Document) ([]Record, error) {
	if a.started && year <= a.last {
		return nil, fmt.Errorf("%w: %d after %d", ErrYearOrder, year, a.last)
	}

	records := make([]Record, len(docs))
	introduced := phrases.NewSet()
	summary := YearSummary{Year: year, Documents: len(docs)}
	for i, d := range docs {
		novel := phrases.NewSet()
		for p := range d.Phrases {
			if !a.known.Contains(p) {
				novel[p] = struct{}{}
				introduced[p] = struct{}{}
			}
		}
		if len(novel) > 0 {
			summary.NovelDocuments++
		}
		records[i] = Record{ID: d.ID, Year: year, Phrases: d.Phrases, Novel: novel}
	}

	// Everything not already known is in introduced, so this equals
	// folding in the full sets.
	for p := range introduced {
		a.known[p] = struct{}{}
	}

	summary.NewPhrases = len(introduced)
	summary.CorpusSize = len(a.known)
	a.summaries = append(a.summaries, summary)
	a.last = year
	a.started = true
	return records, nil
}

// Known returns the current corpus size.
func (a *Accumulator) Known() int { return len(a.known) }

// Summaries returns one entry per processed cohort, oldest first.
func (a *Accumulator) Summaries() []YearSummary {
	out := make([]YearSummary, len(a.summaries))
	copy(out, a.summaries)
	return out
}

// Estimate runs a fresh accumulator over docs grouped by year and returns
// one record per document in the order of docs, together with the per-year
// summaries.
func Estimate(docs []Document) ([]Record, []YearSummary) {
	byYear := make(map[int][]Document)
	positions := make(map[int][]int)
	for i, d := range docs {
		byYear[d.Year] = append(byYear[d.Year], d)
		positions[d.Year] = append(positions[d.Year], i)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	acc := NewAccumulator()
	records := make([]Record, len(docs))
	for _, y := range years {
		// years are sorted and distinct
		rs, _ := acc.Cohort(y, byYear[y])
		for k, r := range rs {
			records[positions[y][k]] = r
		}
	}
	return records, acc.Summaries()
}
