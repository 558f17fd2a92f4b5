package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/TobiSchelling/dissnovelty/internal/novelty"
)

// ErrInvalidYear is returned for a year cell that is not an integer.
var ErrInvalidYear = errors.New("invalid year")

// Dissertation is one row of the prepared dissertations table as seen by
// the novelty estimation.
type Dissertation struct {
	ID    int64
	Title *string
	Year  int
}

// titleColumns are accepted spellings of the title column, in priority order.
var titleColumns = []string{"Titel", "title"}

// ReadDissertations loads id, title and year of every row whose language
// equals language. Missing titles stay nil; "[!]" editorial marks are removed.
func ReadDissertations(path, language string) ([]Dissertation, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	docs, err := dissertationsFromTable(t, language)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return docs, nil
}

func dissertationsFromTable(t *Table, language string) ([]Dissertation, error) {
	if err := t.Require("id", "year", "language"); err != nil {
		return nil, err
	}
	titleCol := ""
	for _, c := range titleColumns {
		if t.Has(c) {
			titleCol = c
			break
		}
	}
	if titleCol == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, titleColumns[0])
	}

	var docs []Dissertation
	for line, row := range t.Rows {
		if t.Value(row, "language") != language {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(t.Value(row, "id")), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid id %q: %w", line+2, t.Value(row, "id"), err)
		}
		year, err := ParseYear(t.Value(row, "year"))
		if err != nil {
			return nil, fmt.Errorf("row %d (id %d): %w", line+2, id, err)
		}
		d := Dissertation{ID: id, Year: year}
		if raw := t.Value(row, titleCol); !IsNA(raw) {
			title := strings.ReplaceAll(raw, "[!]", "")
			d.Title = &title
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// ParseYear accepts integers and integral floats such as "1890.0".
func ParseYear(cell string) (int, error) {
	s := strings.TrimSpace(cell)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, cell)
	}
	return int(f), nil
}

// Titles returns the title pointers in row order.
func Titles(docs []Dissertation) []*string {
	out := make([]*string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}

// WriteNovelty writes the per-document table: id, Titel, year, novel and
// num_phrases. rows must describe the same ids as docs.
func WriteNovelty(path string, docs []Dissertation, rows []novelty.Row) error {
	titles := make(map[int64]*string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}

	t := NewTable("id", "Titel", "year", "novel", "num_phrases")
	t.Rows = make([][]string, 0, len(rows))
	for _, r := range rows {
		title := ""
		if p := titles[r.ID]; p != nil {
			title = *p
		}
		novel := "0"
		if r.Novel {
			novel = "1"
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			title,
			strconv.Itoa(r.Year),
			novel,
			strconv.Itoa(r.NumPhrases),
		})
	}
	return WriteTable(path, t)
}

// WriteAudit writes one row per novel phrase with columns id and
// novel_phrases, in the order given.
func WriteAudit(path string, audit []novelty.AuditRow) error {
	t := NewTable("id", "novel_phrases")
	t.Rows = make([][]string, len(audit))
	for i, a := range audit {
		t.Rows[i] = []string{strconv.FormatInt(a.ID, 10), a.Phrase}
	}
	return WriteTable(path, t)
}
