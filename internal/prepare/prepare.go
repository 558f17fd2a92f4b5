// Package prepare turns the raw works table into the dissertations table
// consumed by the later stages.
package prepare

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/dissnovelty/internal/dataset"
)

// Stat keys written by Run.
const (
	StatDissertations = "N_dissertations"
	StatWomen         = "N_women"
)

var excludedFaculties = map[string]bool{"Theology": true, "Medicine": true}

var habilitations = map[string]bool{
	"Habilitations-Schrift": true,
	"Habilitationsschrift":  true,
}

// Substitution replaces every occurrence of Old in a title with New.
type Substitution struct {
	Old, New string
}

// corrections normalise historical spelling and typography. Order matters.
var corrections = []Substitution{
	{"Ueber", "Über"},
	{"—", "-"},
	{"Kenntniss", "Kenntnis"},
	{"Verhältniss", "Verhältnis"},
	{"theil", "teil"},
	{"speciell", "speziell"},
	{"'(", "("},
	{")'", ")"},
	{"’", "'"},
	{"äusser", "äußer"},
	{"Instiut [!]", "Institut"},
}

// Options locates the inputs and outputs of Run.
type Options struct {
	WorksFile         string
	SubstitutionsFile string
	OutputFile        string
	StatisticsDir     string
	MinYear, MaxYear  int
}

// Summary reports what Run wrote.
type Summary struct {
	Works         int
	Dissertations int
	Women         int
}

// Run filters the works table to university dissertations of the sample
// period, cleans their titles and writes the result with its statistics.
func Run(opts Options) (Summary, error) {
	t, err := dataset.ReadTable(opts.WorksFile)
	if err != nil {
		return Summary{}, err
	}
	if err := t.Require("id", "year", "Titel"); err != nil {
		return Summary{}, fmt.Errorf("reading %s: %w", opts.WorksFile, err)
	}
	if !t.Has("University") {
		if !t.Has("Hochschule") {
			return Summary{}, fmt.Errorf("reading %s: %w: %q", opts.WorksFile, dataset.ErrMissingColumn, "University")
		}
		renameColumn(t, "Hochschule", "University")
	}

	subs, err := ReadSubstitutions(opts.SubstitutionsFile)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Works: len(t.Rows)}
	Filter(t, opts.MinYear, opts.MaxYear)
	if t, err = dropColumn(t, "Schriftentyp"); err != nil {
		return Summary{}, err
	}
	log.Info().Int("works", sum.Works).Int("kept", len(t.Rows)).Msg("filtered works")

	for _, row := range t.Rows {
		title := t.Value(row, "Titel")
		if !dataset.IsNA(title) {
			t.Set(row, "Titel", DropLocationalSentences(CleanTitle(title, subs)))
		}
		t.Set(row, "University", strings.ReplaceAll(t.Value(row, "University"), "U ", ""))
		if female, ok := dataset.ParseFlag(t.Value(row, "female")); ok && female {
			sum.Women++
		}
	}
	sum.Dissertations = len(t.Rows)

	if err := dataset.WriteTable(opts.OutputFile, t); err != nil {
		return Summary{}, err
	}
	if err := dataset.WriteStats(opts.StatisticsDir, map[string]int{
		StatDissertations: sum.Dissertations,
		StatWomen:         sum.Women,
	}); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// Filter keeps dissertations from universities ("U " prefix) within the year
// range, outside theology and medicine, that are not habilitations. Rows
// with an unreadable year are dropped.
func Filter(t *dataset.Table, minYear, maxYear int) {
	t.Filter(func(row []string) bool {
		if !strings.HasPrefix(t.Value(row, "University"), "U ") {
			return false
		}
		year, err := dataset.ParseYear(t.Value(row, "year"))
		if err != nil || year < minYear || year > maxYear {
			return false
		}
		if excludedFaculties[t.Value(row, "faculty")] {
			return false
		}
		return !habilitations[t.Value(row, "Schriftentyp")]
	})
}

// CleanTitle applies the fixed corrections, then subs, in order.
func CleanTitle(title string, subs []Substitution) string {
	for _, c := range corrections {
		title = strings.ReplaceAll(title, c.Old, c.New)
	}
	for _, s := range subs {
		if s.Old == "" {
			continue
		}
		title = strings.ReplaceAll(title, s.Old, s.New)
	}
	return title
}

// ReadSubstitutions loads the abbreviation table: the first column holds
// the abbreviation, column "new" its expansion. An empty path yields none.
func ReadSubstitutions(path string) ([]Substitution, error) {
	if path == "" {
		return nil, nil
	}
	t, err := dataset.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require("new"); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	key := t.Header[0]
	subs := make([]Substitution, 0, len(t.Rows))
	seen := make(map[string]int)
	for _, row := range t.Rows {
		s := Substitution{Old: t.Value(row, key), New: t.Value(row, "new")}
		// later duplicates overwrite earlier ones but keep their position
		if i, dup := seen[s.Old]; dup {
			subs[i] = s
			continue
		}
		seen[s.Old] = len(subs)
		subs = append(subs, s)
	}
	return subs, nil
}

func renameColumn(t *dataset.Table, from, to string) {
	header := append([]string(nil), t.Header...)
	for i, h := range header {
		if h == from {
			header[i] = to
		}
	}
	rows := t.Rows
	*t = *dataset.NewTable(header...)
	t.Rows = rows
}

func dropColumn(t *dataset.Table, name string) (*dataset.Table, error) {
	if !t.Has(name) {
		return t, nil
	}
	keep := make([]string, 0, len(t.Header)-1)
	for _, h := range t.Header {
		if h != name {
			keep = append(keep, h)
		}
	}
	return t.Select(keep...)
}
