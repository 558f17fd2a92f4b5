// Package panel assembles the regression masters from the dissertations,
// the student characteristics and the novelty estimates.
package panel

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/dissnovelty/internal/characteristics"
	"github.com/TobiSchelling/dissnovelty/internal/dataset"
)

// StatObservations is the stat key of the cohort panel size.
const StatObservations = "doctor_N_obs"

// ErrMissingTreatment is returned when a territory has no admission year.
var ErrMissingTreatment = errors.New("missing treatment year")

// Discipline maps the law faculty to "law" and a missing discipline to
// "philology".
func Discipline(faculty, discipline string) string {
	if faculty == "Law" {
		return "law"
	}
	if dataset.IsNA(discipline) {
		return "philology"
	}
	return discipline
}

// Treatments maps a territory to the year it admitted women.
type Treatments map[string]int

// ReadTreatments loads the admissions table: territory in the first column,
// admission year in "year".
func ReadTreatments(path string) (Treatments, error) {
	raw, err := dataset.ReadLookup(path, "", "year")
	if err != nil {
		return nil, err
	}
	out := make(Treatments, len(raw))
	for territory, y := range raw {
		year, err := dataset.ParseYear(y)
		if err != nil {
			return nil, fmt.Errorf("reading %s: territory %s: %w", path, territory, err)
		}
		out[territory] = year
	}
	return out, nil
}

// Lookup returns the treatment year of territory or ErrMissingTreatment.
func (t Treatments) Lookup(territory string) (int, error) {
	year, ok := t[territory]
	if !ok {
		return 0, fmt.Errorf("%w: territory %q", ErrMissingTreatment, territory)
	}
	return year, nil
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Options locates the inputs and outputs of the panel builders.
type Options struct {
	DissertationsFile   string
	TerritoriesFile     string
	TreatmentsFile      string
	CharacteristicsFile string
	NoveltyFile         string
	OutputDir           string
	StatisticsDir       string
}

type cell struct {
	university string
	year       int
	discipline string
}

// CohortRow is one university-year-discipline observation.
type CohortRow struct {
	University string
	Year       int
	Discipline string
	Territory  string
	DissCount  int
	FemCount   int
	Treatment  int
	Post       bool
}

// BuildCohort returns the balanced panel of every university, year and
// discipline seen in the dissertations, with counts and treatment status.
// Rows are ordered by university, year and discipline.
func BuildCohort(t *dataset.Table, territories map[string]string, treatments Treatments) ([]CohortRow, error) {
	if err := t.Require("University", "year", "faculty", "discipline", "female"); err != nil {
		return nil, err
	}

	diss := make(map[cell]int)
	fem := make(map[cell]int)
	unis, years, discs := map[string]bool{}, map[int]bool{}, map[string]bool{}
	for i, row := range t.Rows {
		year, err := dataset.ParseYear(t.Value(row, "year"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		c := cell{
			university: t.Value(row, "University"),
			year:       year,
			discipline: Discipline(t.Value(row, "faculty"), t.Value(row, "discipline")),
		}
		unis[c.university], years[c.year], discs[c.discipline] = true, true, true
		diss[c]++
		if female, ok := dataset.ParseFlag(t.Value(row, "female")); ok && female {
			fem[c]++
		}
	}

	var rows []CohortRow
	for _, u := range sortedStrings(unis) {
		territory := territories[u]
		treatment, err := treatments.Lookup(territory)
		if err != nil {
			return nil, fmt.Errorf("university %s: %w", u, err)
		}
		for _, y := range sortedInts(years) {
			for _, d := range sortedStrings(discs) {
				c := cell{u, y, d}
				rows = append(rows, CohortRow{
					University: u,
					Year:       y,
					Discipline: d,
					Territory:  territory,
					DissCount:  diss[c],
					FemCount:   fem[c],
					Treatment:  treatment,
					Post:       y > treatment,
				})
			}
		}
	}
	return rows, nil
}

// WriteCohort builds the cohort panel, writes it to <OutputDir>/cohort.csv
// and records its size.
func WriteCohort(opts Options) ([]CohortRow, error) {
	t, territories, treatments, err := loadCommon(opts)
	if err != nil {
		return nil, err
	}
	rows, err := BuildCohort(t, territories, treatments)
	if err != nil {
		return nil, err
	}

	out := dataset.NewTable("University", "year", "discipline", "territory",
		"diss_count", "fem_count", "treatment", "post")
	out.Rows = make([][]string, len(rows))
	for i, r := range rows {
		out.Rows[i] = []string{
			r.University, strconv.Itoa(r.Year), r.Discipline, r.Territory,
			strconv.Itoa(r.DissCount), strconv.Itoa(r.FemCount),
			strconv.Itoa(r.Treatment), boolCell(r.Post),
		}
	}
	path := filepath.Join(opts.OutputDir, "cohort.csv")
	if err := dataset.WriteTable(path, out); err != nil {
		return nil, err
	}
	if err := dataset.WriteStats(opts.StatisticsDir, map[string]int{StatObservations: len(rows)}); err != nil {
		return nil, err
	}
	log.Info().Int("observations", len(rows)).Str("path", path).Msg("wrote cohort panel")
	return rows, nil
}

// individualColumns is the layout of individual.csv.
var individualColumns = []string{
	"id", "year", "University", "discipline", "faculty", "female", "Wikipedia",
	"territory", "Gymnasium", "domestic", "n_study", "technical", "german",
	"novel", "num_phrases", "treatment", "post",
}

// WriteIndividual joins every dissertation with its territory, student
// characteristics, novelty estimate and treatment status and writes
// <OutputDir>/individual.csv. It returns the number of rows written.
func WriteIndividual(opts Options) (int, error) {
	t, territories, treatments, err := loadCommon(opts)
	if err != nil {
		return 0, err
	}
	if err := t.Require("id", "language"); err != nil {
		return 0, err
	}
	students, err := readByID(opts.CharacteristicsFile, characteristics.Columns)
	if err != nil {
		return 0, err
	}
	novelty, err := readByID(opts.NoveltyFile, []string{"novel", "num_phrases"})
	if err != nil {
		return 0, err
	}

	out := dataset.NewTable(individualColumns...)
	out.Rows = make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Value(row, "id")
		year, err := dataset.ParseYear(t.Value(row, "year"))
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+2, err)
		}
		uni := t.Value(row, "University")
		territory := territories[uni]
		treatment, err := treatments.Lookup(territory)
		if err != nil {
			return 0, fmt.Errorf("dissertation %s: %w", id, err)
		}

		r := []string{
			id, strconv.Itoa(year), uni,
			Discipline(t.Value(row, "faculty"), t.Value(row, "discipline")),
			t.Value(row, "faculty"),
			dataset.IntCell(t.Value(row, "female")),
			t.Value(row, "Wikipedia"),
			territory,
		}
		r = append(r, students.get(id)...)
		r = append(r, boolCell(t.Value(row, "language") == "German"))
		r = append(r, novelty.get(id)...)
		r = append(r, strconv.Itoa(treatment), boolCell(year > treatment))
		out.Rows = append(out.Rows, r)
	}

	path := filepath.Join(opts.OutputDir, "individual.csv")
	if err := dataset.WriteTable(path, out); err != nil {
		return 0, err
	}
	log.Info().Int("dissertations", len(out.Rows)).Str("path", path).Msg("wrote individual master")
	return len(out.Rows), nil
}

func loadCommon(opts Options) (*dataset.Table, map[string]string, Treatments, error) {
	t, err := dataset.ReadTable(opts.DissertationsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	territories, err := dataset.ReadLookup(opts.TerritoriesFile, "university", "territory")
	if err != nil {
		return nil, nil, nil, err
	}
	treatments, err := ReadTreatments(opts.TreatmentsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	return t, territories, treatments, nil
}

// byID holds selected columns of a table keyed by id.
type byID struct {
	width int
	rows  map[string][]string
}

func (b byID) get(id string) []string {
	if r, ok := b.rows[id]; ok {
		return r
	}
	return make([]string, b.width)
}

func readByID(path string, cols []string) (byID, error) {
	t, err := dataset.ReadTable(path)
	if err != nil {
		return byID{}, err
	}
	sel, err := t.Select(append([]string{"id"}, cols...)...)
	if err != nil {
		return byID{}, fmt.Errorf("reading %s: %w", path, err)
	}
	out := byID{width: len(cols), rows: make(map[string][]string, len(sel.Rows))}
	for _, row := range sel.Rows {
		vals := make([]string, len(cols))
		for i, v := range row[1:] {
			vals[i] = dataset.IntCell(v)
		}
		out.rows[row[0]] = vals
	}
	return out, nil
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
