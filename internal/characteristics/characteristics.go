// Package characteristics derives student background indicators from the
// free-text CV fields of each dissertation.
package characteristics

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/dissnovelty/internal/dataset"
)

// Columns of the characteristics table after "id".
var Columns = []string{"Gymnasium", "domestic", "n_study", "technical"}

// Jena and Rostock served several small states; their students count as
// domestic when they come from any of them.
var (
	// thuringiaPublished is the set the published indicator was computed
	// with: "Reuß j. L." and "Sachsen-Altenburg" ran together into a single
	// entry, so neither matches on its own.
	thuringiaPublished = map[string]bool{
		"Reuß ä. L.":                  true,
		"Reuß j. L.Sachsen-Altenburg": true,
		"Sachsen-Coburg":              true,
		"Sachsen-Coburg und Gotha":    true,
		"Sachsen-Meiningen":           true,
		"Sachsen-Weimar-Eisenach":     true,
		"Schaumburg-Lippe":            true,
		"Schwarzburg-Rudolstadt":      true,
		"Schwarzburg-Sondershausen":   true,
		"Thüringen":                   true,
	}
	thuringia = map[string]bool{
		"Reuß ä. L.":                true,
		"Reuß j. L.":                true,
		"Sachsen-Altenburg":         true,
		"Sachsen-Coburg":            true,
		"Sachsen-Coburg und Gotha":  true,
		"Sachsen-Meiningen":         true,
		"Sachsen-Weimar-Eisenach":   true,
		"Schaumburg-Lippe":          true,
		"Schwarzburg-Rudolstadt":    true,
		"Schwarzburg-Sondershausen": true,
		"Thüringen":                 true,
	}
	mecklenburg = map[string]bool{
		"Mecklenburg-Schwerin": true,
		"Mecklenburg-Strelitz": true,
		"Mecklenburg":          true,
	}
)

var (
	gymnasiumPattern = regexp.MustCompile(`(?i)gymn|gym(?:[^\p{L}\p{N}_]|$)`)
	technicalPattern = regexp.MustCompile(`(?i)techn\.|t[^\p{L}\p{N}_]*h\.`)
	semesterCount    = regexp.MustCompile(`\s*\d+\s*`)
)

// Flag is a nullable 0/1 indicator.
type Flag struct {
	Value bool
	Valid bool
}

func (f Flag) String() string {
	switch {
	case !f.Valid:
		return ""
	case f.Value:
		return "1"
	default:
		return "0"
	}
}

func flag(v bool) Flag { return Flag{Value: v, Valid: true} }

// Student holds the indicators of one dissertation's author.
type Student struct {
	ID        string
	Gymnasium Flag
	Domestic  Flag
	NStudy    int
	HasStudy  bool
	Technical Flag
}

func (s Student) row() []string {
	nStudy := ""
	if s.HasStudy {
		nStudy = strconv.Itoa(s.NStudy)
	}
	return []string{s.ID, s.Gymnasium.String(), s.Domestic.String(), nStudy, s.Technical.String()}
}

// Gymnasium reports whether a schooling entry mentions a Gymnasium.
func Gymnasium(schooling string) Flag {
	if dataset.IsNA(schooling) {
		return Flag{}
	}
	return flag(gymnasiumPattern.MatchString(schooling))
}

// Technical reports whether a study record mentions a technical college
// ("Techn." or "T. H."), as a standalone word.
func Technical(studies string) Flag {
	if dataset.IsNA(studies) {
		return Flag{}
	}
	for _, m := range technicalPattern.FindAllStringIndex(studies, -1) {
		if !wordBefore(studies, m[0]) && !wordAfter(studies, m[1]) {
			return flag(true)
		}
	}
	return flag(false)
}

func isWord(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func wordBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWord(r)
}

func wordAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWord(r)
}

// StudyLocations returns the distinct places in a study record such as
// "Berlin 2, Jena 4, Berlin 1 S.". Semester counts are removed.
func StudyLocations(studies string) map[string]struct{} {
	out := make(map[string]struct{})
	if dataset.IsNA(studies) {
		return out
	}
	if strings.HasSuffix(studies, "S.") {
		studies = strings.TrimSpace(studies[:len(studies)-2])
	}
	for _, loc := range strings.Split(studies, ", ") {
		out[strings.TrimSpace(semesterCount.ReplaceAllString(loc, " "))] = struct{}{}
	}
	return out
}

func citizenships(citizenship string) []string {
	return strings.Split(strings.ReplaceAll(citizenship, " u.", ","), ", ")
}

// Domestic computes the indicator as it was published. Despite its name it
// is 1 when some citizenship differs from the university's territory (an
// unknown territory always differs). Jena and Rostock are the exception:
// there it is 1 when a citizenship is in the Thuringian or Mecklenburg set.
// The flag is the maximum over all listed citizenships and undefined when
// university or citizenship is missing.
func Domestic(university, citizenship, territory string) Flag {
	if dataset.IsNA(university) || dataset.IsNA(citizenship) {
		return Flag{}
	}
	unknown := dataset.IsNA(territory)
	for _, c := range citizenships(citizenship) {
		var v bool
		switch university {
		case "Jena":
			v = thuringiaPublished[c]
		case "Rostock":
			v = mecklenburg[c]
		default:
			v = unknown || c != territory
		}
		if v {
			return flag(true)
		}
	}
	return flag(false)
}

// DomesticCorrected reports whether any listed citizenship matches the
// territory of the university, with the complete Thuringian set. It is
// undefined when either side is unknown.
func DomesticCorrected(university, citizenship, territory string) Flag {
	if dataset.IsNA(university) || dataset.IsNA(citizenship) {
		return Flag{}
	}
	var home map[string]bool
	switch university {
	case "Jena":
		home = thuringia
	case "Rostock":
		home = mecklenburg
	default:
		if dataset.IsNA(territory) {
			return Flag{}
		}
		home = map[string]bool{territory: true}
	}
	for _, c := range citizenships(citizenship) {
		if home[strings.TrimSpace(c)] {
			return flag(true)
		}
	}
	return flag(false)
}

// Options locates the inputs and output of Run.
type Options struct {
	DissertationsFile string
	TerritoriesFile   string
	OutputFile        string
	// CorrectedDomestic switches from the published domestic indicator to
	// DomesticCorrected.
	CorrectedDomestic bool
}

// Run derives the indicators for every dissertation and writes them keyed by id.
func Run(opts Options) ([]Student, error) {
	t, err := dataset.ReadTable(opts.DissertationsFile)
	if err != nil {
		return nil, err
	}
	if err := t.Require("id", "University", "Vorbildung", "Staatsangehörigkeit", "Studium"); err != nil {
		return nil, err
	}
	territories, err := dataset.ReadLookup(opts.TerritoriesFile, "university", "territory")
	if err != nil {
		return nil, err
	}

	domestic := Domestic
	if opts.CorrectedDomestic {
		domestic = DomesticCorrected
	}

	students := make([]Student, len(t.Rows))
	out := dataset.NewTable(append([]string{"id"}, Columns...)...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		uni := t.Value(row, "University")
		studies := t.Value(row, "Studium")
		s := Student{
			ID:        t.Value(row, "id"),
			Gymnasium: Gymnasium(t.Value(row, "Vorbildung")),
			Domestic:  domestic(uni, t.Value(row, "Staatsangehörigkeit"), territories[uni]),
			Technical: Technical(studies),
		}
		if !dataset.IsNA(studies) {
			s.HasStudy = true
			s.NStudy = len(StudyLocations(studies))
		}
		students[i] = s
		out.Rows[i] = s.row()
	}

	if err := dataset.WriteTable(opts.OutputFile, out); err != nil {
		return nil, err
	}
	log.Info().Int("students", len(students)).Str("path", opts.OutputFile).Msg("wrote student characteristics")
	return students, nil
}
