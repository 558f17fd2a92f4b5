package phrases

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanDropRules(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"whitespace":       "   \t",
		"clutter Dr":       "Dr. med. Sache",
		"clutter Prof":     "Professor Meyer",
		"clutter Hrn":      "Laboratorium des Hrn",
		"über":             "über Kenntnis",
		"Über capitalised": "Über Kenntnis",
		"number word":      "Zwei Fälle",
		"number zwölf":     "zwölf Jahre",
		"aus d":            "( aus d. Laboratorium",
		"Aus D mixed case": "( Aus D. Klinik",
		"leading digit":    "3 Fälle",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, Clean([]string{raw}), "expected %q to be dropped", raw)
		})
	}
}

func TestCleanClutterIsCaseSensitive(t *testing.T) {
	got := Clean([]string{"dreifache Drehung", "Andromeda"})
	// "Drehung" contains "Dr" and is dropped; "dreifache" starts lowercase and
	// is not a number word
	assert.Equal(t, NewSet("Andromeda"), got)

	got = Clean([]string{"hydrographische Studie"})
	assert.Equal(t, NewSet("hydrographische Studie"), got)
}

func TestCleanNumberWordMustBeWholeToken(t *testing.T) {
	got := Clean([]string{"Achtung der Sitte", "Elfenbein"})
	assert.Equal(t, NewSet("Achtung der Sitte", "Elfenbein"), got)
}

func TestCleanStripsLeadingClutter(t *testing.T) {
	got := Clean([]string{"„Neue Methode", "( Theorie", "'Schule ", "„ ( Werk"})
	// one pass only: the space after „ stops the strip
	assert.Equal(t, NewSet("Neue Methode", "Theorie", "Schule", "( Werk"), got)
}

func TestCleanOnlyStripsLeadingSide(t *testing.T) {
	got := Clean([]string{"Methode („Neu"})
	assert.True(t, got.Contains("Methode („Neu"))
}

func TestCleanKeepsEmptyAfterStrip(t *testing.T) {
	got := Clean([]string{"„", "Theorie"})
	assert.Len(t, got, 2)
	assert.True(t, got.Contains(""))
	assert.True(t, got.Contains("Theorie"))
}

func TestCleanDeduplicatesExactOnly(t *testing.T) {
	got := Clean([]string{"Theorie X", "Theorie X", "theorie X", "„Theorie X"})
	assert.Equal(t, NewSet("Theorie X", "theorie X"), got)
}

func TestCleanNilInput(t *testing.T) {
	got := Clean(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// Holds for inputs whose stripped form does not start a new drop match; see
// TestCleanDoesNotRefilterAfterStrip for those.
func TestCleanOutputSatisfiesNoDropRule(t *testing.T) {
	raw := []string{
		"Dr. med. Sache", "3 Fälle", "über Kenntnis", "„Neue Methode",
		"Beiträge", "Kenntnis der Flora", "( aus d. Institut", "sieben Tage",
		"  Theorie  ", "'Werk", "Prof. X", "Hrn. Y", "Elektrolyse",
	}
	for p := range Clean(raw) {
		if p == "" {
			continue
		}
		assert.False(t, dropped(p), "clean output %q matches a drop rule", p)
		assert.Equal(t, strings.TrimSpace(p), p)
		r, _ := utf8.DecodeRuneInString(p)
		assert.False(t, unicode.IsDigit(r))
	}
}

func TestCleanDoesNotRefilterAfterStrip(t *testing.T) {
	// Drop rules see the raw phrase only. A phrase that matches one after
	// its leading clutter is stripped stays in the set.
	got := Clean([]string{"(3 Fälle", "„über Kenntnis", "'sieben Tage", "3 Fälle"})
	assert.Equal(t, NewSet("3 Fälle", "über Kenntnis", "sieben Tage"), got)
	for p := range got {
		assert.True(t, dropped(p), "%q should match a drop rule", p)
	}
}

func TestSetSorted(t *testing.T) {
	s := NewSet("b", "Z", "a", "Ä")
	assert.Equal(t, []string{"Z", "a", "b", "Ä"}, s.Sorted())
}
