package phrases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, ex Extractor, text string) []string {
	t.Helper()
	got, err := ex.Extract(context.Background(), text)
	require.NoError(t, err)
	return got
}

func TestHeuristicGenitiveAttribute(t *testing.T) {
	got := extract(t, NewHeuristicExtractor(false), "Über die Theorie der Wärme")
	assert.Equal(t, []string{"Theorie der Wärme"}, got)
}

func TestHeuristicPrepositionsSplitChunks(t *testing.T) {
	got := extract(t, NewHeuristicExtractor(false), "Beiträge zur Kenntnis der Flora von Thüringen")
	assert.Equal(t, []string{"Beiträge", "Kenntnis der Flora", "Thüringen"}, got)
}

func TestHeuristicAdjectivesStayWithNoun(t *testing.T) {
	got := extract(t, NewHeuristicExtractor(false), "Experimentelle Untersuchungen über die elektrische Leitfähigkeit")
	assert.Equal(t, []string{"Experimentelle Untersuchungen", "elektrische Leitfähigkeit"}, got)
}

func TestHeuristicKeepsOpeningQuote(t *testing.T) {
	ex := NewHeuristicExtractor(false)
	got := extract(t, ex, "„Neue Methode")
	assert.Equal(t, []string{"„ Neue Methode"}, got)
	assert.Equal(t, NewSet("Neue Methode"), Clean(got))
}

func TestHeuristicKeepsLeadingNumbers(t *testing.T) {
	ex := NewHeuristicExtractor(false)
	got := extract(t, ex, "3 Fälle von Typhus")
	assert.Equal(t, []string{"3 Fälle", "Typhus"}, got)
	assert.Equal(t, NewSet("Typhus"), Clean(got))
}

func TestHeuristicHonorificsBecomeClutter(t *testing.T) {
	ex := NewHeuristicExtractor(false)
	got := extract(t, ex, "Aus dem Laboratorium des Hrn. Prof. Dr. Fischer")
	assert.Equal(t, []string{"Laboratorium des Hrn", "Prof", "Dr", "Fischer"}, got)
	assert.Equal(t, NewSet("Fischer"), Clean(got))
}

func TestHeuristicNoNounNoChunk(t *testing.T) {
	got := extract(t, NewHeuristicExtractor(false), "über einige neue")
	assert.Empty(t, got)
}

func TestHeuristicTrailingLowercaseTrimmed(t *testing.T) {
	got := extract(t, NewHeuristicExtractor(false), "Kristalle gemessen")
	assert.Equal(t, []string{"Kristalle"}, got)
}

func TestHeuristicStemPreservesCapital(t *testing.T) {
	ex := NewHeuristicExtractor(true)
	assert.Equal(t, "heuristic+stem", ex.Name())
	got := extract(t, ex, "Untersuchungen")
	require.Len(t, got, 1)
	assert.Equal(t, "Untersuch", got[0])

	got = extract(t, ex, "Zellen")
	assert.Equal(t, []string{"Zell"}, got)
}

func TestHeuristicDeterministic(t *testing.T) {
	ex := NewHeuristicExtractor(false)
	title := "Studien über die Entwicklung der Zellen; mit 3 Tafeln"
	first := extract(t, ex, title)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, extract(t, ex, title))
	}
}
