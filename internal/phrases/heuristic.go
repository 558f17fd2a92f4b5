package phrases

import (
	"context"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/german"
)

// tokenPattern matches words (with inner hyphens or apostrophes) and single
// punctuation marks.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[-'’][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)

// determiners are dropped at the start of a chunk. "der" and "des" after a
// noun introduce a genitive attribute and continue the chunk instead.
var determiners = wordSet(
	"der", "die", "das", "den", "dem", "des",
	"ein", "eine", "einer", "eines", "einem", "einen",
	"dieser", "diese", "dieses", "diesem", "diesen",
	"jener", "jene", "jenes",
	"sein", "seine", "seiner", "seines", "seinem", "seinen",
	"ihr", "ihre", "ihrer", "ihres", "ihrem", "ihren",
)

var genitiveLinks = wordSet("der", "des")

// breakers end a chunk and never belong to one.
var breakers = wordSet(
	// prepositions
	"ab", "an", "am", "ans", "auf", "aus", "außer", "bei", "beim", "bis",
	"durch", "für", "gegen", "gegenüber", "hinter", "im", "in", "ins",
	"mit", "mittels", "nach", "nebst", "neben", "ohne", "seit", "um",
	"unter", "über", "ueber", "vom", "von", "vor", "während", "wegen",
	"zu", "zum", "zur", "zwischen", "betreffend", "bezüglich", "samt",
	// conjunctions and particles
	"und", "oder", "sowie", "sowohl", "als", "auch", "wie", "aber",
	"sondern", "dass", "daß", "ob", "wenn", "nicht", "nur", "insbesondere",
	"besonders", "namentlich", "speziell", "zugleich", "nebst",
	// pronouns and auxiliaries
	"es", "sich", "welche", "welcher", "welches", "deren", "dessen",
	"ist", "sind", "wird", "werden", "wurde", "wurden", "hat", "haben",
)

// openers may start a chunk; any other punctuation ends it.
var openers = map[string]bool{"(": true, "„": true, "'": true}

var heuristicVersion = rulesVersion(
	tokenPattern.String(),
	strings.Join(slices.Sorted(maps.Keys(determiners)), " "),
	strings.Join(slices.Sorted(maps.Keys(genitiveLinks)), " "),
	strings.Join(slices.Sorted(maps.Keys(breakers)), " "),
	strings.Join(slices.Sorted(maps.Keys(openers)), " "),
)

// HeuristicExtractor is a deterministic, dependency-free German noun-phrase
// chunker. German capitalises nouns, so a chunk is a maximal run of content
// words that contains a capitalised token, ending at punctuation or a
// function word. It approximates a statistical chunker well enough for
// offline runs and tests.
type HeuristicExtractor struct {
	stem bool
}

// NewHeuristicExtractor creates a chunker. With stem set, every word is
// reduced to its snowball stem as a stand-in for lemmatisation.
func NewHeuristicExtractor(stem bool) *HeuristicExtractor {
	return &HeuristicExtractor{stem: stem}
}

// Name implements Extractor.
func (h *HeuristicExtractor) Name() string {
	if h.stem {
		return "heuristic+stem"
	}
	return "heuristic"
}

// Version fingerprints the token pattern and word lists.
func (h *HeuristicExtractor) Version() string { return heuristicVersion }

// Extract implements Extractor.
func (h *HeuristicExtractor) Extract(_ context.Context, text string) ([]string, error) {
	var (
		chunks []string
		cur    []string
	)
	flush := func() {
		// trailing lowercase words are verbs or particles, not part of the phrase
		for len(cur) > 0 && !hasNoun(cur[len(cur)-1:]) && !isNumber(cur[len(cur)-1]) {
			cur = cur[:len(cur)-1]
		}
		if hasNoun(cur) {
			chunks = append(chunks, strings.Join(cur, " "))
		}
		cur = nil
	}

	for _, tok := range tokenPattern.FindAllString(text, -1) {
		r, _ := utf8.DecodeRuneInString(tok)
		isWord := unicode.IsLetter(r) || unicode.IsNumber(r)
		low := strings.ToLower(tok)

		switch {
		case !isWord && openers[tok]:
			flush()
			cur = append(cur, tok)
		case !isWord:
			flush()
		case breakers[low]:
			flush()
		case determiners[low]:
			if genitiveLinks[low] && hasNoun(cur) {
				cur = append(cur, tok)
				continue
			}
			if onlyOpeners(cur) {
				// determiner at chunk start is dropped
				continue
			}
			flush()
		default:
			cur = append(cur, h.normalize(tok))
		}
	}
	flush()
	return chunks, nil
}

func (h *HeuristicExtractor) normalize(tok string) string {
	if !h.stem || isNumber(tok) {
		return tok
	}
	env := snowballstem.NewEnv(strings.ToLower(tok))
	german.Stem(env)
	stem := env.Current()
	if stem == "" {
		return tok
	}
	r, _ := utf8.DecodeRuneInString(tok)
	if unicode.IsUpper(r) {
		s, size := utf8.DecodeRuneInString(stem)
		return string(unicode.ToUpper(s)) + stem[size:]
	}
	return stem
}

func hasNoun(tokens []string) bool {
	for _, t := range tokens {
		r, _ := utf8.DecodeRuneInString(t)
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func onlyOpeners(tokens []string) bool {
	for _, t := range tokens {
		if !openers[t] {
			return false
		}
	}
	return true
}

func isNumber(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsDigit(r)
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
