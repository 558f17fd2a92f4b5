package phrases

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Set is a deduplicated collection of phrases.
type Set map[string]struct{}

// NewSet builds a Set from the given phrases.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Contains reports whether p is in the set.
func (s Set) Contains(p string) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in byte-wise order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var (
	clutter = []string{"Prof", "Dr", "Hrn"}

	numberWords = map[string]bool{
		"eins": true, "zwei": true, "drei": true, "vier": true,
		"fünf": true, "sechs": true, "sieben": true, "acht": true,
		"neun": true, "zehn": true, "elf": true, "zwölf": true,
	}
)

// leadingClutter is stripped from the front of surviving phrases.
const leadingClutter = "(„'"

// cases.Caser is stateful, so each goroutine takes its own from the pool.
var lowerPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.German)
		return &c
	},
}

func lower(s string) string {
	c := lowerPool.Get().(*cases.Caser)
	out := c.String(s)
	c.Reset()
	lowerPool.Put(c)
	return out
}

// Clean filters raw extractor output into the canonical phrase set of a
// document. A phrase is dropped when it is blank, contains an honorific,
// starts with "über" or a German number word, starts with "( aus d", or
// starts with a digit. Survivors lose leading brackets and quotes and
// surrounding whitespace.
//
// A survivor made only of leading clutter, e.g. "„", becomes "" and is kept:
// published statistics were computed that way.
func Clean(raw []string) Set {
	clean := make(Set, len(raw))
	for _, phrase := range raw {
		if dropped(phrase) {
			continue
		}
		p := strings.TrimLeft(phrase, leadingClutter)
		clean[strings.TrimSpace(p)] = struct{}{}
	}
	return clean
}

func dropped(phrase string) bool {
	fields := strings.Fields(phrase)
	if len(fields) == 0 {
		return true
	}
	for _, c := range clutter {
		if strings.Contains(phrase, c) {
			return true
		}
	}
	first := lower(fields[0])
	if first == "über" || numberWords[first] {
		return true
	}
	if strings.HasPrefix(lower(phrase), "( aus d") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(phrase)
	return unicode.IsDigit(r)
}
