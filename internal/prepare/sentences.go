package prepare

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence.
var abbreviations = map[string]bool{
	"Prof": true, "Dr": true, "Hrn": true, "Herrn": true, "Geh": true,
	"med": true, "phil": true, "jur": true, "Univ": true, "Inst": true,
	"St": true, "vgl": true, "bzw": true, "Abth": true, "Abt": true,
	"Bd": true, "Nr": true, "No": true, "Hft": true, "Aufl": true,
	"Fig": true, "Taf": true,
}

// SplitSentences breaks text after ".", "!" or "?" when whitespace and an
// upper-case letter, digit or opening mark follow and the word before the
// stop is not an abbreviation or a single letter.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + utf8.RuneLen(r)
		rest := text[end:]
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if len(trimmed) == len(rest) || trimmed == "" {
			continue
		}
		next, _ := utf8.DecodeRuneInString(trimmed)
		if !unicode.IsUpper(next) && !unicode.IsDigit(next) && !strings.ContainsRune("(„\"'", next) {
			continue
		}
		if r == '.' && isAbbreviation(lastWord(text[start:i])) {
			continue
		}
		out = append(out, strings.TrimSpace(text[start:end]))
		start = end
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[len(fields)-1], "(„\"'")
}

func isAbbreviation(w string) bool {
	if abbreviations[w] {
		return true
	}
	if utf8.RuneCountInString(w) == 1 {
		return true
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}

// DropLocationalSentences removes sentences starting with "Aus d" (as in
// "Aus dem Institut ...") from titles with more than one sentence.
func DropLocationalSentences(title string) string {
	sentences := SplitSentences(title)
	if len(sentences) <= 1 {
		return title
	}
	kept := sentences[:0]
	for _, s := range sentences {
		if !strings.HasPrefix(s, "Aus d") {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}
