package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// ReadLookup maps keyCol to valueCol for every row of the CSV at path.
// An empty keyCol selects the first column, as pandas index_col=0 does.
// Rows with a missing key or value are skipped; the first occurrence wins.
func ReadLookup(path, keyCol, valueCol string) (map[string]string, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if keyCol == "" && len(t.Header) > 0 {
		keyCol = t.Header[0]
	}
	if err := t.Require(keyCol, valueCol); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	out := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		k, v := t.Value(row, keyCol), t.Value(row, valueCol)
		if IsNA(k) || IsNA(v) {
			continue
		}
		if _, dup := out[k]; !dup {
			out[k] = v
		}
	}
	return out, nil
}

// ParseFlag reads a 0/1 or boolean cell. ok is false for missing values.
func ParseFlag(cell string) (value, ok bool) {
	s := strings.TrimSpace(cell)
	if IsNA(s) {
		return false, false
	}
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, false
	}
	return f != 0, true
}

// IntCell renders integral numeric cells without a decimal part, matching
// a "%.0f" float format. Other cells are returned unchanged.
func IntCell(cell string) string {
	s := strings.TrimSpace(cell)
	if !strings.Contains(s, ".") {
		return cell
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return cell
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}
