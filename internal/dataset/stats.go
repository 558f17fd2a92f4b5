package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCount renders n with English thousands grouping, e.g. "12,345".
func FormatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// WriteStats writes every counter to <dir>/<key>.txt.
func WriteStats(dir string, stats map[string]int) error {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		content := FormatCount(stats[k])
		path := filepath.Join(dir, k+".txt")
		if err := writeAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, content)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// ReadStat reads a counter written by WriteStats.
func ReadStat(dir, key string) (int, error) {
	path := filepath.Join(dir, key+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	var n int
	if _, err := fmt.Sscanf(strings.ReplaceAll(strings.TrimSpace(string(data)), ",", ""), "%d", &n); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return n, nil
}
