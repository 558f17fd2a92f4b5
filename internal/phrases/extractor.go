// Package phrases turns dissertation titles into cleaned noun-phrase sets.
package phrases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrExtractorUnavailable is returned when the configured NLP backend
// cannot be reached at startup.
var ErrExtractorUnavailable = errors.New("phrase extractor unavailable")

// Extractor produces the ordered noun-phrase candidates of a text, one
// string per detected chunk. Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
	// Name identifies the backend and model; it keys the extraction cache.
	Name() string
}

// Versioned is implemented by extractors whose output depends on rules that
// change between releases (prompts, word lists). The version is part of the
// cache key, so stale extractions are not reused after such a change.
type Versioned interface {
	Version() string
}

// cacheKey is the extractor identity used for persisted extractions.
func cacheKey(ex Extractor) string {
	if v, ok := ex.(Versioned); ok && v.Version() != "" {
		return ex.Name() + "@" + v.Version()
	}
	return ex.Name()
}

// rulesVersion fingerprints the given rule texts.
func rulesVersion(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:8]
}

// Progress receives one tick per processed title.
type Progress interface {
	Add(n int) error
}

// ExtractAll runs ex over titles with up to workers concurrent calls and
// returns the raw phrases in input order. A nil title yields nil phrases
// without calling the extractor. The first extraction error cancels the rest.
func ExtractAll(ctx context.Context, ex Extractor, titles []*string, workers int, progress Progress) ([][]string, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([][]string, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, title := range titles {
		if title == nil {
			if progress != nil {
				_ = progress.Add(1)
			}
			continue
		}
		g.Go(func() error {
			raw, err := ex.Extract(gctx, *title)
			if err != nil {
				return fmt.Errorf("extracting phrases from title %d: %w", i, err)
			}
			out[i] = raw
			if progress != nil {
				_ = progress.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanAll applies Clean to every extraction; nil input yields an empty set.
func CleanAll(raw [][]string) []Set {
	out := make([]Set, len(raw))
	for i, r := range raw {
		out[i] = Clean(r)
	}
	return out
}
