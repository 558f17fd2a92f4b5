// Package pipeline runs the novelty estimation and its surrounding
// preparation stages as a sequence of reported steps.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/dissnovelty/internal/config"
	"github.com/TobiSchelling/dissnovelty/internal/database"
	"github.com/TobiSchelling/dissnovelty/internal/dataset"
	"github.com/TobiSchelling/dissnovelty/internal/novelty"
	"github.com/TobiSchelling/dissnovelty/internal/phrases"
)

// AuditFileName is the audit table written to the maintenance directory.
const AuditFileName = "210_novel_phrases.csv"

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID int64
	Steps []StepResult
	Stats map[string]int
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(s.Name), s.Err)
		}
	}
	return nil
}

func (r *Result) add(s StepResult) bool {
	r.Steps = append(r.Steps, s)
	return s.Err == nil
}

// Pipeline orchestrates Load, Extract, Estimate, Write and Record.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	extractor phrases.Extractor
}

// New creates a pipeline with the configured extractor. db may be nil, in
// which case extractions are not cached on disk and runs are not recorded.
func New(cfg *config.Config, db *database.DB) (*Pipeline, error) {
	var store phrases.Store
	if db != nil {
		store = db
	}
	ex, err := phrases.New(cfg.Extractor, cfg.Models.NounPhrases, store)
	if err != nil {
		return nil, err
	}
	return NewWithExtractor(cfg, db, ex), nil
}

// NewWithExtractor creates a pipeline around a given extractor.
func NewWithExtractor(cfg *config.Config, db *database.DB, ex phrases.Extractor) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, extractor: ex}
}

// Extractor returns the phrase extractor in use.
func (p *Pipeline) Extractor() phrases.Extractor { return p.extractor }

// ProgressFunc creates a progress sink for a pass over total titles.
type ProgressFunc func(total int) phrases.Progress

// Run executes the novelty estimation. newProgress may be nil.
func (p *Pipeline) Run(ctx context.Context, newProgress ProgressFunc) *Result {
	r := &Result{}

	// Step 1: Load
	log.Info().Str("path", p.cfg.Paths.DissertationsFile).Msg("step 1/5: loading dissertations")
	docs, err := dataset.ReadDissertations(p.cfg.Paths.DissertationsFile, p.cfg.Sample.Language)
	if !r.add(loadStep(docs, err)) {
		return r
	}

	// Step 2: Extract
	log.Info().Str("extractor", p.extractor.Name()).Int("titles", len(docs)).Msg("step 2/5: extracting noun phrases")
	var progress phrases.Progress
	if newProgress != nil {
		progress = newProgress(len(docs))
	}
	raw, err := phrases.ExtractAll(ctx, p.extractor, dataset.Titles(docs), p.cfg.Extractor.Workers, progress)
	if err != nil {
		r.add(StepResult{Name: "Extract", Err: err})
		return r
	}
	sets := phrases.CleanAll(raw)
	total := 0
	for _, s := range sets {
		total += len(s)
	}
	r.add(StepResult{
		Name:    "Extract",
		Summary: fmt.Sprintf("Extracted %s phrases from %s titles", dataset.FormatCount(total), dataset.FormatCount(len(docs))),
	})

	// Step 3: Estimate
	log.Info().Msg("step 3/5: estimating novelty")
	input := make([]novelty.Document, len(docs))
	for i, d := range docs {
		input[i] = novelty.Document{ID: d.ID, Year: d.Year, Phrases: sets[i]}
	}
	records, years := novelty.Estimate(input)
	report := novelty.Report(records)
	r.Stats = report.Stats()
	r.add(StepResult{
		Name: "Estimate",
		Summary: fmt.Sprintf("%s of %s dissertations novel, %s novel phrases over %d years",
			dataset.FormatCount(report.NovelDocuments), dataset.FormatCount(len(records)),
			dataset.FormatCount(report.NovelPhrases()), len(years)),
	})

	// Step 4: Write
	log.Info().Str("path", p.cfg.Paths.NoveltyFile).Msg("step 4/5: writing tables")
	if !r.add(p.write(docs, report)) {
		return r
	}

	// Step 5: Record
	r.add(p.record(r, docs, records, years))
	return r
}

func loadStep(docs []dataset.Dissertation, err error) StepResult {
	if err != nil {
		return StepResult{Name: "Load", Err: err}
	}
	missing := 0
	for _, d := range docs {
		if d.Title == nil {
			missing++
		}
	}
	return StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("Loaded %s dissertations (%s without title)", dataset.FormatCount(len(docs)), dataset.FormatCount(missing)),
	}
}

func (p *Pipeline) write(docs []dataset.Dissertation, report novelty.Result) StepResult {
	audit := filepath.Join(p.cfg.Paths.MaintenanceDir, AuditFileName)
	if err := dataset.WriteAudit(audit, report.Audit); err != nil {
		return StepResult{Name: "Write", Err: err}
	}
	if err := dataset.WriteNovelty(p.cfg.Paths.NoveltyFile, docs, report.Rows); err != nil {
		return StepResult{Name: "Write", Err: err}
	}
	if err := dataset.WriteStats(p.cfg.Paths.StatisticsDir, report.Stats()); err != nil {
		return StepResult{Name: "Write", Err: err}
	}
	return StepResult{
		Name:    "Write",
		Summary: fmt.Sprintf("Wrote %s and %s", p.cfg.Paths.NoveltyFile, audit),
	}
}

func (p *Pipeline) record(r *Result, docs []dataset.Dissertation, records []novelty.Record, years []novelty.YearSummary) StepResult {
	if p.db == nil {
		return StepResult{Name: "Record", Summary: "Skipped (no database)"}
	}
	log.Info().Msg("step 5/5: recording run")

	runID, err := p.db.StartRun(p.extractor.Name())
	if err != nil {
		return StepResult{Name: "Record", Err: err}
	}
	r.RunID = runID

	titles := make(map[int64]*string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}
	dbYears := make([]database.RunYear, len(years))
	for i, y := range years {
		dbYears[i] = database.RunYear{
			RunID:          runID,
			Year:           y.Year,
			Documents:      y.Documents,
			NovelDocuments: y.NovelDocuments,
			NewPhrases:     y.NewPhrases,
			CorpusSize:     y.CorpusSize,
		}
	}
	dbDocs := make([]database.RunDocument, len(records))
	for i, rec := range records {
		dbDocs[i] = database.RunDocument{
			RunID:        runID,
			DocID:        rec.ID,
			Year:         rec.Year,
			Title:        titles[rec.ID],
			Novel:        rec.IsNovel(),
			NumPhrases:   rec.NumPhrases(),
			NovelPhrases: rec.Novel.Sorted(),
		}
	}

	if err := p.db.SaveRunResults(runID, dbYears, dbDocs, p.notes(r, years)); err != nil {
		if derr := p.db.DeleteRun(runID); derr != nil {
			log.Warn().Err(derr).Int64("run", runID).Msg("removing incomplete run")
		}
		r.RunID = 0
		return StepResult{Name: "Record", Err: err}
	}
	return StepResult{Name: "Record", Summary: fmt.Sprintf("Recorded run #%d", runID)}
}

// notes renders a Markdown summary shown alongside the run.
func (p *Pipeline) notes(r *Result, years []novelty.YearSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Extractor:** `%s`\n\n", p.extractor.Name())
	fmt.Fprintf(&b, "**Input:** `%s`\n\n", p.cfg.Paths.DissertationsFile)
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "- **%s**: %s\n", s.Name, s.Summary)
	}
	if len(years) > 0 {
		first, last := years[0], years[len(years)-1]
		fmt.Fprintf(&b, "\nThe known-phrase corpus grew from %s phrases after %d to %s after %d.\n",
			dataset.FormatCount(first.CorpusSize), first.Year, dataset.FormatCount(last.CorpusSize), last.Year)
	}
	return b.String()
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	in := p.cfg.Paths.DissertationsFile
	if _, err := os.Stat(in); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Summary: fmt.Sprintf("[dry-run] %s is not readable: %v", in, err)})
	} else {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Summary: fmt.Sprintf("[dry-run] Would read %s (language %s)", in, p.cfg.Sample.Language)})
	}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Extract",
		Summary: fmt.Sprintf("[dry-run] Would extract with %s using %d workers", p.extractor.Name(), max(p.cfg.Extractor.Workers, 1)),
	})
	r.Steps = append(r.Steps, StepResult{Name: "Estimate", Summary: "[dry-run] Would estimate novelty year by year"})
	r.Steps = append(r.Steps, StepResult{
		Name: "Write",
		Summary: fmt.Sprintf("[dry-run] Would write %s, %s and stats to %s",
			p.cfg.Paths.NoveltyFile, filepath.Join(p.cfg.Paths.MaintenanceDir, AuditFileName), p.cfg.Paths.StatisticsDir),
	})

	switch {
	case p.db == nil:
		r.Steps = append(r.Steps, StepResult{Name: "Record", Summary: "[dry-run] No database; run would not be recorded"})
	default:
		latest, _ := p.db.GetLatestRun()
		if latest != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Record", Summary: fmt.Sprintf("[dry-run] Would record run after #%d", latest.ID)})
		} else {
			r.Steps = append(r.Steps, StepResult{Name: "Record", Summary: "[dry-run] Would record the first run"})
		}
	}
	return r
}
