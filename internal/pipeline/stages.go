package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/dissnovelty/internal/characteristics"
	"github.com/TobiSchelling/dissnovelty/internal/config"
	"github.com/TobiSchelling/dissnovelty/internal/dataset"
	"github.com/TobiSchelling/dissnovelty/internal/panel"
	"github.com/TobiSchelling/dissnovelty/internal/prepare"
)

// Files kept in the university directory.
const (
	TerritoriesFile = "geocoordinates.csv"
	TreatmentsFile  = "admissions.csv"
)

var errNotConfigured = errors.New("path not configured")

// Prepare builds the dissertations table from the works table.
func Prepare(cfg *config.Config) StepResult {
	if cfg.Paths.WorksFile == "" {
		return StepResult{Name: "Prepare", Err: fmt.Errorf("works_file: %w", errNotConfigured)}
	}
	sum, err := prepare.Run(prepare.Options{
		WorksFile:         cfg.Paths.WorksFile,
		SubstitutionsFile: cfg.Paths.SubstitutionsFile,
		OutputFile:        cfg.Paths.DissertationsFile,
		StatisticsDir:     cfg.Paths.StatisticsDir,
		MinYear:           cfg.Sample.MinYear,
		MaxYear:           cfg.Sample.MaxYear,
	})
	if err != nil {
		return StepResult{Name: "Prepare", Err: err}
	}
	return StepResult{
		Name: "Prepare",
		Summary: fmt.Sprintf("Kept %s of %s works as dissertations, %s by women",
			dataset.FormatCount(sum.Dissertations), dataset.FormatCount(sum.Works), dataset.FormatCount(sum.Women)),
	}
}

// Characteristics derives the student indicators.
func Characteristics(cfg *config.Config) StepResult {
	if cfg.Paths.CharacteristicsFile == "" || cfg.Paths.UniversityDir == "" {
		return StepResult{Name: "Characteristics", Err: fmt.Errorf("characteristics_file or university_dir: %w", errNotConfigured)}
	}
	students, err := characteristics.Run(characteristics.Options{
		DissertationsFile: cfg.Paths.DissertationsFile,
		TerritoriesFile:   filepath.Join(cfg.Paths.UniversityDir, TerritoriesFile),
		OutputFile:        cfg.Paths.CharacteristicsFile,
		CorrectedDomestic: cfg.Characteristics.CorrectedDomestic,
	})
	if err != nil {
		return StepResult{Name: "Characteristics", Err: err}
	}
	return StepResult{
		Name:    "Characteristics",
		Summary: fmt.Sprintf("Derived characteristics for %s students", dataset.FormatCount(len(students))),
	}
}

func panelOptions(cfg *config.Config) panel.Options {
	return panel.Options{
		DissertationsFile:   cfg.Paths.DissertationsFile,
		TerritoriesFile:     filepath.Join(cfg.Paths.UniversityDir, TerritoriesFile),
		TreatmentsFile:      filepath.Join(cfg.Paths.UniversityDir, TreatmentsFile),
		CharacteristicsFile: cfg.Paths.CharacteristicsFile,
		NoveltyFile:         cfg.Paths.NoveltyFile,
		OutputDir:           cfg.Paths.DissertationsMaster,
		StatisticsDir:       cfg.Paths.StatisticsDir,
	}
}

// Panel writes the cohort panel and the individual master.
func Panel(cfg *config.Config) StepResult {
	if cfg.Paths.DissertationsMaster == "" || cfg.Paths.UniversityDir == "" {
		return StepResult{Name: "Panel", Err: fmt.Errorf("dissertations_master or university_dir: %w", errNotConfigured)}
	}
	opts := panelOptions(cfg)
	rows, err := panel.WriteCohort(opts)
	if err != nil {
		return StepResult{Name: "Panel", Err: err}
	}
	n, err := panel.WriteIndividual(opts)
	if err != nil {
		return StepResult{Name: "Panel", Err: err}
	}
	return StepResult{
		Name:    "Panel",
		Summary: fmt.Sprintf("Wrote %s cohort observations and %s individual rows", dataset.FormatCount(len(rows)), dataset.FormatCount(n)),
	}
}

// RunAll executes Prepare, Characteristics, the novelty estimation and
// Panel, stopping at the first failure.
func (p *Pipeline) RunAll(ctx context.Context, newProgress ProgressFunc) *Result {
	r := &Result{}
	for _, stage := range []func(*config.Config) StepResult{Prepare, Characteristics} {
		if !r.add(stage(p.cfg)) {
			return r
		}
	}

	nov := p.Run(ctx, newProgress)
	r.Steps = append(r.Steps, nov.Steps...)
	r.RunID, r.Stats = nov.RunID, nov.Stats
	if err := nov.Err(); err != nil {
		log.Error().Err(err).Msg("novelty estimation failed")
		return r
	}

	r.add(Panel(p.cfg))
	return r
}
