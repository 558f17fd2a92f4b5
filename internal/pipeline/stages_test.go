package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/dissnovelty/internal/config"
)

func fullConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Paths.WorksFile = filepath.Join(dir, "raw", "works.csv")
	cfg.Paths.SubstitutionsFile = filepath.Join(dir, "raw", "substitutions.csv")
	cfg.Paths.DissertationsFile = filepath.Join(dir, "dissertations.csv")
	cfg.Paths.UniversityDir = filepath.Join(dir, "universities")
	cfg.Paths.CharacteristicsFile = filepath.Join(dir, "characteristics.csv")
	cfg.Paths.NoveltyFile = filepath.Join(dir, "novelty.csv")
	cfg.Paths.DissertationsMaster = filepath.Join(dir, "master")
	cfg.Paths.MaintenanceDir = filepath.Join(dir, "maintenance")
	cfg.Paths.StatisticsDir = filepath.Join(dir, "statistics")
	cfg.Sample = config.Sample{MinYear: 1890, MaxYear: 1912, Language: "German"}
	cfg.Extractor.Workers = 1

	writeFile(t, cfg.Paths.WorksFile, `id,Hochschule,year,faculty,discipline,Vorbildung,Staatsangehörigkeit,Studium,Titel,language,Schriftentyp,female,Wikipedia
1,U Berlin,1890,Philosophy,history,Gymn. Berlin,Preußen,Berlin 6 S.,Theorie X,German,Dissertation,0,0
2,U Jena,1890,Philosophy,chemistry,Realschule,Bayern,"Jena 4, München 2",Theorie X | Studie Y,German,Dissertation,1,0
3,U Berlin,1891,Law,NA,Gymnasium,Preußen,Berlin 6,Theorie X,German,Dissertation,0,1
4,U Jena,1891,Medicine,NA,NA,NA,NA,Typhus,German,Dissertation,0,0
`)
	writeFile(t, cfg.Paths.SubstitutionsFile, "short,new\n")
	writeFile(t, filepath.Join(cfg.Paths.UniversityDir, TerritoriesFile), "university,territory\nBerlin,Preußen\nJena,Sachsen-Weimar-Eisenach\n")
	writeFile(t, filepath.Join(cfg.Paths.UniversityDir, TreatmentsFile), "territory,year\nPreußen,1908\nSachsen-Weimar-Eisenach,1907\n")
	return cfg
}

func TestRunAll(t *testing.T) {
	cfg := fullConfig(t)
	r := NewWithExtractor(cfg, nil, stubExtractor{}).RunAll(context.Background(), nil)
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, s := range r.Steps {
		names = append(names, s.Name)
	}
	want := "Prepare Characteristics Load Extract Estimate Write Record Panel"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("steps = %q, want %q", got, want)
	}
	if r.Stats["novel_N_novel"] != 2 {
		t.Errorf("novel_N_novel = %d, want 2", r.Stats["novel_N_novel"])
	}

	individual := readFile(t, filepath.Join(cfg.Paths.DissertationsMaster, "individual.csv"))
	if !strings.Contains(individual, "3,1891,Berlin,law,Law,0,1,Preußen,1,0,1,0,1,0,1,1908,0") {
		t.Errorf("unexpected individual master:\n%s", individual)
	}
	if got := readFile(t, filepath.Join(cfg.Paths.StatisticsDir, "doctor_N_obs.txt")); got != "12" {
		t.Errorf("doctor_N_obs = %q, want 12", got)
	}
}

func TestPrepareRequiresWorksFile(t *testing.T) {
	cfg := fullConfig(t)
	cfg.Paths.WorksFile = ""
	step := Prepare(cfg)
	if !errors.Is(step.Err, errNotConfigured) {
		t.Errorf("expected errNotConfigured, got %v", step.Err)
	}
}
