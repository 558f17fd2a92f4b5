package panel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/dissnovelty/internal/dataset"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixture(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		DissertationsFile: writeFile(t, dir, "diss.csv", `id,University,year,faculty,discipline,female,Wikipedia,language,Titel
1,Berlin,1890,Philosophy,history,0,0,German,Über Wärme
2,Berlin,1891,Law,history,1.0,1,German,Über Recht
3,Jena,1891,Philosophy,NA,1,0,Latin,De fontibus
`),
		TerritoriesFile:     writeFile(t, dir, "geo.csv", "university,territory\nBerlin,Preußen\nJena,Sachsen-Weimar-Eisenach\n"),
		TreatmentsFile:      writeFile(t, dir, "admissions.csv", "territory,year\nPreußen,1908\nSachsen-Weimar-Eisenach,1890.0\n"),
		CharacteristicsFile: writeFile(t, dir, "students.csv", "id,Gymnasium,domestic,n_study,technical\n1,1,1,2,0\n3,0,,1.0,\n"),
		NoveltyFile:         writeFile(t, dir, "novelty.csv", "id,Titel,year,novel,num_phrases\n1,Über Wärme,1890,1,1\n2,Über Recht,1891,0,1\n"),
		OutputDir:           filepath.Join(dir, "master"),
		StatisticsDir:       filepath.Join(dir, "stats"),
	}
}

func TestDiscipline(t *testing.T) {
	assert.Equal(t, "law", Discipline("Law", "history"))
	assert.Equal(t, "philology", Discipline("Philosophy", "NA"))
	assert.Equal(t, "chemistry", Discipline("Philosophy", "chemistry"))
}

func TestWriteCohort(t *testing.T) {
	opts := fixture(t)
	rows, err := WriteCohort(opts)
	require.NoError(t, err)

	// 2 universities x 2 years x 3 disciplines
	require.Len(t, rows, 12)
	assert.Equal(t, CohortRow{
		University: "Berlin", Year: 1890, Discipline: "history", Territory: "Preußen",
		DissCount: 1, FemCount: 0, Treatment: 1908, Post: false,
	}, rows[0])
	assert.Equal(t, CohortRow{
		University: "Berlin", Year: 1891, Discipline: "law", Territory: "Preußen",
		DissCount: 1, FemCount: 1, Treatment: 1908, Post: false,
	}, rows[4])
	last := rows[11]
	assert.Equal(t, "Jena", last.University)
	assert.Equal(t, "philology", last.Discipline)
	assert.Equal(t, 1, last.DissCount)
	assert.True(t, last.Post)

	tbl, err := dataset.ReadTable(filepath.Join(opts.OutputDir, "cohort.csv"))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 12)
	assert.Equal(t, []string{"Berlin", "1890", "history", "Preußen", "1", "0", "1908", "0"}, tbl.Rows[0])

	n, err := dataset.ReadStat(opts.StatisticsDir, StatObservations)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestWriteCohortMissingTreatment(t *testing.T) {
	opts := fixture(t)
	opts.TreatmentsFile = writeFile(t, t.TempDir(), "admissions.csv", "territory,year\nPreußen,1908\n")
	_, err := WriteCohort(opts)
	assert.ErrorIs(t, err, ErrMissingTreatment)
}

func TestWriteIndividual(t *testing.T) {
	opts := fixture(t)
	n, err := WriteIndividual(opts)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tbl, err := dataset.ReadTable(filepath.Join(opts.OutputDir, "individual.csv"))
	require.NoError(t, err)
	assert.Equal(t, individualColumns, tbl.Header)
	assert.Equal(t, [][]string{
		{"1", "1890", "Berlin", "history", "Philosophy", "0", "0", "Preußen", "1", "1", "2", "0", "1", "1", "1", "1908", "0"},
		{"2", "1891", "Berlin", "law", "Law", "1", "1", "Preußen", "", "", "", "", "1", "0", "1", "1908", "0"},
		{"3", "1891", "Jena", "philology", "Philosophy", "1", "0", "Sachsen-Weimar-Eisenach", "0", "", "1", "", "0", "", "", "1890", "1"},
	}, tbl.Rows)
}
