package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLookup(t *testing.T) {
	path := writeFile(t, "geo.csv", "university,lat,territory\nBerlin,52.5,Preußen\nJena,50.9,Sachsen-Weimar-Eisenach\nKiel,54.3,NA\nBerlin,0,Bayern\n")

	m, err := ReadLookup(path, "", "territory")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Berlin": "Preußen", "Jena": "Sachsen-Weimar-Eisenach"}, m)

	_, err = ReadLookup(path, "", "state")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseFlag(t *testing.T) {
	cases := map[string][2]bool{
		"1":     {true, true},
		"1.0":   {true, true},
		"0":     {false, true},
		"True":  {true, true},
		"false": {false, true},
		"NA":    {false, false},
		"":      {false, false},
		"ja":    {false, false},
	}
	for in, want := range cases {
		v, ok := ParseFlag(in)
		assert.Equal(t, want[0], v, in)
		assert.Equal(t, want[1], ok, in)
	}
}

func TestIntCell(t *testing.T) {
	assert.Equal(t, "1", IntCell("1.0"))
	assert.Equal(t, "1890", IntCell("1890"))
	assert.Equal(t, "", IntCell(""))
	assert.Equal(t, "Dr. Fischer", IntCell("Dr. Fischer"))
}
