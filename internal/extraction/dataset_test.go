package extraction

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `{
  "extraction_date": "2024-03-01T10:00:00",
  "family_name": "Manik",
  "extraction_method": "selenium",
  "total_people_extracted": 3,
  "people": {
    "1": {"pid": 1, "name": "Ibrahim Manik", "birth_date": null, "gender": null,
          "father": null, "mother": null, "spouse": null,
          "children": [{"name": "Ahmed Yoosuf", "pid": 3}, {"name": "more..", "pid": 9}],
          "photos": []},
    "2": {"pid": "2", "name": "Aishath Didi", "children": [{"name": " Ahmed Yoosuf ", "pid": "3"}]},
    "3": {"pid": 3, "name": "Ahmed Yoosuf", "children": []}
  }
}`

func TestLoad(t *testing.T) {
	ds, err := Load(strings.NewReader(sampleDump))
	require.NoError(t, err)

	assert.Equal(t, "Manik", ds.FamilyName)
	assert.Equal(t, "selenium", ds.ExtractionMethod)
	assert.Equal(t, 3, ds.TotalPeopleExtracted)
	require.Len(t, ds.People, 3)

	p1 := ds.People["1"]
	assert.Equal(t, PID("1"), p1.PID)
	assert.Equal(t, "Ibrahim Manik", p1.Name)
	require.Len(t, p1.Relations, 2)
	assert.Equal(t, PID("3"), p1.Relations[0].PID)

	assert.Equal(t, PID("3"), ds.People["2"].Relations[0].PID)
}

func TestLoad_MissingPIDFallsBackToKey(t *testing.T) {
	ds, err := Load(strings.NewReader(`{"people": {"7": {"name": "X"}}}`))
	require.NoError(t, err)
	assert.Equal(t, PID("7"), ds.People["7"].PID)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `people`},
		{"array", `[1, 2]`},
		{"no people", `{"family_name": "x"}`},
		{"people is list", `{"people": []}`},
		{"people is null", `{"people": null}`},
		{"bad person", `{"people": {"1": "Ibrahim"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestPID_Unmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want PID
	}{
		{`12`, "12"},
		{`"12"`, "12"},
		{`" 012 "`, "12"},
		{`12.0`, "12"},
		{`null`, ""},
		{`"p-4"`, "p-4"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var p PID
			require.NoError(t, p.UnmarshalJSON([]byte(tt.raw)))
			assert.Equal(t, tt.want, p)
		})
	}

	var p PID
	assert.Error(t, p.UnmarshalJSON([]byte(`true`)))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0o600))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, ds.People, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction: open")
}
