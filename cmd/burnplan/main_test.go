package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/burnvault/internal/catalog"
)

func writeSampleFile(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"sample"}, &buf))

	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestSampleCommandPrintsLibrary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"sample"}, &buf))

	var items []catalog.MediaItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	assert.Len(t, items, len(catalog.SampleItems()))
	assert.Equal(t, "The Matrix", items[0].Title)
}

func TestPlanCommandRendersGroups(t *testing.T) {
	path := writeSampleFile(t)

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"plan", "--items", path}, &buf))

	out := buf.String()
	assert.Contains(t, out, "movies (capacity 23.00 GB)")
	assert.Contains(t, out, "Utilization: 22.90 / 23.00 GB")
	assert.Contains(t, out, "mini-series (capacity 23.00 GB)")
	assert.Contains(t, out, "Chernobyl")
	assert.NotContains(t, out, "Pulp Fiction")
}

func TestPlanCommandHonoursCategoryFlags(t *testing.T) {
	path := writeSampleFile(t)

	var buf bytes.Buffer
	err := run(context.Background(), []string{
		"plan", "--items", path,
		"--category", "tv-series",
		"--category-capacity", "tv-series=10",
	}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "tv-series (capacity 10.00 GB)")
	assert.Contains(t, out, "The Wire S1")
	assert.NotContains(t, out, "movies")
	assert.Equal(t, 1, strings.Count(out, "Utilization:"))
}

func TestPlanCommandSkipsBackedUpItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"title": "Alien", "category": "movies", "sizeGB": 4, "backedUp": true},
		{"title": "Heat", "category": "movies", "sizeGB": 3}
	]`), 0o600))

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"plan", "--items", path, "--category", "movies"}, &buf))

	out := buf.String()
	assert.Contains(t, out, "Heat")
	assert.NotContains(t, out, "Alien")
	assert.Contains(t, out, "1 items")
}

func TestPlanCommandErrors(t *testing.T) {
	path := writeSampleFile(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing items flag", []string{"plan"}},
		{"bad capacity pair", []string{"plan", "--items", path, "--category-capacity", "movies"}},
		{"unknown category", []string{"plan", "--items", path, "--category", "audio"}},
		{"non-positive scale", []string{"plan", "--items", path, "--scale", "0"}},
		{"missing file", []string{"plan", "--items", filepath.Join(t.TempDir(), "absent.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, &buf))
		})
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]string{"Title", "Size"}, [][]string{{"Heat", "3.00"}, {"Alien"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "3.00")
	assert.Contains(t, out, "Alien")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestPlanCommandWarnsWhenRoundingOverfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- title: Part One
  category: movies
  size_gb: 11.59
- title: Part Two
  category: movies
  size_gb: 11.49
`), 0o600))

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"plan", "--items", path, "--category", "movies"}, &buf))
	assert.Contains(t, buf.String(), "Warning: sizes were rounded down")

	buf.Reset()
	require.NoError(t, run(context.Background(), []string{"plan", "--items", path, "--category", "movies", "--scale", "100"}, &buf))
	assert.NotContains(t, buf.String(), "Warning")
}
