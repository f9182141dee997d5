package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	content := "name,url,sector,docs_dir\n" +
		"Acme Robotics,https://acme.dev,robotics,./acme\n" +
		" Globex , https://globex.io , compliance , ./globex \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := readManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Acme Robotics", entries[0].Name)
	assert.Equal(t, "https://acme.dev", entries[0].URL)
	assert.Equal(t, "robotics", entries[0].Sector)
	assert.Equal(t, "./acme", entries[0].DocsDir)
	assert.Equal(t, "Globex", entries[1].Name, "fields are trimmed")
}

func TestReadManifestNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte("Acme,https://acme.dev,saas,./docs\n"), 0o644))

	entries, err := readManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme", entries[0].Name)
}

func TestReadManifestShortRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte("Acme,https://acme.dev,saas\n"), 0o644))

	_, err := readManifest(path)
	assert.Error(t, err)
}

func TestReadManifestMissingFile(t *testing.T) {
	_, err := readManifest(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestScoreFileName(t *testing.T) {
	tests := []struct {
		company string
		want    string
	}{
		{"Acme Robotics", "out/acme-robotics.json"},
		{"Globex, Inc.", "out/globex--inc.json"},
		{"  Initech  ", "out/initech.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreFileName("out", tt.company))
	}
}
