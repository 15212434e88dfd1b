package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const springerYAML = `
name: springer_small
kind: muchmore
legacy_encoding: windows-1252
archives:
  - path: en_plain.tar.gz
    language: en
    content: plain
  - path: de_plain.tar.gz
    language: de
    content: plain
expected:
  plain:
    matched: 2
    exclusive:
      en: 1
      de: 0
`

func TestLoadConfigurations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "springer.yaml"), []byte(springerYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("kind: [unclosed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_kind.yaml"), []byte("kind: html\narchives:\n  - path: a.zip\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	datasets, err := LoadConfigurations(dir)
	require.NoError(t, err)
	require.Len(t, datasets, 1)

	ds := datasets[0]
	require.Equal(t, "springer_small", ds.Name)
	require.Equal(t, "windows-1252", ds.LegacyEncoding)
	require.Len(t, ds.ArchivesFor(ContentPlain), 2)
	require.Empty(t, ds.ArchivesFor(ContentAnnotated))
	require.Equal(t, 2, ds.Expected[ContentPlain].Matched)
	require.Equal(t, 1, ds.Expected[ContentPlain].Exclusive[LanguageEnglish])
}

func TestLoadConfigurationsMissingDir(t *testing.T) {
	_, err := LoadConfigurations(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestDefaultDatasets(t *testing.T) {
	datasets := DefaultDatasets()
	for _, ds := range datasets {
		require.NoError(t, ds.Validate())
	}
	muchmore, ok := FindDataset(datasets, MuchMoreDataset)
	require.True(t, ok)
	require.Len(t, muchmore.ArchivesFor(ContentAnnotated), 2)

	_, ok = FindDataset(datasets, "absent")
	require.False(t, ok)
}
