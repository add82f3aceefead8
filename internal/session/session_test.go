package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")

	s, err := Load(path)
	require.NoError(t, err)
	s.SetBaseURL("https://someone.livejournal.com/")
	s.SetLastPage("https://someone.livejournal.com/?skip=40")
	s.MarkArchived("12345", "12346", "")
	require.NoError(t, s.Save())

	restored, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://someone.livejournal.com/", restored.BaseURL())
	require.True(t, restored.IsArchived("12345"))
	require.True(t, restored.IsArchived("12346"))
	require.False(t, restored.IsArchived("99999"))
	require.Equal(t, 2, restored.ArchivedCount())
}

func TestLoad_MissingFileIsEmptySession(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Empty(t, s.BaseURL())
	require.Zero(t, s.ArchivedCount())
}

func TestLoad_CorruptFileFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSetBaseURL_ChangeResetsProgress(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	s.SetBaseURL("https://someone.livejournal.com/")
	s.SetLastPage("https://someone.livejournal.com/?skip=20")
	s.MarkArchived("12345")

	// same URL keeps progress
	s.SetBaseURL("https://someone.livejournal.com/")
	require.True(t, s.IsArchived("12345"))

	// post IDs are only unique per blog
	s.SetBaseURL("https://other.livejournal.com/")
	require.False(t, s.IsArchived("12345"))
	require.Zero(t, s.ArchivedCount())
}

func TestSeed_MergesIndexIdentifiers(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	s.MarkArchived("1")
	s.Seed(map[string]bool{"2": true, "3": false})

	require.True(t, s.IsArchived("1"))
	require.True(t, s.IsArchived("2"))
	require.False(t, s.IsArchived("3"))
}
