package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIndex_AppendAndIdentifiers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.csv")
	ix := NewIndex(path)

	ts := time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC)
	require.NoError(t, ix.Append([]IndexRow{
		{Title: "First", Published: ts, ChunkFile: "livejournal_export_2009_1.xml", PostID: "12345"},
	}))
	require.NoError(t, ix.Append([]IndexRow{
		{Title: "Second, with comma", Published: ts, ChunkFile: "livejournal_export_2009_1.xml", PostID: "12346"},
	}))

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(payload)
	require.Equal(t, 1, strings.Count(content, "title,published,chunk_file,post_id"))
	require.Contains(t, content, "2009-04-07 23:35:00")
	require.Contains(t, content, `"Second, with comma"`)

	ids, err := ix.Identifiers()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"12345": true, "12346": true}, ids)
}

func TestIndex_IdentifiersMissingFile(t *testing.T) {
	t.Parallel()

	ix := NewIndex(filepath.Join(t.TempDir(), "absent.csv"))
	ids, err := ix.Identifiers()
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestIndex_AppendNothingCreatesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.csv")
	require.NoError(t, NewIndex(path).Append(nil))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
