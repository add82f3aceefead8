package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/y2cl/ljextractor/internal/harvest"
)

// IndexRow is one line of the flat archive index: one per successfully
// archived post, appended in flush order.
type IndexRow struct {
	Title     string
	Published time.Time
	ChunkFile string
	PostID    string
}

var indexHeader = []string{"title", "published", "chunk_file", "post_id"}

// Index appends rows to the flat CSV index file. Rows are self-contained, so
// plain appends suffice; no atomic rename is needed.
type Index struct {
	path string
}

// NewIndex points at (without creating) the index file.
func NewIndex(path string) *Index {
	return &Index{path: path}
}

// Append writes rows to the end of the index, creating the file with a
// header row first if needed.
func (ix *Index) Append(rows []IndexRow) error {
	if len(rows) == 0 {
		return nil
	}
	f, err := os.OpenFile(ix.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: ix.path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: ix.path, Err: err}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(indexHeader); err != nil {
			return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: ix.path, Err: err}
		}
	}
	for _, row := range rows {
		record := []string{
			row.Title,
			row.Published.Format(timestampLayout),
			row.ChunkFile,
			row.PostID,
		}
		if err := w.Write(record); err != nil {
			return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: ix.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: ix.path, Err: err}
	}
	return nil
}

// Identifiers returns the post IDs already present in the index, used to
// seed the session's archived set on resume.
func (ix *Index) Identifiers() (map[string]bool, error) {
	f, err := os.Open(ix.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open index %s: %w", ix.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(indexHeader)
	ids := make(map[string]bool)
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read index %s: %w", ix.path, err)
		}
		if first {
			first = false
			if record[0] == indexHeader[0] {
				continue
			}
		}
		ids[record[len(record)-1]] = true
	}
	return ids, nil
}
