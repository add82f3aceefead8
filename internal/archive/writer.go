// Package archive serializes harvested posts into per-year WXR chunk files
// plus a flat CSV index, with atomic chunk flushes.
package archive

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/y2cl/ljextractor/internal/harvest"
)

// Config controls chunking and file placement.
type Config struct {
	Dir       string
	IndexFile string
	BlogURL   string
	Creator   string
	// ChunkLimit is the post-count ceiling per chunk; reaching it flushes
	// the chunk and opens a numbered continuation for the same year.
	ChunkLimit int
}

// FlushHook observes the index rows of each chunk as it reaches disk. The
// caller uses it to mark session state durably: a post counts as archived
// only once its chunk file exists under its final name.
type FlushHook func(rows []IndexRow) error

var chunkFileRe = regexp.MustCompile(`^livejournal_export_(\d{4})_(\d+)\.xml$`)

// Writer buckets records into in-memory year chunks and flushes them as
// complete documents via write-to-temp-then-rename, so no partial chunk is
// ever visible under its final name.
type Writer struct {
	cfg     Config
	logger  *zap.Logger
	index   *Index
	onFlush FlushHook
	chunks  map[int]*yearChunk
	nextSeq map[int]int
}

type yearChunk struct {
	year   int
	number int
	posts  []harvest.PostRecord
}

// NewWriter builds a Writer. Continuation numbering resumes from chunk files
// already present in the output directory.
func NewWriter(cfg Config, logger *zap.Logger, onFlush FlushHook) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkLimit <= 0 {
		cfg.ChunkLimit = 50
	}
	if cfg.Creator == "" {
		cfg.Creator = "ljextractor"
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: cfg.Dir, Err: err}
	}
	w := &Writer{
		cfg:     cfg,
		logger:  logger,
		index:   NewIndex(cfg.IndexFile),
		onFlush: onFlush,
		chunks:  make(map[int]*yearChunk),
		nextSeq: make(map[int]int),
	}
	if err := w.scanExistingChunks(); err != nil {
		return nil, err
	}
	return w, nil
}

// Index exposes the writer's index for resume seeding.
func (w *Writer) Index() *Index {
	return w.index
}

func (w *Writer) scanExistingChunks() error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: w.cfg.Dir, Err: err}
	}
	for _, entry := range entries {
		m := chunkFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		number, _ := strconv.Atoi(m[2])
		if number >= w.nextSeq[year] {
			w.nextSeq[year] = number + 1
		}
	}
	return nil
}

// Archive buckets rec into its year chunk, keeping the buffer sorted by
// publish timestamp (discovery order breaks ties), and flushes the chunk
// when it reaches the configured ceiling.
func (w *Writer) Archive(rec harvest.PostRecord) error {
	year := rec.Published.Year()
	ch, ok := w.chunks[year]
	if !ok {
		ch = &yearChunk{year: year, number: w.claimNumber(year)}
		w.chunks[year] = ch
	}
	ch.insert(rec)
	if len(ch.posts) >= w.cfg.ChunkLimit {
		return w.flushChunk(ch)
	}
	return nil
}

// Flush writes every open chunk to disk, oldest year first.
func (w *Writer) Flush() error {
	years := make([]int, 0, len(w.chunks))
	for year := range w.chunks {
		years = append(years, year)
	}
	sort.Ints(years)
	for _, year := range years {
		if err := w.flushChunk(w.chunks[year]); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops all buffered records without writing them. Used after a
// fatal archive error so no partially flushed state leaks.
func (w *Writer) Discard() {
	w.chunks = make(map[int]*yearChunk)
}

func (w *Writer) claimNumber(year int) int {
	n := w.nextSeq[year]
	if n == 0 {
		n = 1
	}
	w.nextSeq[year] = n + 1
	return n
}

func (w *Writer) flushChunk(ch *yearChunk) error {
	if ch == nil || len(ch.posts) == 0 {
		return nil
	}
	name := fmt.Sprintf("livejournal_export_%d_%d.xml", ch.year, ch.number)
	target := filepath.Join(w.cfg.Dir, name)

	doc := buildDoc(w.cfg.BlogURL, w.cfg.Creator, ch.posts)
	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &harvest.ArchiveError{Kind: harvest.ChunkCorruption, Path: target, Err: err}
	}
	payload = append([]byte(xml.Header), payload...)

	if err := writeAtomic(w.cfg.Dir, target, payload); err != nil {
		return err
	}

	rows := make([]IndexRow, 0, len(ch.posts))
	for _, post := range ch.posts {
		rows = append(rows, IndexRow{
			Title:     post.Title,
			Published: post.Published,
			ChunkFile: name,
			PostID:    post.ID,
		})
	}
	if err := w.index.Append(rows); err != nil {
		return err
	}

	delete(w.chunks, ch.year)
	w.logger.Info("chunk flushed",
		zap.String("file", name),
		zap.Int("posts", len(ch.posts)),
	)
	if w.onFlush != nil {
		if err := w.onFlush(rows); err != nil {
			return fmt.Errorf("flush hook: %w", err)
		}
	}
	return nil
}

// writeAtomic writes payload next to target and renames it into place.
func writeAtomic(dir, target string, payload []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: target, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: target, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: target, Err: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return &harvest.ArchiveError{Kind: harvest.WriteFailure, Path: target, Err: err}
	}
	return nil
}

// insert keeps posts ordered by publish timestamp ascending; ties fall back
// to discovery order. Insertion is stable to tolerate out-of-chronological
// arrival from the coordinator.
func (ch *yearChunk) insert(rec harvest.PostRecord) {
	i := sort.Search(len(ch.posts), func(i int) bool {
		p := ch.posts[i]
		if p.Published.Equal(rec.Published) {
			return p.Discovery > rec.Discovery
		}
		return p.Published.After(rec.Published)
	})
	ch.posts = append(ch.posts, harvest.PostRecord{})
	copy(ch.posts[i+1:], ch.posts[i:])
	ch.posts[i] = rec
}
