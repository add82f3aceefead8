package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/y2cl/ljextractor/internal/archive"
	"github.com/y2cl/ljextractor/internal/config"
	collyfetcher "github.com/y2cl/ljextractor/internal/fetcher/colly"
	"github.com/y2cl/ljextractor/internal/harvest"
	"github.com/y2cl/ljextractor/internal/parser"
	"github.com/y2cl/ljextractor/internal/policy/ratelimit"
	"github.com/y2cl/ljextractor/internal/session"
)

// harvestApp wires the pipeline: session state, fetcher chain, parser, and
// per-run archive writers.
type harvestApp struct {
	cfg     config.Config
	logger  *zap.Logger
	session *session.Store
	fetcher harvest.Fetcher
	parser  *parser.LJParser
	out     io.Writer
}

func newHarvestApp(cfg config.Config, logger *zap.Logger, out io.Writer) (*harvestApp, error) {
	sess, err := session.Load(cfg.Archive.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.BaseURL() == "" && cfg.Blog.BaseURL != "" {
		sess.SetBaseURL(cfg.Blog.BaseURL)
	}

	// The index survives even if the session file is lost; fold its
	// identifiers back into the archived set.
	ids, err := archive.NewIndex(cfg.Archive.IndexFile).Identifiers()
	if err != nil {
		logger.Warn("could not read archive index for resume seeding", zap.Error(err))
	} else {
		sess.Seed(ids)
	}

	limiter := ratelimit.New(ratelimit.Config{DefaultRPS: cfg.HTTP.RequestsPerSecond})
	policy := harvest.NewExponentialRetryPolicy(cfg.HTTP.MaxRetries, cfg.BackoffInitial(), cfg.BackoffMax())
	base := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
	})

	return &harvestApp{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		fetcher: harvest.NewRetryingFetcher(base, policy, limiter, logger),
		parser:  parser.New(logger),
		out:     out,
	}, nil
}

// newWriter builds a per-run archive writer whose flush hook durably marks
// session progress: a post is archived only once its chunk is on disk.
func (a *harvestApp) newWriter(log *zap.Logger) (*archive.Writer, error) {
	return archive.NewWriter(archive.Config{
		Dir:        a.cfg.Archive.Dir,
		IndexFile:  a.cfg.Archive.IndexFile,
		BlogURL:    a.session.BaseURL(),
		Creator:    a.cfg.Archive.Creator,
		ChunkLimit: a.cfg.Archive.ChunkPostLimit,
	}, log, func(rows []archive.IndexRow) error {
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.PostID)
		}
		a.session.MarkArchived(ids...)
		if err := a.session.Save(); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
		return nil
	})
}

// runHarvest executes one full pass: enumerate references, harvest them, and
// flush the archive. limit of zero means archive everything.
func (a *harvestApp) runHarvest(ctx context.Context, limit int) error {
	if a.session.BaseURL() == "" {
		return errors.New("no target blog URL configured")
	}
	log := a.logger.With(zap.String("run_id", uuid.NewString()))
	log.Info("harvest run starting",
		zap.String("blog", a.session.BaseURL()),
		zap.Int("limit", limit),
	)

	writer, err := a.newWriter(log)
	if err != nil {
		return err
	}

	walker := harvest.NewWalker(a.fetcher, a.parser, harvest.WalkerConfig{
		BaseURL:  a.session.BaseURL(),
		MaxPosts: limit,
	}, log, a.session.SetLastPage)

	refs, _, err := walker.Walk(ctx)
	if err != nil {
		log.Error("pagination walk failed", zap.Error(err))
		return fmt.Errorf("target blog unreachable (details in %s): %w", a.cfg.Logging.File, err)
	}

	return a.harvestRefs(ctx, log, writer, refs)
}

// runOne archives a single post given its URL or numeric identifier.
func (a *harvestApp) runOne(ctx context.Context, rawRef string) error {
	url := strings.TrimSpace(rawRef)
	if url == "" {
		return errors.New("empty post reference")
	}
	if isDigits(url) {
		if a.session.BaseURL() == "" {
			return errors.New("no target blog URL configured")
		}
		url = strings.TrimRight(a.session.BaseURL(), "/") + "/" + url + ".html"
	}
	log := a.logger.With(zap.String("run_id", uuid.NewString()))

	writer, err := a.newWriter(log)
	if err != nil {
		return err
	}
	ref := harvest.PostReference{ID: parser.PostIDFromURL(url), URL: url}
	return a.harvestRefs(ctx, log, writer, []harvest.PostReference{ref})
}

func (a *harvestApp) harvestRefs(ctx context.Context, log *zap.Logger, writer *archive.Writer, refs []harvest.PostReference) error {
	coord := harvest.NewCoordinator(a.fetcher, a.parser, a.session, harvest.CoordinatorConfig{
		Concurrency: a.cfg.Harvest.Concurrency,
	}, log)

	summary, runErr := coord.Run(ctx, refs, func(o harvest.Outcome) error {
		return writer.Archive(*o.Record)
	})

	var archErr *harvest.ArchiveError
	if errors.As(runErr, &archErr) {
		// Fatal for the run: drop the buffers rather than flush partial
		// state. Session already reflects only posts flushed earlier.
		writer.Discard()
		log.Error("archive failure, run aborted", zap.Error(runErr))
		a.printSummary(summary)
		return fmt.Errorf("archive failure (details in %s): %w", a.cfg.Logging.File, runErr)
	}

	// Clean completion or cancellation: flush whatever is fully harvested.
	if err := writer.Flush(); err != nil {
		writer.Discard()
		log.Error("final flush failed", zap.Error(err))
		a.printSummary(summary)
		return fmt.Errorf("archive failure (details in %s): %w", a.cfg.Logging.File, err)
	}
	if err := a.session.Save(); err != nil {
		log.Warn("session save failed", zap.Error(err))
	}

	a.printSummary(summary)
	if runErr != nil {
		log.Warn("run interrupted", zap.Error(runErr))
		return runErr
	}
	log.Info("run complete",
		zap.Int("attempted", summary.Attempted),
		zap.Int("archived", summary.Archived),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return nil
}

func (a *harvestApp) printSummary(s harvest.Summary) {
	fmt.Fprintf(a.out, "Run finished: attempted=%d archived=%d skipped=%d failed=%d\n",
		s.Attempted, s.Archived, s.Skipped, s.Failed)
	for _, url := range s.FailedURLs {
		fmt.Fprintf(a.out, "  failed: %s\n", url)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
