package harvest

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// CoordinatorConfig is the immutable configuration for one harvest pass.
type CoordinatorConfig struct {
	Concurrency int
}

// Summary totals one harvest pass. FailedURLs lists the source URL of every
// reference that could not be harvested.
type Summary struct {
	Attempted  int
	Archived   int
	Skipped    int
	Failed     int
	FailedURLs []string
}

// Coordinator fans references out to a bounded worker pool and re-emits the
// results in discovery order. Workers only fetch and parse; all shared
// mutable state (session set, archive buffers) is touched solely by the
// consuming goroutine.
type Coordinator struct {
	fetcher  Fetcher
	parser   Parser
	archived ArchivedSet
	cfg      CoordinatorConfig
	logger   *zap.Logger
}

// NewCoordinator builds a Coordinator. archived may be nil when no prior
// progress exists.
func NewCoordinator(fetcher Fetcher, parser Parser, archived ArchivedSet, cfg CoordinatorConfig, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Coordinator{
		fetcher:  fetcher,
		parser:   parser,
		archived: archived,
		cfg:      cfg,
		logger:   logger,
	}
}

type dispatchedRef struct {
	seq int
	ref PostReference
}

type completedRef struct {
	seq     int
	outcome Outcome
}

// Run harvests refs and delivers successful outcomes to consume, in
// discovery order, on the calling goroutine. References already present in
// the archived set are skipped. A per-reference fetch or parse failure is
// counted and logged without cancelling sibling work. A non-nil error from
// consume (an archive failure) cancels outstanding work and is returned;
// in-flight fetches finish or time out first.
func (c *Coordinator) Run(ctx context.Context, refs []PostReference, consume func(Outcome) error) (Summary, error) {
	summary := Summary{Attempted: len(refs)}

	work := make([]PostReference, 0, len(refs))
	for _, ref := range refs {
		if c.archived != nil && c.archived.IsArchived(ref.ID) {
			summary.Skipped++
			c.logger.Debug("post already archived, skipping",
				zap.String("post_id", ref.ID),
				zap.String("url", ref.URL),
			)
			continue
		}
		work = append(work, ref)
	}
	if len(work) == 0 {
		return summary, ctx.Err()
	}

	workers := c.cfg.Concurrency
	if workers > len(work) {
		workers = len(work)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan dispatchedRef)
	results := make(chan completedRef, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- completedRef{
					seq:     job.seq,
					outcome: c.harvestOne(workerCtx, job.ref),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, ref := range work {
			select {
			case jobs <- dispatchedRef{seq: i, ref: ref}:
			case <-workerCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	buf := newReorderBuffer(workers)
	var consumeErr error
	for done := range results {
		if consumeErr != nil {
			continue // drain remaining workers after a fatal archive error
		}
		for _, out := range buf.Add(done.seq, done.outcome) {
			if out.Err != nil {
				summary.Failed++
				summary.FailedURLs = append(summary.FailedURLs, out.Ref.URL)
				c.logger.Warn("post skipped",
					zap.String("post_id", out.Ref.ID),
					zap.String("url", out.Ref.URL),
					zap.Error(out.Err),
				)
				continue
			}
			if err := consume(out); err != nil {
				consumeErr = err
				cancel()
				continue
			}
			summary.Archived++
		}
	}

	c.logger.Info("harvest pass complete",
		zap.Int("attempted", summary.Attempted),
		zap.Int("archived", summary.Archived),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Strings("failed_urls", summary.FailedURLs),
	)

	if consumeErr != nil {
		return summary, consumeErr
	}
	return summary, ctx.Err()
}

func (c *Coordinator) harvestOne(ctx context.Context, ref PostReference) Outcome {
	markup, err := c.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return Outcome{Ref: ref, Err: &HarvestError{Ref: ref, Err: err}}
	}
	record, err := c.parser.ParsePost(markup, ref.URL)
	if err != nil {
		return Outcome{Ref: ref, Err: &HarvestError{Ref: ref, Err: err}}
	}
	if record.ID == "" {
		record.ID = ref.ID
	}
	record.Discovery = ref.Discovery
	return Outcome{Ref: ref, Record: record}
}
