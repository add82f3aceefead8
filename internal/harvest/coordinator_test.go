package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// delayFetcher staggers completion so fast posts finish before slow ones and
// the reorder buffer actually has work to do.
type delayFetcher struct {
	delays map[string]time.Duration
	fail   map[string]error
}

func (f *delayFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	d := f.delays[url]
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return []byte(url), nil
}

type memArchivedSet map[string]bool

func (s memArchivedSet) IsArchived(id string) bool { return s[id] }

func makeRefs(n int) []PostReference {
	refs := make([]PostReference, n)
	for i := range refs {
		refs[i] = PostReference{
			ID:        fmt.Sprintf("%d", 100+i),
			URL:       fmt.Sprintf("https://blog.example/%d.html", 100+i),
			Discovery: i,
		}
	}
	return refs
}

func TestCoordinator_DeliversInDiscoveryOrder(t *testing.T) {
	t.Parallel()

	refs := makeRefs(6)
	fetcher := &delayFetcher{delays: map[string]time.Duration{
		refs[0].URL: 40 * time.Millisecond,
		refs[1].URL: 5 * time.Millisecond,
		refs[2].URL: 30 * time.Millisecond,
		refs[3].URL: 1 * time.Millisecond,
	}}
	c := NewCoordinator(fetcher, &mapParser{}, nil, CoordinatorConfig{Concurrency: 4}, zap.NewNop())

	var order []int
	summary, err := c.Run(context.Background(), refs, func(o Outcome) error {
		order = append(order, o.Record.Discovery)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
	require.Equal(t, 6, summary.Archived)
	require.Zero(t, summary.Failed)
}

func TestCoordinator_FailureDoesNotCancelSiblings(t *testing.T) {
	t.Parallel()

	refs := makeRefs(10)
	fetcher := &delayFetcher{fail: map[string]error{
		refs[5].URL: &FetchError{Kind: FetchNotFound, URL: refs[5].URL, Status: 404},
	}}
	c := NewCoordinator(fetcher, &mapParser{}, nil, CoordinatorConfig{Concurrency: 3}, zap.NewNop())

	var order []int
	summary, err := c.Run(context.Background(), refs, func(o Outcome) error {
		order = append(order, o.Record.Discovery)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4, 6, 7, 8, 9}, order)
	require.Equal(t, 10, summary.Attempted)
	require.Equal(t, 9, summary.Archived)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, []string{refs[5].URL}, summary.FailedURLs)
}

func TestCoordinator_SkipsAlreadyArchived(t *testing.T) {
	t.Parallel()

	refs := makeRefs(4)
	archived := memArchivedSet{refs[0].ID: true, refs[2].ID: true}
	c := NewCoordinator(&delayFetcher{}, &mapParser{}, archived, CoordinatorConfig{Concurrency: 2}, zap.NewNop())

	var order []int
	summary, err := c.Run(context.Background(), refs, func(o Outcome) error {
		order = append(order, o.Record.Discovery)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, order)
	require.Equal(t, 2, summary.Skipped)
	require.Equal(t, 2, summary.Archived)
}

func TestCoordinator_ArchiveFailureCancelsRun(t *testing.T) {
	t.Parallel()

	refs := makeRefs(8)
	archiveErr := &ArchiveError{Kind: WriteFailure, Path: "archive/x.xml", Err: errors.New("disk full")}
	c := NewCoordinator(&delayFetcher{}, &mapParser{}, nil, CoordinatorConfig{Concurrency: 2}, zap.NewNop())

	consumed := 0
	_, err := c.Run(context.Background(), refs, func(Outcome) error {
		consumed++
		if consumed == 2 {
			return archiveErr
		}
		return nil
	})
	require.ErrorIs(t, err, archiveErr)
	require.Equal(t, 2, consumed)
}

func TestCoordinator_ParseFailureWrapsHarvestError(t *testing.T) {
	t.Parallel()

	refs := makeRefs(1)
	parseErr := &ParseError{Kind: MalformedPost, URL: refs[0].URL}
	parser := &mapParser{postErr: map[string]error{refs[0].URL: parseErr}}
	c := NewCoordinator(&delayFetcher{}, parser, nil, CoordinatorConfig{Concurrency: 1}, zap.NewNop())

	summary, err := c.Run(context.Background(), refs, func(Outcome) error {
		t.Fatal("consume called for a failed post")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Zero(t, summary.Archived)
}
