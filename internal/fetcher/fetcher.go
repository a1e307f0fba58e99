// Package fetcher mirrors files found by GitHub code search into a local
// corpus tree laid out as <root>/<owner>/<repo>/<path>.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	gh "cmakesmoke/internal/github"

	"github.com/google/go-github/v81/github"
)

const (
	// DefaultQuery matches CMake files that declare a project.
	DefaultQuery = "language:cmake project"

	// PageSize is the per_page value of every search request; pagination
	// arithmetic in Sync depends on it.
	PageSize = 100

	DefaultRawBaseURL = "https://raw.githubusercontent.com"
)

// Searcher runs one code search request. *github.Client from
// cmakesmoke/internal/github satisfies it.
type Searcher interface {
	SearchCode(ctx context.Context, q string, page, perPage int) (*gh.CodeSearchPage, *github.Response, error)
}

// Options configures what a Fetcher searches for and where it mirrors hits.
type Options struct {
	Query      string
	CorpusRoot string
	RawBaseURL string

	// MaxPages stops the sync after this many pages; 0 means no cap.
	MaxPages int

	// DryRun reports targets that would be written without downloading them.
	DryRun bool

	// Progress receives one "<seen> / <total>" line per page.
	Progress io.Writer

	// Verbose receives per-hit diagnostics. Nil disables them.
	Verbose io.Writer
}

// Fetcher pages through code search results and mirrors each hit to disk.
type Fetcher struct {
	search Searcher
	http   *http.Client
	budget *RequestBudget
	opts   Options
}

// SyncStats summarizes one Sync run.
type SyncStats struct {
	Pages      int
	TotalCount int
	MirrorStats
}

// pageCursor is the pagination state of one Sync run.
type pageCursor struct {
	page      int
	remaining int
}

// NewFetcher returns a Fetcher with defaults applied to empty options.
// A nil budget disables rate pacing; a nil httpClient uses http.DefaultClient.
func NewFetcher(search Searcher, httpClient *http.Client, budget *RequestBudget, opts Options) *Fetcher {
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = DefaultRawBaseURL
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		search: search,
		http:   httpClient,
		budget: budget,
		opts:   opts,
	}
}

// FetchPage requests one page of search results. page is 1-based. No retry is
// attempted; any API or decode error is returned as is.
func (f *Fetcher) FetchPage(ctx context.Context, page int) (*gh.CodeSearchPage, error) {
	if ctx == nil {
		return nil, fmt.Errorf("FetchPage: nil context")
	}
	if f == nil || f.search == nil {
		return nil, fmt.Errorf("FetchPage: nil searcher (use NewFetcher)")
	}
	if page < 1 {
		return nil, fmt.Errorf("FetchPage: page must be >= 1 (got %d)", page)
	}

	if f.budget != nil {
		waited, err := f.budget.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("wait for search rate limit: %w", err)
		}
		if waited > 0 {
			f.verbosef("rate limited, waited %s before page %d", waited, page)
		}
	}

	result, resp, err := f.search.SearchCode(ctx, f.opts.Query, page, PageSize)
	if resp != nil && f.budget != nil {
		f.budget.UpdateFromResponse(resp.Response)
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("search code page %d: empty response", page)
	}

	seen := (page-1)*PageSize + len(result.Items)
	_, _ = fmt.Fprintf(f.opts.Progress, "%d / %d\n", seen, result.TotalCount)
	return result, nil
}

// Sync walks every result page and mirrors each page's hits before fetching
// the next. The number of pages is derived from the first page's total count,
// not from the items actually returned, so a short final page does not stop
// the loop early and an empty page does not either.
func (f *Fetcher) Sync(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	first, err := f.FetchPage(ctx, 1)
	if err != nil {
		return stats, err
	}
	stats.Pages = 1
	stats.TotalCount = first.TotalCount
	if err := f.mirrorInto(ctx, &stats, first.Items); err != nil {
		return stats, err
	}

	cur := pageCursor{page: 2, remaining: first.TotalCount - PageSize}
	for cur.remaining > 0 {
		if f.opts.MaxPages > 0 && stats.Pages >= f.opts.MaxPages {
			f.verbosef("stopping after %d pages (max pages reached)", stats.Pages)
			break
		}
		page, err := f.FetchPage(ctx, cur.page)
		if err != nil {
			return stats, err
		}
		stats.Pages++
		if err := f.mirrorInto(ctx, &stats, page.Items); err != nil {
			return stats, err
		}
		cur.page++
		cur.remaining -= PageSize
	}

	return stats, nil
}

func (f *Fetcher) mirrorInto(ctx context.Context, stats *SyncStats, hits []gh.CodeHit) error {
	ms, err := f.Mirror(ctx, hits)
	stats.Hits += ms.Hits
	stats.Written += ms.Written
	stats.Skipped += ms.Skipped
	stats.Pending += ms.Pending
	return err
}

func (f *Fetcher) verbosef(format string, args ...any) {
	if f.opts.Verbose == nil {
		return
	}
	_, _ = fmt.Fprintf(f.opts.Verbose, "[verbose] "+format+"\n", args...)
}
