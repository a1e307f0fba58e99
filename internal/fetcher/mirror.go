package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gh "cmakesmoke/internal/github"
)

// MirrorEntry is the local materialization of one search hit.
type MirrorEntry struct {
	Repository string
	Ref        string
	Path       string
	RawURL     string
	Target     string
}

// MirrorStats counts what Mirror did with the hits it was given.
type MirrorStats struct {
	Hits    int
	Written int
	Skipped int
	// Pending counts targets a dry run would have written.
	Pending int
}

// Entry resolves a hit to its raw-content URL and local target path.
func (f *Fetcher) Entry(hit gh.CodeHit) (MirrorEntry, error) {
	repo := hit.RepositoryFullName()
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return MirrorEntry{}, fmt.Errorf("invalid repository full name %q", repo)
	}
	if hit.Path == "" {
		return MirrorEntry{}, fmt.Errorf("empty path in hit from %s", repo)
	}

	ref, err := hit.Ref()
	if err != nil {
		return MirrorEntry{}, fmt.Errorf("hit %s/%s: %w", repo, hit.Path, err)
	}

	local := filepath.FromSlash(hit.Path)
	if !filepath.IsLocal(owner) || !filepath.IsLocal(name) || !filepath.IsLocal(local) {
		return MirrorEntry{}, fmt.Errorf("hit %s/%s escapes the corpus root", repo, hit.Path)
	}

	rawURL, err := rawContentURL(f.opts.RawBaseURL, owner, name, ref, hit.Path)
	if err != nil {
		return MirrorEntry{}, fmt.Errorf("raw url for %s/%s: %w", repo, hit.Path, err)
	}

	return MirrorEntry{
		Repository: repo,
		Ref:        ref,
		Path:       hit.Path,
		RawURL:     rawURL,
		Target:     filepath.Join(f.opts.CorpusRoot, owner, name, local),
	}, nil
}

// Mirror writes each hit to the corpus in order. A hit whose target already
// exists is skipped without any network call, which makes repeated runs only
// download what is new. The first error stops the batch.
//
// Writes are not atomic: an interrupted run can leave a truncated file that
// later runs will treat as present.
func (f *Fetcher) Mirror(ctx context.Context, hits []gh.CodeHit) (MirrorStats, error) {
	var stats MirrorStats
	if ctx == nil {
		return stats, fmt.Errorf("Mirror: nil context")
	}

	for _, hit := range hits {
		stats.Hits++

		entry, err := f.Entry(hit)
		if err != nil {
			return stats, err
		}

		exists, err := fileExists(entry.Target)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			f.verbosef("skip %s (exists)", entry.Target)
			continue
		}

		if f.opts.DryRun {
			stats.Pending++
			_, _ = fmt.Fprintf(f.opts.Progress, "would write %s <- %s\n", entry.Target, entry.RawURL)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(entry.Target), 0o755); err != nil {
			return stats, fmt.Errorf("create directory for %s: %w", entry.Target, err)
		}
		body, err := f.download(ctx, entry.RawURL)
		if err != nil {
			return stats, err
		}
		if err := os.WriteFile(entry.Target, body, 0o644); err != nil {
			return stats, fmt.Errorf("write %s: %w", entry.Target, err)
		}
		stats.Written++
		f.verbosef("write %s (%d bytes)", entry.Target, len(body))
	}

	return stats, nil
}

// rawContentURL appends parts to base as literal text. Each "/"-separated
// segment is escaped on its own, so "%", " " and "#" in repository paths reach
// the server as data rather than as escapes or delimiters.
func rawContentURL(base string, parts ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", base)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSuffix(u.String(), "/"))
	for _, part := range parts {
		for _, seg := range strings.Split(part, "/") {
			b.WriteByte('/')
			b.WriteString(url.PathEscape(seg))
		}
	}
	return b.String(), nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: read body: %w", rawURL, err)
	}
	return body, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
