package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v81/github"
	"github.com/google/go-querystring/query"
)

// CodeSearchPage is one page of a /search/code response. TotalCount is the
// match count across all pages as reported by the API.
type CodeSearchPage struct {
	TotalCount        int       `json:"total_count"`
	IncompleteResults bool      `json:"incomplete_results"`
	Items             []CodeHit `json:"items"`
}

// CodeHit is a single search result. URL is the contents API URL of the file;
// its query string carries the ref the hit was indexed at.
type CodeHit struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	URL        string        `json:"url"`
	HTMLURL    string        `json:"html_url,omitempty"`
	Repository HitRepository `json:"repository"`
}

type HitRepository struct {
	FullName string `json:"full_name"`
}

// RepositoryFullName returns OWNER/NAME.
func (h CodeHit) RepositoryFullName() string {
	return h.Repository.FullName
}

type searchCodeParams struct {
	Q       string `url:"q"`
	PerPage int    `url:"per_page,omitempty"`
	Page    int    `url:"page,omitempty"`
}

// SearchCode issues a single /search/code request. The raw response is returned
// so callers can account for the search rate limit.
//
// The request is built by hand instead of going through Search.Code because the
// typed CodeResult drops the contents "url" field that carries the ref.
func (c *Client) SearchCode(ctx context.Context, q string, page, perPage int) (*CodeSearchPage, *github.Response, error) {
	if ctx == nil {
		return nil, nil, fmt.Errorf("search code: ctx is nil")
	}
	if c == nil || c.Client == nil {
		return nil, nil, fmt.Errorf("search code: nil GitHub client (use NewClient)")
	}

	params, err := query.Values(searchCodeParams{Q: q, PerPage: perPage, Page: page})
	if err != nil {
		return nil, nil, fmt.Errorf("search code: encode params: %w", err)
	}

	req, err := c.Client.NewRequest(http.MethodGet, "search/code?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("search code: build request: %w", err)
	}

	var out CodeSearchPage
	resp, err := c.Client.Do(ctx, req, &out)
	if err != nil {
		return nil, resp, fmt.Errorf("search code page %d: %w", page, err)
	}
	return &out, resp, nil
}
