package github

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMissingRef reports a search hit whose URL has no usable ref parameter.
var ErrMissingRef = errors.New("missing ref query parameter")

// QueryParam returns the decoded value of the named query parameter in rawURL,
// or "" when the parameter is absent.
func QueryParam(rawURL, name string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", fmt.Errorf("parse query of %q: %w", rawURL, err)
	}
	return values.Get(name), nil
}

// Ref extracts the ref (branch, tag or commit) the hit was indexed at.
func (h CodeHit) Ref() (string, error) {
	ref, err := QueryParam(h.URL, "ref")
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", fmt.Errorf("%w in %q", ErrMissingRef, h.URL)
	}
	return ref, nil
}
