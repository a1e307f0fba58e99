package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newSearchTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(context.Background(), "dummy-token", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestSearchCode_EncodesQueryAndDecodesPage(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	c := newSearchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"q":        r.URL.Query().Get("q"),
			"per_page": r.URL.Query().Get("per_page"),
			"page":     r.URL.Query().Get("page"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_count": 2,
			"incomplete_results": false,
			"items": [
				{"name": "CMakeLists.txt", "path": "CMakeLists.txt",
				 "url": "https://api.github.com/repositories/1/contents/CMakeLists.txt?ref=abc123",
				 "repository": {"full_name": "octo/one"}},
				{"name": "x.cmake", "path": "cmake/x.cmake",
				 "url": "https://api.github.com/repositories/2/contents/cmake/x.cmake?ref=main",
				 "repository": {"full_name": "octo/two"}}
			]
		}`))
	})

	page, resp, err := c.SearchCode(context.Background(), "language:cmake project", 3, 100)
	if err != nil {
		t.Fatalf("SearchCode: %v", err)
	}
	if resp == nil {
		t.Fatal("expected response")
	}
	if gotPath != "/search/code" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery["q"] != "language:cmake project" || gotQuery["per_page"] != "100" || gotQuery["page"] != "3" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
	if page.TotalCount != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if got := page.Items[1].RepositoryFullName(); got != "octo/two" {
		t.Fatalf("unexpected repository %q", got)
	}
	if got := page.Items[1].Path; got != "cmake/x.cmake" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestSearchCode_APIErrorPropagates(t *testing.T) {
	c := newSearchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
	})

	if _, _, err := c.SearchCode(context.Background(), "q", 11, 100); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchCode_MalformedBody(t *testing.T) {
	c := newSearchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_count": "many"`))
	})

	if _, _, err := c.SearchCode(context.Background(), "q", 1, 100); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSearchCode_NilClient(t *testing.T) {
	var c *Client
	if _, _, err := c.SearchCode(context.Background(), "q", 1, 100); err == nil {
		t.Fatal("expected error")
	}
}
