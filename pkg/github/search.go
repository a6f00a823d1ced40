package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SearchResult is one code search hit.
type SearchResult struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Repo    string `json:"repo"`
	HTMLURL string `json:"html_url"`
}

// SearchCode searches code within a repository.
func (c *Client) SearchCode(ctx context.Context, repo, query string, limit int) ([]SearchResult, error) {
	repo = c.qualifyRepo(repo)
	if limit <= 0 {
		limit = 10
	}

	q := url.QueryEscape(fmt.Sprintf("%s repo:%s", query, repo))
	endpoint := fmt.Sprintf("/search/code?q=%s&per_page=%d", q, limit)

	var raw struct {
		Items []struct {
			Name       string `json:"name"`
			Path       string `json:"path"`
			HTMLURL    string `json:"html_url"`
			Repository struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
		} `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(raw.Items))
	for _, item := range raw.Items {
		results = append(results, SearchResult{
			Name:    item.Name,
			Path:    item.Path,
			Repo:    item.Repository.FullName,
			HTMLURL: item.HTMLURL,
		})
	}
	return results, nil
}
