package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// RepoInfo is the subset of repository metadata the bot reports.
type RepoInfo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
	Private       bool   `json:"private"`
}

// GetRepoInfo returns repository metadata.
func (c *Client) GetRepoInfo(ctx context.Context, repo string) (*RepoInfo, error) {
	repo = c.qualifyRepo(repo)
	var info RepoInfo
	if err := c.do(ctx, http.MethodGet, "/repos/"+repo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CommitInfo is one commit in a history listing.
type CommitInfo struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

// GetCommits returns up to limit recent commits on a branch.
func (c *Client) GetCommits(ctx context.Context, repo, branch string, limit int) ([]CommitInfo, error) {
	repo = c.qualifyRepo(repo)
	if limit <= 0 {
		limit = 10
	}
	endpoint := fmt.Sprintf("/repos/%s/commits?per_page=%d", repo, limit)
	if branch != "" {
		endpoint += "&sha=" + url.QueryEscape(branch)
	}

	var raw []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string `json:"name"`
				Date string `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	commits := make([]CommitInfo, 0, len(raw))
	for _, item := range raw {
		sha := item.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		message := item.Commit.Message
		for i, r := range message {
			if r == '\n' {
				message = message[:i]
				break
			}
		}
		commits = append(commits, CommitInfo{
			SHA:     sha,
			Message: message,
			Author:  item.Commit.Author.Name,
			Date:    item.Commit.Author.Date,
		})
	}
	return commits, nil
}

// BranchResult identifies a created branch.
type BranchResult struct {
	Branch string `json:"branch"`
	SHA    string `json:"sha"`
}

// CreateBranch creates a branch from fromBranch (default branch when empty).
func (c *Client) CreateBranch(ctx context.Context, repo, branchName, fromBranch string) (*BranchResult, error) {
	repo = c.qualifyRepo(repo)

	if fromBranch == "" {
		info, err := c.GetRepoInfo(ctx, repo)
		if err != nil {
			return nil, err
		}
		fromBranch = info.DefaultBranch
	}

	var source struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/branches/%s", repo, fromBranch), nil, &source); err != nil {
		return nil, err
	}

	body := map[string]any{
		"ref": "refs/heads/" + branchName,
		"sha": source.Commit.SHA,
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/git/refs", repo), body, nil); err != nil {
		return nil, err
	}
	return &BranchResult{Branch: branchName, SHA: source.Commit.SHA}, nil
}

// PullRequest identifies a created pull request.
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
}

// CreatePullRequest opens a PR from head into base (default branch when empty).
func (c *Client) CreatePullRequest(ctx context.Context, repo, title, body, head, base string) (*PullRequest, error) {
	repo = c.qualifyRepo(repo)

	if base == "" {
		info, err := c.GetRepoInfo(ctx, repo)
		if err != nil {
			return nil, err
		}
		base = info.DefaultBranch
	}

	payload := map[string]any{
		"title": title,
		"body":  body,
		"head":  head,
		"base":  base,
	}
	var pr PullRequest
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/pulls", repo), payload, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}
