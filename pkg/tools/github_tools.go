package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"phoenix/pkg/github"
)

// ReadGitHubFileTool reads a file from a repository.
type ReadGitHubFileTool struct {
	client *github.Client
}

// NewReadGitHubFileTool creates the read_github_file tool.
func NewReadGitHubFileTool(client *github.Client) *ReadGitHubFileTool {
	return &ReadGitHubFileTool{client: client}
}

// Definition implements Tool.
func (t *ReadGitHubFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "read_github_file",
		Description: "Read a file from a GitHub repository. Use this when user wants to see/view code.",
		InputSchema: objectSchema([]string{"repo", "path"}, map[string]Property{
			"repo": {Type: "string", Description: "Repository name (e.g., 'omni-agent')"},
			"path": {Type: "string", Description: "File path (e.g., 'utils/video_composer.py')"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *ReadGitHubFileTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *ReadGitHubFileTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	repo, err := StringArg(args, "repo")
	if err != nil {
		return "", err
	}
	path, err := StringArg(args, "path")
	if err != nil {
		return "", err
	}

	content, err := t.client.GetFileContent(ctx, repo, path, OptionalStringArg(args, "branch", ""))
	if err != nil {
		var notFound *github.NotFoundError
		if errors.As(err, &notFound) {
			return fmt.Sprintf("File not found: %s in %s", path, repo), nil
		}
		return "", err
	}
	return fmt.Sprintf("Contents of %s/%s:\n\n%s", repo, path, content), nil
}

// EditGitHubFileTool performs a find-and-replace edit and commits the result.
// Gated: selecting it produces a pending approval instead of executing.
type EditGitHubFileTool struct {
	client *github.Client
}

// NewEditGitHubFileTool creates the edit_github_file tool.
func NewEditGitHubFileTool(client *github.Client) *EditGitHubFileTool {
	return &EditGitHubFileTool{client: client}
}

// Definition implements Tool.
func (t *EditGitHubFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "edit_github_file",
		Description: "Edit a file in GitHub. REQUIRES USER APPROVAL. Use when user wants to change/update/modify code.",
		InputSchema: objectSchema(
			[]string{"repo", "path", "find_text", "replace_text", "commit_message"},
			map[string]Property{
				"repo":           {Type: "string", Description: "Repository name"},
				"path":           {Type: "string", Description: "File path to edit"},
				"find_text":      {Type: "string", Description: "Text to find and replace"},
				"replace_text":   {Type: "string", Description: "New text to replace with"},
				"commit_message": {Type: "string", Description: "Commit message describing the change"},
			}),
	}
}

// RequiresApproval implements Tool.
func (t *EditGitHubFileTool) RequiresApproval() bool { return true }

// Exec implements Tool. Runs only after the approval gate resolves approve.
func (t *EditGitHubFileTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	repo, err := StringArg(args, "repo")
	if err != nil {
		return "", err
	}
	path, err := StringArg(args, "path")
	if err != nil {
		return "", err
	}
	findText, err := StringArg(args, "find_text")
	if err != nil {
		return "", err
	}
	replaceText, err := StringArg(args, "replace_text")
	if err != nil {
		return "", err
	}
	commitMessage, err := StringArg(args, "commit_message")
	if err != nil {
		return "", err
	}
	branch := OptionalStringArg(args, "branch", "")

	current, err := t.client.GetFileContent(ctx, repo, path, branch)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	if !strings.Contains(current, findText) {
		snippet := findText
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return "Could not find text to replace:\n```\n" + snippet + "\n```", nil
	}

	updated := strings.Replace(current, findText, replaceText, 1)
	result, err := t.client.WriteFile(ctx, repo, path, updated, commitMessage, branch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FILE UPDATED\n\nRepo: %s\nFile: %s\nCommit: %s (%s)\n\nRailway will auto-deploy in ~2 minutes.",
		repo, path, commitMessage, result.SHA), nil
}

// WriteGitHubFileTool writes full file content, creating or overwriting.
// Gated like edit_github_file.
type WriteGitHubFileTool struct {
	client *github.Client
}

// NewWriteGitHubFileTool creates the write_github_file tool.
func NewWriteGitHubFileTool(client *github.Client) *WriteGitHubFileTool {
	return &WriteGitHubFileTool{client: client}
}

// Definition implements Tool.
func (t *WriteGitHubFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "write_github_file",
		Description: "Create or overwrite a file in GitHub with new content. REQUIRES USER APPROVAL.",
		InputSchema: objectSchema(
			[]string{"repo", "path", "content", "commit_message"},
			map[string]Property{
				"repo":           {Type: "string", Description: "Repository name"},
				"path":           {Type: "string", Description: "File path to write"},
				"content":        {Type: "string", Description: "Full new file content"},
				"commit_message": {Type: "string", Description: "Commit message describing the change"},
				"branch":         {Type: "string", Description: "Branch to commit to (default branch when omitted)"},
			}),
	}
}

// RequiresApproval implements Tool.
func (t *WriteGitHubFileTool) RequiresApproval() bool { return true }

// Exec implements Tool. Runs only after the approval gate resolves approve.
func (t *WriteGitHubFileTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	repo, err := StringArg(args, "repo")
	if err != nil {
		return "", err
	}
	path, err := StringArg(args, "path")
	if err != nil {
		return "", err
	}
	content, err := StringArg(args, "content")
	if err != nil {
		return "", err
	}
	commitMessage, err := StringArg(args, "commit_message")
	if err != nil {
		return "", err
	}

	result, err := t.client.WriteFile(ctx, repo, path, content, commitMessage, OptionalStringArg(args, "branch", ""))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FILE WRITTEN\n\nRepo: %s\nFile: %s\nCommit: %s (%s)", repo, path, commitMessage, result.SHA), nil
}

// ListGitHubFilesTool lists a repository directory.
type ListGitHubFilesTool struct {
	client *github.Client
}

// NewListGitHubFilesTool creates the list_github_files tool.
func NewListGitHubFilesTool(client *github.Client) *ListGitHubFilesTool {
	return &ListGitHubFilesTool{client: client}
}

// Definition implements Tool.
func (t *ListGitHubFilesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "list_github_files",
		Description: "List files in a GitHub repository directory",
		InputSchema: objectSchema([]string{"repo"}, map[string]Property{
			"repo": {Type: "string", Description: "Repository name"},
			"path": {Type: "string", Description: "Directory path (default: root)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *ListGitHubFilesTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *ListGitHubFilesTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	repo, err := StringArg(args, "repo")
	if err != nil {
		return "", err
	}
	path := OptionalStringArg(args, "path", "")

	entries, err := t.client.ListFiles(ctx, repo, path, "")
	if err != nil {
		return "", err
	}

	location := path
	if location == "" {
		location = "root"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Files in %s/%s:\n", repo, location)
	for _, entry := range entries {
		marker := "f"
		if entry.Type == "dir" {
			marker = "d"
		}
		fmt.Fprintf(&b, "[%s] %s\n", marker, entry.Name)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// SearchGitHubCodeTool searches code within a repository.
type SearchGitHubCodeTool struct {
	client *github.Client
}

// NewSearchGitHubCodeTool creates the search_github_code tool.
func NewSearchGitHubCodeTool(client *github.Client) *SearchGitHubCodeTool {
	return &SearchGitHubCodeTool{client: client}
}

// Definition implements Tool.
func (t *SearchGitHubCodeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "search_github_code",
		Description: "Search for text/code in a repository",
		InputSchema: objectSchema([]string{"repo", "query"}, map[string]Property{
			"repo":  {Type: "string", Description: "Repository name"},
			"query": {Type: "string", Description: "Search query"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *SearchGitHubCodeTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *SearchGitHubCodeTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	repo, err := StringArg(args, "repo")
	if err != nil {
		return "", err
	}
	query, err := StringArg(args, "query")
	if err != nil {
		return "", err
	}

	results, err := t.client.SearchCode(ctx, repo, query, 10)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No matches for %q in %s", query, repo), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches for %q:\n", len(results), query)
	for _, result := range results {
		fmt.Fprintf(&b, "- %s\n", result.Path)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
