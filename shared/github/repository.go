package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"

	"github.com/dfryer1193/artblog/blog/domain"
)

var (
	_ domain.SourceRepository = (*GithubSourceRepository)(nil)
	_ domain.FileSource       = (*GithubSourceRepository)(nil)
)

// GithubSourceRepository reads repository history and reads and writes post files
// through the GitHub API.
type GithubSourceRepository struct {
	client  *github.Client
	owner   string
	gitRepo string
	branch  string
}

// NewGithubSourceRepository creates a new GithubSourceRepository. An empty branch
// means the repository's default branch.
func NewGithubSourceRepository(client *github.Client, owner string, gitRepo string, branch string) *GithubSourceRepository {
	return &GithubSourceRepository{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
		branch:  branch,
	}
}

// NewClient returns an API client authenticated with token. An empty token gives
// an anonymous client.
func NewClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

// WithToken returns a copy of the repository that acts with token's permissions.
func (g *GithubSourceRepository) WithToken(token string) *GithubSourceRepository {
	c := *g
	c.client = g.client.WithAuthToken(token)
	return &c
}

// GetCommitsSince fetches commits for a branch since a given time.
func (g *GithubSourceRepository) GetCommitsSince(ctx context.Context, branchName string, since time.Time) ([]*github.RepositoryCommit, error) {
	op := fmt.Sprintf("listing commits for branch %s", branchName)
	var all []*github.RepositoryCommit
	opts := &github.CommitsListOptions{
		SHA:         branchName,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		commits, resp, err := g.client.Repositories.ListCommits(ctx, g.owner, g.gitRepo, opts)
		if err != nil {
			return nil, handleGithubError(op, err)
		}
		all = append(all, commits...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetCommitsInRange fetches commits between baseCommit and headCommit (inclusive).
// This is useful for processing all commits in a push event.
func (g *GithubSourceRepository) GetCommitsInRange(ctx context.Context, baseCommit string, headCommit string) ([]*github.RepositoryCommit, error) {
	op := fmt.Sprintf("comparing commits %s...%s", baseCommit, headCommit)
	comparison, _, err := g.client.Repositories.CompareCommits(ctx, g.owner, g.gitRepo, baseCommit, headCommit, nil)
	if err != nil {
		return nil, handleGithubError(op, err)
	}
	return comparison.Commits, nil
}

// GetCommit fetches a single commit by its SHA.
func (g *GithubSourceRepository) GetCommit(ctx context.Context, sha string) (*github.RepositoryCommit, error) {
	op := fmt.Sprintf("getting commit %s", sha)
	commit, _, err := g.client.Repositories.GetCommit(ctx, g.owner, g.gitRepo, sha, nil)
	if err != nil {
		return nil, handleGithubError(op, err)
	}
	return commit, nil
}

// GetFileContents fetches the contents of a file at a specific ref (branch, tag, or commit SHA).
func (g *GithubSourceRepository) GetFileContents(ctx context.Context, filePath string, ref string) ([]byte, error) {
	f, err := g.getFile(ctx, filePath, ref)
	if err != nil {
		return nil, err
	}
	return f.Content, nil
}

// GetRepoFullName returns the repository's full name (e.g., "owner/repo").
func (g *GithubSourceRepository) GetRepoFullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.gitRepo)
}

// GetDefaultBranchName fetches the repository metadata and returns the name of the default branch.
func (g *GithubSourceRepository) GetDefaultBranchName(ctx context.Context) (string, error) {
	op := fmt.Sprintf("getting repository info for %s/%s", g.owner, g.gitRepo)
	repo, _, err := g.client.Repositories.Get(ctx, g.owner, g.gitRepo)
	if err != nil {
		return "", handleGithubError(op, err)
	}
	return repo.GetDefaultBranch(), nil
}

// ListDir lists a directory through the contents API.
func (g *GithubSourceRepository) ListDir(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	op := fmt.Sprintf("listing %s", dir)
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, dir, g.refOptions(""))
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	out := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.FileEntry{
			Name: e.GetName(),
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Dir:  e.GetType() == "dir",
		})
	}
	return out, nil
}

// GetFile reads a file on the configured branch.
func (g *GithubSourceRepository) GetFile(ctx context.Context, filePath string) (*domain.File, error) {
	return g.getFile(ctx, filePath, "")
}

func (g *GithubSourceRepository) getFile(ctx context.Context, filePath string, ref string) (*domain.File, error) {
	op := fmt.Sprintf("getting file %s", filePath)
	if ref != "" {
		op += " at ref " + ref
	}

	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, filePath, g.refOptions(ref))
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("github: %s returned no file content: %w", op, domain.ErrNotFound)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to decode content: %w", op, err)
	}

	return &domain.File{
		Path:    fileContent.GetPath(),
		SHA:     fileContent.GetSHA(),
		Content: []byte(content),
	}, nil
}

// PutFile creates the file when sha is empty and updates it otherwise.
func (g *GithubSourceRepository) PutFile(ctx context.Context, filePath string, content []byte, sha string, message string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
	}
	if g.branch != "" {
		opts.Branch = github.Ptr(g.branch)
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if sha == "" {
		resp, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.gitRepo, filePath, opts)
	} else {
		opts.SHA = github.Ptr(sha)
		resp, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.gitRepo, filePath, opts)
	}
	if err != nil {
		return "", handleGithubError(fmt.Sprintf("writing file %s", filePath), err)
	}

	return resp.GetContent().GetSHA(), nil
}

func (g *GithubSourceRepository) DeleteFile(ctx context.Context, filePath string, sha string, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		SHA:     github.Ptr(sha),
	}
	if g.branch != "" {
		opts.Branch = github.Ptr(g.branch)
	}

	_, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.gitRepo, filePath, opts)
	if err != nil {
		return handleGithubError(fmt.Sprintf("deleting file %s", filePath), err)
	}
	return nil
}

// Verify checks the client can see the repository, falling back to a listing of
// its root when repository metadata is not visible to the token.
func (g *GithubSourceRepository) Verify(ctx context.Context) error {
	_, _, err := g.client.Repositories.Get(ctx, g.owner, g.gitRepo)
	if err == nil {
		return nil
	}

	if _, lerr := g.ListDir(ctx, ""); lerr != nil {
		return handleGithubError(fmt.Sprintf("verifying access to %s", g.GetRepoFullName()), err)
	}
	return nil
}

func (g *GithubSourceRepository) refOptions(ref string) *github.RepositoryContentGetOptions {
	if ref == "" {
		ref = g.branch
	}
	if ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: ref}
}

// handleGithubError inspects an error from the go-github client and returns a more
// informative error. Missing resources match domain.ErrNotFound and rejected
// preconditions match domain.ErrConflict.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		status := errResp.Response.StatusCode
		switch status {
		case http.StatusNotFound:
			return fmt.Errorf("github: %s failed with status %d: %s: %w", op, status, errResp.Message, domain.ErrNotFound)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return fmt.Errorf("github: %s failed with status %d: %s: %w", op, status, errResp.Message, domain.ErrConflict)
		}
		return fmt.Errorf("github: %s failed with status %d: %s", op, status, errResp.Message)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}
