package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"provisionapi/pkg/logger"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
)

// Identity is the account a token authenticates as.
type Identity struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Repository describes one repository visible to a token.
type Repository struct {
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"defaultBranch"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RepositoryPage is one page of repository descriptors, most recently
// updated first.
type RepositoryPage struct {
	Repositories []Repository `json:"repositories"`
	HasMore      bool         `json:"hasMore"`
}

// FileChange is one file to commit on the pull request branch.
type FileChange struct {
	Path    string
	Content string
	Message string
}

// PullRequest references an opened pull request.
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Client talks to the source hosting REST API. Calls are single-shot
// request/response with no internal retry; the calling step decides whether
// a failure is terminal or retriable by the operator.
type Client interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	ListRepositories(ctx context.Context, token string, page, perPage int) (*RepositoryPage, error)
	RegisterDeployKey(ctx context.Context, token, owner, repo, title, publicKey string, readOnly bool) (int64, error)
	OpenPullRequest(ctx context.Context, token, owner, repo, branch, baseBranch, title, body string, changes []FileChange) (*PullRequest, error)
}

type githubClient struct {
	baseURL string // empty for api.github.com
	timeout time.Duration
}

// NewClient creates a hosting API client backed by GitHub. baseURL is
// normally empty; tests point it at a local server.
func NewClient(baseURL string, timeout time.Duration) Client {
	return &githubClient{
		baseURL: baseURL,
		timeout: timeout,
	}
}

func (g *githubClient) api(ctx context.Context, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = g.timeout

	client := github.NewClient(tc)
	if g.baseURL != "" {
		base := g.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		var err error
		client, err = client.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, fmt.Errorf("invalid hosting API base URL %q: %w", g.baseURL, err)
		}
	}
	return client, nil
}

// wrapAPIError normalizes go-github failures into HostingAPIError so the
// upstream status and message survive to the step history.
func wrapAPIError(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return &HostingAPIError{StatusCode: status, Message: ghErr.Message}
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &HostingAPIError{StatusCode: http.StatusForbidden, Message: rateErr.Message}
	}
	return err
}

func (g *githubClient) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	client, err := g.api(ctx, token)
	if err != nil {
		return nil, err
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		logger.Warnf("Token verification failed: %v", err)
		return nil, wrapAPIError(err)
	}
	return &Identity{Login: user.GetLogin(), Name: user.GetName()}, nil
}

func (g *githubClient) ListRepositories(ctx context.Context, token string, page, perPage int) (*RepositoryPage, error) {
	client, err := g.api(ctx, token)
	if err != nil {
		return nil, err
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	if page <= 0 {
		page = 1
	}

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}
	repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	result := &RepositoryPage{
		Repositories: make([]Repository, 0, len(repos)),
		HasMore:      resp.NextPage != 0,
	}
	for _, r := range repos {
		result.Repositories = append(result.Repositories, Repository{
			Name:          r.GetName(),
			FullName:      r.GetFullName(),
			Private:       r.GetPrivate(),
			DefaultBranch: r.GetDefaultBranch(),
			UpdatedAt:     r.GetUpdatedAt().Time,
		})
	}
	return result, nil
}

func (g *githubClient) RegisterDeployKey(ctx context.Context, token, owner, repo, title, publicKey string, readOnly bool) (int64, error) {
	client, err := g.api(ctx, token)
	if err != nil {
		return 0, err
	}

	// A key with the same title from an earlier run is replaced, so
	// re-running the step converges instead of failing on a duplicate.
	existing, _, err := client.Repositories.ListKeys(ctx, owner, repo, nil)
	if err != nil {
		return 0, wrapAPIError(err)
	}
	for _, key := range existing {
		if key.GetTitle() == title {
			logger.Infof("Replacing existing deploy key %q on %s/%s", title, owner, repo)
			if _, err := client.Repositories.DeleteKey(ctx, owner, repo, key.GetID()); err != nil {
				return 0, wrapAPIError(err)
			}
		}
	}

	created, _, err := client.Repositories.CreateKey(ctx, owner, repo, &github.Key{
		Title:    github.String(title),
		Key:      github.String(publicKey),
		ReadOnly: github.Bool(readOnly),
	})
	if err != nil {
		return 0, wrapAPIError(err)
	}
	logger.Infof("Registered deploy key %q on %s/%s (id %d)", title, owner, repo, created.GetID())
	return created.GetID(), nil
}

func (g *githubClient) OpenPullRequest(ctx context.Context, token, owner, repo, branch, baseBranch, title, body string, changes []FileChange) (*PullRequest, error) {
	client, err := g.api(ctx, token)
	if err != nil {
		return nil, err
	}

	baseRef, _, err := client.Git.GetRef(ctx, owner, repo, "refs/heads/"+baseBranch)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	}
	if _, _, err := client.Git.CreateRef(ctx, owner, repo, newRef); err != nil {
		return nil, wrapAPIError(err)
	}
	logger.Infof("Created branch %s from %s on %s/%s", branch, baseBranch, owner, repo)

	for _, change := range changes {
		opts := &github.RepositoryContentFileOptions{
			Message: github.String(change.Message),
			Content: []byte(change.Content),
			Branch:  github.String(branch),
		}
		if _, _, err := client.Repositories.CreateFile(ctx, owner, repo, change.Path, opts); err != nil {
			return nil, wrapAPIError(err)
		}
		logger.Debugf("Committed %s to %s/%s@%s", change.Path, owner, repo, branch)
	}

	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(branch),
		Base:  github.String(baseBranch),
		Body:  github.String(body),
	})
	if err != nil {
		return nil, wrapAPIError(err)
	}
	logger.Infof("Opened pull request #%d on %s/%s", pr.GetNumber(), owner, repo)
	return &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}
