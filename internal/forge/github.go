package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-github/v69/github"

	"pagesdeck/internal/model"
)

type gitHub struct {
	t           *Transport
	affiliation string
}

// NewGitHub returns a Forge backed by the GitHub REST API. affiliation is
// passed to GET /user/repos when non-empty.
func NewGitHub(t *Transport, affiliation string) Forge {
	return &gitHub{t: t, affiliation: affiliation}
}

func (g *gitHub) Kind() string { return "github" }

func (g *gitHub) CurrentUser(ctx context.Context) (string, error) {
	var user github.User
	if err := g.t.Call(ctx, http.MethodGet, "user", nil, &user); err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

func (g *gitHub) ListReposPage(ctx context.Context, page, perPage int) ([]model.Repo, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", "updated")
	if g.affiliation != "" {
		q.Set("affiliation", g.affiliation)
	}

	var repos []*github.Repository
	if err := g.t.Call(ctx, http.MethodGet, "user/repos?"+q.Encode(), nil, &repos); err != nil {
		return nil, err
	}
	out := make([]model.Repo, 0, len(repos))
	for _, r := range repos {
		out = append(out, toRepo(r))
	}
	return out, nil
}

func (g *gitHub) FetchPages(ctx context.Context, repo model.Repo) (*model.Pages, error) {
	var pages github.Pages
	if err := g.t.Call(ctx, http.MethodGet, pagesPath(repo), nil, &pages); err != nil {
		return nil, err
	}
	return toPages(&pages), nil
}

func (g *gitHub) CreatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error {
	return g.t.Call(ctx, http.MethodPost, pagesPath(repo), newPagesRequest(cfg), nil)
}

func (g *gitHub) UpdatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error {
	return g.t.Call(ctx, http.MethodPut, pagesPath(repo), newPagesRequest(cfg), nil)
}

func (g *gitHub) DeletePages(ctx context.Context, repo model.Repo) error {
	return g.t.Call(ctx, http.MethodDelete, pagesPath(repo), nil, nil)
}

func (g *gitHub) ListBranches(ctx context.Context, repo model.Repo) ([]string, error) {
	branches, err := ListAll(ctx, func(ctx context.Context, page, perPage int) ([]*github.Branch, error) {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))
		var out []*github.Branch
		path := fmt.Sprintf("repos/%s/%s/branches?%s", url.PathEscape(repo.Owner), url.PathEscape(repo.Name), q.Encode())
		if err := g.t.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.GetName())
	}
	return names, nil
}

// pagesRequest is the body of create and replace calls. Source is omitted
// entirely for workflow builds.
type pagesRequest struct {
	BuildType string              `json:"build_type"`
	Source    *github.PagesSource `json:"source,omitempty"`
}

func newPagesRequest(cfg model.BuildConfig) pagesRequest {
	req := pagesRequest{BuildType: string(cfg.Mode)}
	if cfg.Mode == model.BuildModeLegacy {
		req.Source = &github.PagesSource{
			Branch: github.String(cfg.Branch),
			Path:   github.String(cfg.Path),
		}
	}
	return req
}

func pagesPath(repo model.Repo) string {
	return fmt.Sprintf("repos/%s/%s/pages", url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
}

func toRepo(r *github.Repository) model.Repo {
	owner := r.GetOwner().GetLogin()
	return model.Repo{
		ID:            r.GetID(),
		Key:           model.RepoKey(owner, r.GetName()),
		Owner:         owner,
		Name:          r.GetName(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		HTMLURL:       r.GetHTMLURL(),
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}

func toPages(p *github.Pages) *model.Pages {
	return &model.Pages{
		HTMLURL:   p.GetHTMLURL(),
		Status:    p.GetStatus(),
		BuildMode: model.BuildMode(p.GetBuildType()),
		Branch:    p.GetSource().GetBranch(),
		Path:      p.GetSource().GetPath(),
	}
}
