package forge

import (
	"context"

	"pagesdeck/internal/model"
)

// Forge abstracts the remote operations on repositories and their Pages sites.
type Forge interface {
	Kind() string
	CurrentUser(ctx context.Context) (string, error)
	ListReposPage(ctx context.Context, page, perPage int) ([]model.Repo, error)
	// FetchPages returns a *NotFound error when the repository has no Pages site.
	FetchPages(ctx context.Context, repo model.Repo) (*model.Pages, error)
	CreatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error
	UpdatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error
	DeletePages(ctx context.Context, repo model.Repo) error
	ListBranches(ctx context.Context, repo model.Repo) ([]string, error)
}
