package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"

	"pagesdeck/internal/forge"
	"pagesdeck/internal/model"
)

// PagesLookup fetches the Pages configuration of one repository.
type PagesLookup interface {
	FetchPages(ctx context.Context, repo model.Repo) (*model.Pages, error)
}

// Enrich looks up the Pages configuration of every repo concurrently and
// returns the joined items in the order of repos. A failed lookup only
// affects its own item: NotFound becomes PublicationAbsent, anything else
// PublicationUnknown carrying the cause. limit bounds the number of lookups
// in flight; 0 means no bound.
func Enrich(ctx context.Context, lookup PagesLookup, repos []model.Repo, limit int) []model.Item {
	items := make([]model.Item, len(repos))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, repo := range repos {
		g.Go(func() error {
			items[i] = model.Item{Repo: repo, Publication: publication(ctx, lookup, repo)}
			return nil // per-item failures never cancel the others
		})
	}
	_ = g.Wait()

	return items
}

func publication(ctx context.Context, lookup PagesLookup, repo model.Repo) model.Publication {
	pages, err := lookup.FetchPages(ctx, repo)
	switch {
	case err == nil && pages != nil:
		return model.Publication{State: model.PublicationEnabled, Pages: pages}
	case err == nil, forge.IsNotFound(err):
		return model.Publication{State: model.PublicationAbsent}
	default:
		return model.Publication{State: model.PublicationUnknown, Err: err}
	}
}
