package forge

import (
	"context"
	"fmt"
)

// PageSize is the page size requested from every list endpoint.
const PageSize = 100

// PageFunc fetches one page of a page-numbered collection.
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// ListAll drains a page-numbered collection starting at page 1 and stops at
// the first empty page. A short page does not end the walk, so a collection
// whose size is a multiple of PageSize costs one trailing empty request.
// The first failure aborts the walk and no partial result is returned.
func ListAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	results := make([]T, 0)
	for page := 1; ; page++ {
		items, err := fetch(ctx, page, PageSize)
		if err != nil {
			return nil, fmt.Errorf("error listing page %d: %w", page, err)
		}
		if len(items) == 0 {
			return results, nil
		}
		results = append(results, items...)
	}
}
