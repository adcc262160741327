package forge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// pagedSource serves total sequential ints in pages and counts requests.
type pagedSource struct {
	total    int
	calls    int
	failPage int
}

func (p *pagedSource) fetch(ctx context.Context, page, perPage int) ([]int, error) {
	p.calls++
	if page == p.failPage {
		return nil, errors.New("boom")
	}
	start := (page - 1) * perPage
	if start >= p.total {
		return nil, nil
	}
	end := start + perPage
	if end > p.total {
		end = p.total
	}
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out, nil
}

func TestListAllRequestCounts(t *testing.T) {
	tests := []struct {
		total int
		calls int
	}{
		{0, 1},
		{1, 2},
		{99, 2},
		{100, 2},
		{200, 3},
		{250, 4},
		{1001, 12},
	}
	for _, tt := range tests {
		src := &pagedSource{total: tt.total}
		items, err := ListAll(context.Background(), src.fetch)
		require.NoError(t, err)
		require.Len(t, items, tt.total)
		require.Equal(t, tt.calls, src.calls, "total=%d", tt.total)
		for i, v := range items {
			require.Equal(t, i, v)
		}
	}
}

func TestListAllEmptyIsNotNil(t *testing.T) {
	src := &pagedSource{}
	items, err := ListAll(context.Background(), src.fetch)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestListAllFailureDiscardsPages(t *testing.T) {
	src := &pagedSource{total: 250, failPage: 2}
	items, err := ListAll(context.Background(), src.fetch)
	require.Error(t, err)
	require.Nil(t, items)
	require.Contains(t, err.Error(), "page 2")
	require.Equal(t, 2, src.calls)
}
