package paging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/domain"
)

// fixedFeed serves sizes[i] items on page i+1
func fixedFeed(sizes []int, calls *[]int) FetchFunc[string] {
	return func(_ context.Context, page int) (Page[string], error) {
		*calls = append(*calls, page)
		items := make([]string, 0, sizes[page-1])
		for i := 0; i < sizes[page-1]; i++ {
			items = append(items, fmt.Sprintf("p%d-%d", page, i))
		}
		total := 0
		for _, s := range sizes {
			total += s
		}
		return Page[string]{
			Items: items,
			Pagination: domain.Pagination{
				TotalResults: total,
				HasNextPage:  page < len(sizes),
				NextPage:     page + 1,
			},
		}, nil
	}
}

func TestPager_AccumulatesInRequestOrder(t *testing.T) {
	var calls []int
	p := New(fixedFeed([]int{10, 10, 3}, &calls))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fetched, err := p.FetchNext(ctx)
		require.NoError(t, err)
		assert.True(t, fetched)
	}

	items := p.Items()
	assert.Len(t, items, 23)
	assert.Equal(t, "p1-0", items[0])
	assert.Equal(t, "p3-2", items[22])
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, 23, p.TotalResults())
}

func TestPager_StopsWhenNoNextPage(t *testing.T) {
	var calls []int
	p := New(fixedFeed([]int{4}, &calls))
	ctx := context.Background()

	_, err := p.FetchNext(ctx)
	require.NoError(t, err)
	assert.False(t, p.HasNextPage())

	fetched, err := p.FetchNext(ctx)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, []int{1}, calls)
}

func TestPager_NoConcurrentFetch(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	p := New(func(ctx context.Context, page int) (Page[int], error) {
		close(entered)
		<-release
		return Page[int]{Items: []int{1}, Pagination: domain.Pagination{HasNextPage: true}}, nil
	})

	done := make(chan error)
	go func() {
		_, err := p.FetchNext(context.Background())
		done <- err
	}()
	<-entered

	assert.True(t, p.Fetching())
	fetched, err := p.FetchNext(context.Background())
	require.NoError(t, err)
	assert.False(t, fetched)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, p.PageCount())
}

func TestPager_ResetDropsStalePage(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	sort := "old"
	p := New(func(ctx context.Context, page int) (Page[string], error) {
		current := sort
		entered <- struct{}{}
		if current == "old" {
			<-release
		}
		return Page[string]{Items: []string{current}, Pagination: domain.Pagination{HasNextPage: false}}, nil
	})

	done := make(chan error)
	go func() {
		_, err := p.FetchNext(context.Background())
		done <- err
	}()
	<-entered

	sort = "new"
	require.NoError(t, p.Reset(context.Background()))
	<-entered

	close(release)
	assert.ErrorIs(t, <-done, ErrStalePage)
	assert.Equal(t, []string{"new"}, p.Items())
}

func TestPager_ErrorAllowsManualRetry(t *testing.T) {
	fail := true
	p := New(func(ctx context.Context, page int) (Page[int], error) {
		if fail {
			return Page[int]{}, errors.New("backend down")
		}
		return Page[int]{Items: []int{page}}, nil
	})
	ctx := context.Background()

	_, err := p.FetchNext(ctx)
	assert.Error(t, err)
	assert.Empty(t, p.Items())
	assert.False(t, p.Fetching())

	fail = false
	fetched, err := p.FetchNext(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, []int{1}, p.Items())
}

func TestPager_FetchPages(t *testing.T) {
	var calls []int
	p := New(fixedFeed([]int{10, 10, 10, 2}, &calls))

	require.NoError(t, p.FetchPages(context.Background(), 2))
	assert.Equal(t, 2, p.PageCount())

	require.NoError(t, p.FetchPages(context.Background(), 10))
	assert.Equal(t, 4, p.PageCount())
	assert.Len(t, p.Items(), 32)
}
