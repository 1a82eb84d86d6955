package sonarqube

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves total integers in pages and records requested indexes.
type fakeFetcher struct {
	total    int
	failAt   int
	failWith error
	calls    []int
}

func (f *fakeFetcher) fetch(_ context.Context, pageIndex, pageSize int) (Page[int], error) {
	f.calls = append(f.calls, pageIndex)
	if f.failAt == pageIndex {
		return Page[int]{}, f.failWith
	}
	var items []int
	for i := (pageIndex - 1) * pageSize; i < pageIndex*pageSize && i < f.total; i++ {
		items = append(items, i)
	}
	return Page[int]{Items: items, Paging: Paging{PageSize: pageSize, Total: f.total}}, nil
}

func TestPagesStopsOnPageMath(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantCalls []int
	}{
		{"empty", 0, []int{1}},
		{"single partial page", 3, []int{1}},
		{"exact multiple", 10, []int{1, 2}},
		{"one past a multiple", 11, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{total: tt.total}
			items, err := collect(pages(context.Background(), 5, f.fetch))
			require.NoError(t, err)
			assert.Len(t, items, tt.total)
			assert.Equal(t, tt.wantCalls, f.calls)
		})
	}
}

func TestPagesStatusErrorEndsQuietly(t *testing.T) {
	f := &fakeFetcher{total: 20, failAt: 3, failWith: &StatusError{StatusCode: 500}}
	items, err := collect(pages(context.Background(), 5, f.fetch))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, items)
	assert.Equal(t, []int{1, 2, 3}, f.calls)
}

func TestPagesYieldsTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	f := &fakeFetcher{total: 20, failAt: 2, failWith: boom}
	items, err := collect(pages(context.Background(), 5, f.fetch))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, items, 5)
}

func TestPagesConsumerCanStop(t *testing.T) {
	f := &fakeFetcher{total: 100}
	for page, err := range pages(context.Background(), 10, f.fetch) {
		require.NoError(t, err)
		if page.Paging.PageIndex == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, f.calls)
}

func TestPagesRestartsPerRange(t *testing.T) {
	f := &fakeFetcher{total: 7}
	seq := pages(context.Background(), 5, f.fetch)
	first, err := collect(seq)
	require.NoError(t, err)
	second, err := collect(seq)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{1, 2, 1, 2}, f.calls)
}

func TestPagesFillsMissingPageSize(t *testing.T) {
	seq := pages(context.Background(), 4, func(_ context.Context, pageIndex, _ int) (Page[int], error) {
		return Page[int]{Items: []int{pageIndex}, Paging: Paging{Total: 8}}, nil
	})
	var indexes []int
	for page, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, 4, page.Paging.PageSize)
		indexes = append(indexes, page.Paging.PageIndex)
	}
	assert.Equal(t, []int{1, 2}, indexes)
}
