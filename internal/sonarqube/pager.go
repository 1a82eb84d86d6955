package sonarqube

import (
	"context"
	"iter"
)

// Page is one page of a list response.
type Page[T any] struct {
	Items  []T
	Paging Paging
}

// pageFetcher loads page pageIndex (1-based) of size pageSize.
type pageFetcher[T any] func(ctx context.Context, pageIndex, pageSize int) (Page[T], error)

// pages returns a lazy sequence over every page of a list endpoint. Each
// range over the sequence starts again from page 1.
//
// The sequence ends when Paging.Exhausted holds for the last page, when the
// consumer stops, or when a page cannot be read. A *StatusError ends the
// sequence quietly (already-yielded pages stand, the client has logged the
// response); any other error is yielded once and ends it.
func pages[T any](ctx context.Context, pageSize int, fetch pageFetcher[T]) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		for pageIndex := 1; ; pageIndex++ {
			page, err := fetch(ctx, pageIndex, pageSize)
			if err != nil {
				if !IsStatusError(err) {
					yield(Page[T]{}, err)
				}
				return
			}

			// Trust the server's total, but our own request for position and
			// size in case the server omits or clamps them.
			page.Paging.PageIndex = pageIndex
			if page.Paging.PageSize <= 0 {
				page.Paging.PageSize = pageSize
			}

			if !yield(page, nil) {
				return
			}
			if page.Paging.Exhausted() {
				return
			}
		}
	}
}

// collect drains a page sequence into one slice, in arrival order.
func collect[T any](seq iter.Seq2[Page[T], error]) ([]T, error) {
	var all []T
	for page, err := range seq {
		if err != nil {
			return all, err
		}
		all = append(all, page.Items...)
	}
	return all, nil
}
