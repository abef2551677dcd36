// Package news fetches headlines for crisis dates and merges them into the
// news table without duplicating (date, title) pairs.
package news

import (
	"context"
	"time"

	"currency-crisis-lab/internal/domain"
)

// Fetcher returns raw articles published on one calendar date.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) ([]domain.RawArticle, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, date time.Time) ([]domain.RawArticle, error)

func (f FetcherFunc) Fetch(ctx context.Context, date time.Time) ([]domain.RawArticle, error) {
	return f(ctx, date)
}
