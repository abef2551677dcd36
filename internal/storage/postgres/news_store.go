package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// NewsStore implements storage.NewsStore using PostgreSQL.
type NewsStore struct {
	pool *Pool
}

// NewNewsStore creates a new NewsStore.
func NewNewsStore(pool *Pool) *NewsStore {
	return &NewsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.NewsStore = (*NewsStore)(nil)

// Load returns all news in stored order.
func (s *NewsStore) Load(ctx context.Context) ([]domain.NewsRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT date, title, url, source FROM news ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	out := make([]domain.NewsRecord, 0)
	for rows.Next() {
		var r domain.NewsRecord
		if err := rows.Scan(&r.Date, &r.Title, &r.URL, &r.Source); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		r.Date = domain.Day(r.Date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate news: %w", err)
	}
	return out, nil
}

// ReplaceAll overwrites the news table in one transaction.
// Readers keep seeing the previous table until commit.
func (s *NewsStore) ReplaceAll(ctx context.Context, records []domain.NewsRecord) error {
	if err := storage.ValidateNews(records); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM news`); err != nil {
		return fmt.Errorf("clear news: %w", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{i, r.Date, r.Title, r.URL, r.Source}
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"news"}, []string{"seq", "date", "title", "url", "source"}, pgx.CopyFromRows(rows))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy news: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
