package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// NewsStore implements storage.NewsStore using SQLite.
type NewsStore struct {
	db *DB
}

// NewNewsStore creates a new NewsStore.
func NewNewsStore(db *DB) *NewsStore {
	return &NewsStore{db: db}
}

var _ storage.NewsStore = (*NewsStore)(nil)

// Load returns all news in stored order.
func (s *NewsStore) Load(ctx context.Context) ([]domain.NewsRecord, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT date, title, url, source FROM news ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	out := make([]domain.NewsRecord, 0)
	for rows.Next() {
		var date string
		var r domain.NewsRecord
		if err := rows.Scan(&date, &r.Title, &r.URL, &r.Source); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		if r.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse news date %q: %w", date, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceAll overwrites the news table in one transaction.
func (s *NewsStore) ReplaceAll(ctx context.Context, records []domain.NewsRecord) error {
	if err := storage.ValidateNews(records); err != nil {
		return err
	}
	return s.db.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM news`); err != nil {
			return fmt.Errorf("clear news: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO news (seq, date, title, url, source) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare news insert: %w", err)
		}
		defer stmt.Close()
		for i, r := range records {
			_, err := stmt.ExecContext(ctx, i, r.Date.Format(domain.DateLayout), r.Title, r.URL, r.Source)
			if err != nil {
				if isUniqueViolation(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert news: %w", err)
			}
		}
		return nil
	})
}
