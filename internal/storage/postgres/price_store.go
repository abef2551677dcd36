package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// PriceStore implements storage.PriceStore using PostgreSQL.
// The header and records are stored verbatim; records as text[].
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// Load returns the price table. Returns ErrNotFound if no header is stored.
func (s *PriceStore) Load(ctx context.Context) (*domain.RawTable, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM price_header ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query price header: %w", err)
	}
	header, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect price header: %w", err)
	}
	if len(header) == 0 {
		return nil, storage.ErrNotFound
	}

	rows, err = s.pool.Query(ctx, `SELECT fields FROM price_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query price records: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowTo[[]string])
	if err != nil {
		return nil, fmt.Errorf("collect price records: %w", err)
	}
	return &domain.RawTable{Name: storage.TablePrices, Header: header, Records: records}, nil
}

// ReplaceAll overwrites header and records in one transaction.
func (s *PriceStore) ReplaceAll(ctx context.Context, table *domain.RawTable) error {
	if err := storage.ValidateRawTable(table); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM price_header`); err != nil {
		return fmt.Errorf("clear price header: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM price_records`); err != nil {
		return fmt.Errorf("clear price records: %w", err)
	}

	headerRows := make([][]any, len(table.Header))
	for i, name := range table.Header {
		headerRows[i] = []any{i, name}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"price_header"}, []string{"position", "name"}, pgx.CopyFromRows(headerRows)); err != nil {
		return fmt.Errorf("copy price header: %w", err)
	}

	recordRows := make([][]any, len(table.Records))
	for i, rec := range table.Records {
		fields := rec
		if fields == nil {
			fields = []string{}
		}
		recordRows[i] = []any{i, fields}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"price_records"}, []string{"seq", "fields"}, pgx.CopyFromRows(recordRows)); err != nil {
		return fmt.Errorf("copy price records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
