package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// PriceStore implements storage.PriceStore using SQLite.
// The header and every record are stored verbatim; records as JSON arrays.
type PriceStore struct {
	db *DB
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(db *DB) *PriceStore {
	return &PriceStore{db: db}
}

var _ storage.PriceStore = (*PriceStore)(nil)

// Load returns the price table. Returns ErrNotFound if no header was stored.
func (s *PriceStore) Load(ctx context.Context) (*domain.RawTable, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT name FROM price_header ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query price header: %w", err)
	}
	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan price header: %w", err)
		}
		header = append(header, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price header: %w", err)
	}
	if len(header) == 0 {
		return nil, storage.ErrNotFound
	}

	rows, err = s.db.db.QueryContext(ctx, `SELECT fields FROM price_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query price records: %w", err)
	}
	defer rows.Close()

	table := &domain.RawTable{Name: storage.TablePrices, Header: header}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan price record: %w", err)
		}
		var fields []string
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("decode price record: %w", err)
		}
		table.Records = append(table.Records, fields)
	}
	return table, rows.Err()
}

// ReplaceAll overwrites header and records in one transaction.
func (s *PriceStore) ReplaceAll(ctx context.Context, table *domain.RawTable) error {
	if err := storage.ValidateRawTable(table); err != nil {
		return err
	}
	return s.db.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM price_header`); err != nil {
			return fmt.Errorf("clear price header: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM price_records`); err != nil {
			return fmt.Errorf("clear price records: %w", err)
		}
		for i, name := range table.Header {
			if _, err := tx.ExecContext(ctx, `INSERT INTO price_header (position, name) VALUES (?, ?)`, i, name); err != nil {
				return fmt.Errorf("insert price header: %w", err)
			}
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_records (seq, fields) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare price insert: %w", err)
		}
		defer stmt.Close()
		for i, rec := range table.Records {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode price record: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, i, string(data)); err != nil {
				return fmt.Errorf("insert price record: %w", err)
			}
		}
		return nil
	})
}
