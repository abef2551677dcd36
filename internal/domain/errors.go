package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error classes of a pipeline or reconciler run.
var (
	// ErrParse marks a single field that failed to convert. Recovered locally.
	ErrParse = errors.New("parse error")

	// ErrSchema marks a required column that is absent. Fatal for the run.
	ErrSchema = errors.New("schema error")

	// ErrExternalFetch marks a failed or timed out external fetch for one date.
	ErrExternalFetch = errors.New("external fetch error")

	// ErrPersistence marks a failed write of an output table.
	ErrPersistence = errors.New("persistence error")
)

// ParseError describes a field that could not be converted and was nulled.
type ParseError struct {
	Row   int    // zero-based record index in the raw table
	Field string // canonical column name
	Value string // raw value
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: field %s: cannot parse %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("row %d: field %s: cannot parse %q", e.Row, e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// SchemaError lists required columns missing from a table.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// FetchError wraps a failed external fetch for a single date.
type FetchError struct {
	Date time.Time
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Date.Format(DateLayout), e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrExternalFetch, e.Err} }

// PersistenceError wraps a failed write of an output table.
type PersistenceError struct {
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// IsFatal reports whether err must produce a non-zero run status.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSchema) || errors.Is(err, ErrPersistence)
}
