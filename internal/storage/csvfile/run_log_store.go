package csvfile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

var runLogHeader = []string{
	"run_id", "started_at", "finished_at", "last_price_date", "crisis_days",
	"fetch_successes", "fetch_failures", "headlines_added", "exit_code",
}

// RunLogStore keeps the reconciler run history in a CSV file.
type RunLogStore struct {
	mu   sync.Mutex
	path string
}

// NewRunLogStore creates a RunLogStore backed by path.
func NewRunLogStore(path string) *RunLogStore {
	return &RunLogStore{path: path}
}

// Append rewrites the log with r added at the end.
func (s *RunLogStore) Append(_ context.Context, r *storage.RunRecord) error {
	if r == nil || r.RunID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, records, err := readAll(s.path)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	id := r.RunID.String()
	for _, rec := range records {
		if len(rec) > 0 && rec[0] == id {
			return storage.ErrDuplicateKey
		}
	}

	lastPrice := ""
	if !r.LastPriceDate.IsZero() {
		lastPrice = r.LastPriceDate.Format(domain.DateLayout)
	}
	records = append(records, []string{
		id,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		lastPrice,
		strconv.Itoa(r.CrisisDays),
		strconv.Itoa(r.FetchSuccesses),
		strconv.Itoa(r.FetchFailures),
		strconv.Itoa(r.HeadlinesAdded),
		strconv.Itoa(r.ExitCode),
	})
	return writeAtomic(s.path, runLogHeader, records)
}

// Last returns the run with the latest finished_at.
func (s *RunLogStore) Last(_ context.Context) (*storage.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, records, err := readAll(s.path)
	if err != nil {
		return nil, err
	}
	var last *storage.RunRecord
	for i, rec := range records {
		r, err := parseRunRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("run log row %d: %w", i+1, err)
		}
		if last == nil || !r.FinishedAt.Before(last.FinishedAt) {
			last = r
		}
	}
	if last == nil {
		return nil, storage.ErrNotFound
	}
	return last, nil
}

func parseRunRecord(rec []string) (*storage.RunRecord, error) {
	if len(rec) != len(runLogHeader) {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", storage.ErrInvalidInput, len(runLogHeader), len(rec))
	}
	id, err := uuid.Parse(rec[0])
	if err != nil {
		return nil, fmt.Errorf("run_id: %w", err)
	}
	r := &storage.RunRecord{RunID: id}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, rec[1]); err != nil {
		return nil, fmt.Errorf("started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, rec[2]); err != nil {
		return nil, fmt.Errorf("finished_at: %w", err)
	}
	if rec[3] != "" {
		if r.LastPriceDate, err = parseDate(rec[3]); err != nil {
			return nil, err
		}
	}
	ints := []*int{&r.CrisisDays, &r.FetchSuccesses, &r.FetchFailures, &r.HeadlinesAdded, &r.ExitCode}
	for i, dst := range ints {
		if *dst, err = strconv.Atoi(rec[4+i]); err != nil {
			return nil, fmt.Errorf("%s: %w", runLogHeader[4+i], err)
		}
	}
	return r, nil
}

var _ storage.RunLogStore = (*RunLogStore)(nil)
