package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

var day0 = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPriceStore_LoadReplace(t *testing.T) {
	ctx := context.Background()
	s := NewPriceStore(nil)

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	table := &domain.RawTable{Name: "prices", Header: []string{"a", "b"}, Records: [][]string{{"1", "2"}}}
	require.NoError(t, s.ReplaceAll(ctx, table))

	// Mutating the input must not leak into the store.
	table.Records[0][0] = "x"

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Records[0][0])

	assert.ErrorIs(t, s.ReplaceAll(ctx, &domain.RawTable{}), storage.ErrInvalidInput)
}

func TestNewsStore_ReplaceAllIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewNewsStore(domain.NewsRecord{Date: day0, Title: "A"})

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	dup := []domain.NewsRecord{{Date: day0, Title: "B"}, {Date: day0, Title: "B"}}
	assert.ErrorIs(t, s.ReplaceAll(ctx, dup), storage.ErrDuplicateKey)

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.NewsRecord{{Date: day0, Title: "A"}}, got)
	assert.Zero(t, s.Writes())

	require.NoError(t, s.ReplaceAll(ctx, []domain.NewsRecord{{Date: day0, Title: "C"}}))
	assert.Equal(t, 1, s.Writes())
}

func TestNewsStore_EmptyLoad(t *testing.T) {
	got, err := NewNewsStore().Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCrisisDateStore(t *testing.T) {
	ctx := context.Background()
	s := NewCrisisDateStore()

	dates := []domain.CrisisDate{{Date: day0, IsCrisis: true}, {Date: day0.AddDate(0, 0, 3), IsCrisis: true}}
	require.NoError(t, s.ReplaceAll(ctx, dates))
	require.NoError(t, s.ReplaceAll(ctx, dates[:1]))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1, "replace must overwrite, not append")

	assert.ErrorIs(t, s.ReplaceAll(ctx, []domain.CrisisDate{dates[0], dates[0]}), storage.ErrDuplicateKey)
}

func TestDerivedSeriesStore(t *testing.T) {
	ctx := context.Background()
	s := NewDerivedSeriesStore()

	rows := make([]domain.ClassifiedRow, 2)
	rows[0].Date = day0
	rows[1].Date = day0.AddDate(0, 0, 1)
	require.NoError(t, s.ReplaceAll(ctx, rows))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	assert.ErrorIs(t, s.ReplaceAll(ctx, []domain.ClassifiedRow{rows[1], rows[0]}), storage.ErrInvalidInput)
}

func TestRunLogStore(t *testing.T) {
	ctx := context.Background()
	s := NewRunLogStore()

	_, err := s.Last(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first := &storage.RunRecord{RunID: uuid.New(), FinishedAt: day0}
	second := &storage.RunRecord{RunID: uuid.New(), FinishedAt: day0.Add(time.Hour), CrisisDays: 4}
	require.NoError(t, s.Append(ctx, second))
	require.NoError(t, s.Append(ctx, first))
	assert.ErrorIs(t, s.Append(ctx, first), storage.ErrDuplicateKey)
	assert.ErrorIs(t, s.Append(ctx, &storage.RunRecord{}), storage.ErrInvalidInput)

	last, err := s.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, last.RunID)
	assert.Equal(t, 4, last.CrisisDays)
}
