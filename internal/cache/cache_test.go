package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-crisis-lab/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func sampleRows() []domain.ClassifiedRow {
	var a, b domain.ClassifiedRow
	a.Date = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a.Close = ptr(100.0)
	a.DatePersian = &domain.JalaliDate{Year: 1402, Month: 10, Day: 11}
	b.Date = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	b.Close = ptr(70.0)
	b.Ret = ptr(-0.3)
	b.Drawdown = ptr(-0.3)
	b.IsCrisis = true
	return []domain.ClassifiedRow{a, b}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, ok, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)

	rows := sampleRows()
	require.NoError(t, c.Put(ctx, "fp1", rows))

	got, ok, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	// Reslicing the returned copy does not affect the cache.
	got = append(got[:0], got[1])
	again, _, _ := c.Get(ctx, "fp1")
	assert.Len(t, again, 2)

	require.NoError(t, c.Invalidate(ctx, "fp1"))
	_, ok, _ = c.Get(ctx, "fp1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Put(ctx, "fp", sampleRows()))
	_, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)
}
