package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailense/internal/analytics"
	"retailense/internal/models"
)

func mustRange(t *testing.T, start, end string) analytics.DateRange {
	t.Helper()
	r, err := analytics.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestKey(t *testing.T) {
	r := mustRange(t, "2024-01-01", "2024-03-31")

	a := Key(r, []string{"Spain", "France", "Germany"}, 10)
	b := Key(r, []string{"Germany", "Spain", "France", "Spain"}, 10)
	assert.Equal(t, a, b, "order and duplicates do not matter")

	assert.NotEqual(t, a, Key(r, []string{"Spain", "France", "Germany"}, 5))
	assert.NotEqual(t, a, Key(mustRange(t, "2024-01-02", "2024-03-31"), []string{"Spain", "France", "Germany"}, 10))
	assert.NotEqual(t, a, Key(r, []string{"Spain", "France"}, 10))
}

func TestKey_DoesNotReorderCaller(t *testing.T) {
	countries := []string{"Spain", "France"}
	Key(mustRange(t, "2024-01-01", "2024-01-31"), countries, 10)
	assert.Equal(t, []string{"Spain", "France"}, countries)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	first := &analytics.Report{TopN: 10, ComputedAt: time.Now()}
	require.NoError(t, store.Set(ctx, "k", first))
	require.NoError(t, store.Set(ctx, "k", &analytics.Report{TopN: 99}))

	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Same(t, first, got, "entries are immutable once stored")
	assert.Equal(t, 1, store.Len())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(ctx, "shared", &analytics.Report{TopN: i})
			_, _ = store.Get(ctx, "shared")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
}

func TestRedis_NilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewRedis(nil, slog.Default())

	require.NoError(t, store.Set(ctx, "k", &analytics.Report{}))
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func buildReport(t *testing.T, topN int) *analytics.Report {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 10, 0, 0, 0, time.UTC) }
	ds := analytics.Dataset{
		{InvoiceID: "1", Description: "MUG", Quantity: 2, InvoiceDate: day(3), UnitPrice: decimal.RequireFromString("1.25"),
			Revenue: decimal.RequireFromString("2.50"), CustomerID: "17850", Country: "France"},
		{InvoiceID: "C2", Description: "MUG", Quantity: -1, InvoiceDate: day(9), UnitPrice: decimal.RequireFromString("1.25"),
			Revenue: decimal.RequireFromString("-1.25"), Country: "France"},
	}
	report, err := analytics.Build(context.Background(), ds, models.FilterParams{
		StartDate: "2024-01-01", EndDate: "2024-01-31", Countries: []string{"France"}, TopN: topN,
	})
	require.NoError(t, err)
	return report
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedis(t)
	report := buildReport(t, 10)

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok, "missing key is a miss")

	require.NoError(t, store.Set(ctx, "k", report))
	assert.True(t, mr.Exists(keyPrefix+"k"))
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.True(t, got.Summary.NetSales.Equal(decimal.RequireFromString("1.25")))
	assert.True(t, got.Waterfall[2].Value.Equal(report.Waterfall[2].Value))

	want, err := json.Marshal(report)
	require.NoError(t, err)
	have, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(have))
}

func TestRedis_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedis(t)

	require.NoError(t, store.Set(ctx, "k", buildReport(t, 10)))
	require.NoError(t, store.Set(ctx, "k", buildReport(t, 3)))

	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 10, got.TopN)
	assert.Equal(t, 1, store.Len(), "only the first write counts")
}

func TestRedis_CorruptedValueIsMiss(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedis(t)

	require.NoError(t, mr.Set(keyPrefix+"bad", "{not json"))

	_, ok := store.Get(ctx, "bad")
	assert.False(t, ok)
}

func TestRedis_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedis(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mr.Close()

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, store.Set(ctx, "k", buildReport(t, 10)))
	assert.Equal(t, 0, store.Len())
}
