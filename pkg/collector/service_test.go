package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/archive"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/tablestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	results []error
	data    []byte
	calls   int
}

func (f *fakeFetcher) FetchDay(ctx context.Context, day time.Time) ([]byte, error) {
	i := f.calls
	f.calls++
	if i < len(f.results) && f.results[i] != nil {
		return nil, f.results[i]
	}
	return f.data, nil
}

var errFlaky = errors.New("connection reset")

const dayExport = "Time,Production (W)\n" +
	"2025-01-01 10:00:00,40\n" +
	"2025-01-01 10:15:00,60\n" +
	"2025-01-01 10:30:00,80\n" +
	"2025-01-01 10:45:00,100\n"

func jan(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func newCollector(t *testing.T, f Fetcher, opts Options) (*Collector, *archive.Store) {
	t.Helper()
	a := archive.New(filepath.Join(t.TempDir(), "raw.zip"))
	return New(f, a, logger.Nop(), metrics.New(), opts), a
}

func TestUpdateDay_RetriesThenArchives(t *testing.T) {
	f := &fakeFetcher{results: []error{errFlaky, ErrNoData}, data: []byte(dayExport)}
	c, a := newCollector(t, f, Options{Attempts: 3, Timeout: time.Second})

	added, err := c.UpdateDay(context.Background(), jan(1).Add(13*time.Hour))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 3, f.calls)

	has, err := a.Has(jan(1))
	require.NoError(t, err)
	assert.True(t, has)

	// Already archived days are never fetched again.
	added, err = c.UpdateDay(context.Background(), jan(1))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 3, f.calls)
}

func TestUpdateDay_ExhaustedAttempts(t *testing.T) {
	f := &fakeFetcher{results: []error{errFlaky, errFlaky}}
	c, a := newCollector(t, f, Options{Attempts: 2, Timeout: time.Second})

	added, err := c.UpdateDay(context.Background(), jan(2))
	assert.False(t, added)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, f.calls)

	days, err := a.Days()
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestUpdateDay_AuthErrorStopsImmediately(t *testing.T) {
	f := &fakeFetcher{results: []error{ErrAuth, nil}, data: []byte(dayExport)}
	c, _ := newCollector(t, f, Options{Attempts: 5, Timeout: time.Second})

	_, err := c.UpdateDay(context.Background(), jan(3))
	assert.ErrorIs(t, err, ErrAuth)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, 1, f.calls)
}

func TestUpdateDay_AppendsResampledProduction(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		Attempts:       1,
		Timeout:        time.Second,
		Step:           15 * time.Minute,
		Resampled30Min: filepath.Join(dir, "production_30min.csv"),
		Resampled1H:    filepath.Join(dir, "production_1h.csv"),
	}
	c, _ := newCollector(t, &fakeFetcher{data: []byte(dayExport)}, opts)

	_, err := c.UpdateDay(context.Background(), jan(1))
	require.NoError(t, err)

	half, err := tablestore.ReadSeries(opts.Resampled30Min, tablestore.ProductionColumn)
	require.NoError(t, err)
	require.Len(t, half, 2)
	assert.Equal(t, 50.0, half[0].Value)
	assert.Equal(t, 90.0, half[1].Value)

	hourly, err := tablestore.ReadSeries(opts.Resampled1H, tablestore.ProductionColumn)
	require.NoError(t, err)
	require.Len(t, hourly, 1)
	assert.Equal(t, 70.0, hourly[0].Value)
}

func TestUpdateDay_RebuildsResampledFromArchive(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		Attempts:       1,
		Timeout:        time.Second,
		Step:           15 * time.Minute,
		Resampled30Min: filepath.Join(dir, "production_30min.csv"),
		Resampled1H:    filepath.Join(dir, "production_1h.csv"),
	}
	f := &fakeFetcher{data: []byte(dayExport)}
	c, a := newCollector(t, f, opts)

	_, err := a.AppendIfNew(jan(1), []byte(dayExport))
	require.NoError(t, err)

	added, err := c.UpdateDay(context.Background(), jan(1))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Zero(t, f.calls)

	half, err := tablestore.ReadSeries(opts.Resampled30Min, tablestore.ProductionColumn)
	require.NoError(t, err)
	require.Len(t, half, 2)
	assert.Equal(t, 50.0, half[0].Value)
}

func TestLastArchivedDay(t *testing.T) {
	c, a := newCollector(t, &fakeFetcher{}, Options{})

	_, ok, err := c.LastArchivedDay()
	require.NoError(t, err)
	assert.False(t, ok)

	for _, d := range []int{3, 1, 2} {
		_, err := a.AppendIfNew(jan(d), []byte(dayExport))
		require.NoError(t, err)
	}
	last, ok, err := c.LastArchivedDay()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, jan(3), last)
}

func TestUpdateRange_CollectsErrors(t *testing.T) {
	f := &fakeFetcher{results: []error{nil, errFlaky, nil}, data: []byte(dayExport)}
	c, _ := newCollector(t, f, Options{Attempts: 1, Timeout: time.Second})

	added, err := c.UpdateRange(context.Background(), jan(1), jan(3))
	assert.Equal(t, 2, added)
	assert.ErrorIs(t, err, errFlaky)
	assert.Contains(t, err.Error(), "2025-01-02")
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("date") {
		case "2025-01-01":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(dayExport))
		case "2025-01-02":
			w.WriteHeader(http.StatusForbidden)
		case "2025-01-03":
			w.WriteHeader(http.StatusNotFound)
		case "2025-01-04":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	f := &HTTPFetcher{URLTemplate: srv.URL + "/export?date={date}", Token: "secret", Client: srv.Client()}
	ctx := context.Background()

	data, err := f.FetchDay(ctx, jan(1))
	require.NoError(t, err)
	assert.Equal(t, dayExport, string(data))

	_, err = f.FetchDay(ctx, jan(2))
	assert.ErrorIs(t, err, ErrAuth)

	_, err = f.FetchDay(ctx, jan(3))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = f.FetchDay(ctx, jan(4))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = f.FetchDay(ctx, jan(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
