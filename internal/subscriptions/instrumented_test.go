package subscriptions

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlead/pushgate/internal/errors"
	"github.com/gridlead/pushgate/internal/observability/metrics"
)

// failingStore errors on every delete.
type failingStore struct {
	NopStore
}

func (failingStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return errors.Newf("store unavailable").Build()
}

func TestInstrumentRecordsOperations(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewStoreMetrics(registry)
	require.NoError(t, err)

	store := Instrument(NopStore{}, m)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{Endpoint: "https://push.example.com/send/abc"}))
	require.NoError(t, store.DeleteByEndpoint(ctx, "https://push.example.com/send/abc"))
	_, err = store.GetByEndpoint(ctx, "https://push.example.com/send/abc")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.List(ctx, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("save", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("delete", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("get", "not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("list", "ok")))
}

func TestInstrumentRecordsFailures(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewStoreMetrics(registry)
	require.NoError(t, err)

	store := Instrument(failingStore{}, m)

	require.Error(t, store.DeleteByEndpoint(context.Background(), "https://push.example.com/send/abc"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("delete", "error")))
}

func TestInstrumentNilMetricsPassthrough(t *testing.T) {
	t.Parallel()

	inner := NopStore{}
	assert.Equal(t, Store(inner), Instrument(inner, nil))
}
