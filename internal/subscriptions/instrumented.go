package subscriptions

import (
	"context"
	"time"

	"github.com/gridlead/pushgate/internal/errors"
	"github.com/gridlead/pushgate/internal/observability/metrics"
)

// instrumentedStore wraps a Store and records one metric sample per
// operation with its result and duration.
type instrumentedStore struct {
	inner Store
	m     *metrics.StoreMetrics
}

// Instrument wraps a store with operation metrics. A nil metrics handle
// returns the store unchanged.
func Instrument(store Store, m *metrics.StoreMetrics) Store {
	if m == nil {
		return store
	}
	return &instrumentedStore{inner: store, m: m}
}

// record classifies the operation result. Not-found is its own label since
// it is an expected outcome for lookups and invalidation deletes.
func (s *instrumentedStore) record(operation string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.m.RecordOperation(operation, result)
	s.m.ObserveOperationDuration(operation, time.Since(start))
}

func (s *instrumentedStore) Save(ctx context.Context, record *Record) error {
	start := time.Now()
	err := s.inner.Save(ctx, record)
	s.record("save", start, err)
	return err
}

func (s *instrumentedStore) GetByEndpoint(ctx context.Context, endpoint string) (*Record, error) {
	start := time.Now()
	record, err := s.inner.GetByEndpoint(ctx, endpoint)
	s.record("get", start, err)
	return record, err
}

func (s *instrumentedStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	start := time.Now()
	records, err := s.inner.List(ctx, limit, offset)
	s.record("list", start, err)
	return records, err
}

func (s *instrumentedStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	start := time.Now()
	err := s.inner.DeleteByEndpoint(ctx, endpoint)
	s.record("delete", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.inner.Close()
}
