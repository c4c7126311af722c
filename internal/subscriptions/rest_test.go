package subscriptions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/errors"
)

func newTestRESTStore(t *testing.T, handler http.Handler) *RESTStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewRESTStore(&conf.RESTStoreSettings{
		URL:    srv.URL,
		APIKey: "service-key",
		Table:  "push_subscriptions",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRESTStore_DeleteByEndpoint(t *testing.T) {
	t.Parallel()

	endpoint := "https://fcm.googleapis.com/fcm/send/abc"
	var calls atomic.Int32

	store := newTestRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/push_subscriptions", r.URL.Path)
		assert.Equal(t, "eq."+endpoint, r.URL.Query().Get("endpoint"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, store.DeleteByEndpoint(context.Background(), endpoint))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRESTStore_DeleteFailureIsDatabaseError(t *testing.T) {
	t.Parallel()

	store := newTestRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))

	err := store.DeleteByEndpoint(context.Background(), "https://example.com/sub")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDatabase))
	assert.Contains(t, err.Error(), "403")
}

func TestRESTStore_SaveUpserts(t *testing.T) {
	t.Parallel()

	store := newTestRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "resolution=merge-duplicates", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))

	err := store.Save(context.Background(), &Record{
		Endpoint: "https://example.com/sub",
		P256dh:   "key",
		Auth:     "auth",
	})
	assert.NoError(t, err)
}

func TestRESTStore_GetByEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		store := newTestRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"endpoint":"https://example.com/sub","p256dh":"k","auth":"a"}]`))
		}))

		rec, err := store.GetByEndpoint(context.Background(), "https://example.com/sub")
		require.NoError(t, err)
		assert.Equal(t, "k", rec.P256dh)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		store := newTestRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))

		_, err := store.GetByEndpoint(context.Background(), "https://example.com/none")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRESTStore_EndpointQueryEscaping(t *testing.T) {
	t.Parallel()

	endpoint := "https://fcm.googleapis.com/fcm/send/a?b=c&d=e"
	store := newTestRESTStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("endpoint")
		assert.Equal(t, "eq."+endpoint, got)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, store.DeleteByEndpoint(context.Background(), endpoint))
}

func TestNewRESTStore_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewRESTStore(&conf.RESTStoreSettings{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfiguration))
}
