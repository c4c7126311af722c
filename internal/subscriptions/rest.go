package subscriptions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/errors"
	"github.com/gridlead/pushgate/internal/httpclient"
)

// maxErrorBodySize limits error response body reading to keep log lines bounded.
const maxErrorBodySize = 1024

// RESTStore talks to a PostgREST-style endpoint, the shape exposed by the
// hosted datastore the surrounding SaaS uses. Rows are filtered with
// `column=eq.value` query parameters; the service key travels both as apikey
// and bearer token.
type RESTStore struct {
	baseURL string
	apiKey  string
	table   string
	client  *httpclient.Client
}

// NewRESTStore creates a store client for the configured REST endpoint.
func NewRESTStore(settings *conf.RESTStoreSettings) (*RESTStore, error) {
	if settings.URL == "" {
		return nil, errors.Newf("subscription store URL is required").
			Component("subscriptions").
			Category(errors.CategoryConfiguration).
			Build()
	}
	table := settings.Table
	if table == "" {
		table = "push_subscriptions"
	}

	cfg := httpclient.DefaultConfig()
	cfg.UserAgent = "GridLead-PushGate-Store"
	return &RESTStore{
		baseURL: strings.TrimRight(settings.URL, "/"),
		apiKey:  settings.APIKey,
		table:   table,
		client:  httpclient.New(&cfg),
	}, nil
}

// rowURL builds {base}/{table}, optionally filtered to one endpoint.
func (s *RESTStore) rowURL(endpoint string) string {
	u := s.baseURL + "/" + s.table
	if endpoint != "" {
		u += "?endpoint=eq." + url.QueryEscape(endpoint)
	}
	return u
}

// authorize attaches the service key headers.
func (s *RESTStore) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

// do executes the request and maps non-2xx responses to database errors with
// a bounded body excerpt for context.
func (s *RESTStore) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	s.authorize(req)
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, errors.New(fmt.Errorf("subscription store request failed: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryNetwork).
			Context("url", req.URL.Path).
			Build()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		_ = resp.Body.Close()
		return nil, errors.Newf("subscription store returned status %d: %s", resp.StatusCode, string(body)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Context("status", resp.StatusCode).
			Build()
	}
	return resp, nil
}

// Save upserts the record keyed by endpoint using PostgREST's
// merge-duplicates resolution.
func (s *RESTStore) Save(ctx context.Context, record *Record) error {
	payload, err := json.Marshal(map[string]string{
		"endpoint": record.Endpoint,
		"p256dh":   record.P256dh,
		"auth":     record.Auth,
		"user_id":  record.UserID,
	})
	if err != nil {
		return errors.New(err).Component("subscriptions").Category(errors.CategoryGeneric).Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.rowURL(""), bytes.NewReader(payload))
	if err != nil {
		return errors.New(err).Component("subscriptions").Category(errors.CategoryGeneric).Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := s.do(ctx, req)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// GetByEndpoint fetches the row for one endpoint.
func (s *RESTStore) GetByEndpoint(ctx context.Context, endpoint string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.rowURL(endpoint), http.NoBody)
	if err != nil {
		return nil, errors.New(err).Component("subscriptions").Category(errors.CategoryGeneric).Build()
	}

	resp, err := s.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	var rows []*Record
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, errors.New(fmt.Errorf("decoding subscription row: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// List returns stored subscriptions using PostgREST range pagination.
func (s *RESTStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	u := s.rowURL("") + "?order=created_at.desc"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, errors.New(err).Component("subscriptions").Category(errors.CategoryGeneric).Build()
	}
	if limit > 0 {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", fmt.Sprintf("%d-%d", offset, offset+limit-1))
	}

	resp, err := s.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	var rows []*Record
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, errors.New(fmt.Errorf("decoding subscription rows: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}
	return rows, nil
}

// DeleteByEndpoint removes the row for one endpoint. PostgREST answers 2xx
// whether or not a row matched, which fits the best-effort contract.
func (s *RESTStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.rowURL(endpoint), http.NoBody)
	if err != nil {
		return errors.New(err).Component("subscriptions").Category(errors.CategoryGeneric).Build()
	}

	resp, err := s.do(ctx, req)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Close releases idle connections.
func (s *RESTStore) Close() error {
	s.client.Close()
	return nil
}

// drain consumes and closes a response body so connections return to the pool.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
