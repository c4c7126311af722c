package webpush

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/errors"
	"github.com/gridlead/pushgate/internal/httpclient"
	"github.com/gridlead/pushgate/internal/observability/metrics"
	"github.com/gridlead/pushgate/internal/subscriptions"
	"github.com/gridlead/pushgate/internal/vapid"
)

const (
	// maxResponseBodySize caps how much of the push service's error body is
	// retained and passed through to API callers.
	maxResponseBodySize = 1024

	// invalidateTimeout bounds the best-effort store delete, which runs on a
	// detached context so a cancelled request cannot abort it.
	invalidateTimeout = 5 * time.Second
)

// Dispatcher sends VAPID-authenticated pushes and removes subscriptions the
// push service reports gone. Safe for concurrent use.
type Dispatcher struct {
	settings *conf.Settings
	client   *httpclient.Client
	store    subscriptions.Store
	metrics  *metrics.WebPushMetrics

	logger      *slog.Logger
	loggerClose func() error

	keyMu sync.Mutex
	keys  *vapid.Keys

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	// invalidated suppresses duplicate store deletes when a burst of sends
	// hits the same dead endpoint.
	invalidated *cache.Cache
}

// New creates a Dispatcher. The store is only used for invalidation and may
// be a NopStore; metrics may be nil. A nil client gets default settings with
// the configured send timeout.
func New(settings *conf.Settings, store subscriptions.Store, client *httpclient.Client, m *metrics.WebPushMetrics) *Dispatcher {
	if client == nil {
		cfg := httpclient.DefaultConfig()
		if settings.Push.SendTimeout > 0 {
			cfg.DefaultTimeout = settings.Push.SendTimeout
		}
		client = httpclient.New(&cfg)
	}
	if store == nil {
		store = &subscriptions.NopStore{}
	}

	invalidateTTL := settings.Push.InvalidateTTL
	if invalidateTTL <= 0 {
		invalidateTTL = time.Minute
	}

	logger, loggerClose := newDispatchLogger(settings)

	return &Dispatcher{
		settings:    settings,
		client:      client,
		store:       store,
		metrics:     m,
		logger:      logger,
		loggerClose: loggerClose,
		limiters:    make(map[string]*rate.Limiter),
		invalidated: cache.New(invalidateTTL, 2*invalidateTTL),
	}
}

// Send delivers one empty-payload push to the subscription's endpoint. The
// message content is logged for correlation only; it is never transmitted.
//
// A non-nil Result means the push service responded; its Outcome tells
// whether the message was accepted, rejected, or the subscription is gone.
// A non-nil error means no response was obtained: missing or malformed
// subscription, unconfigured or invalid signing keys, rate limiting, or a
// transport failure. Inspect the error's category to map it to a caller
// response.
func (d *Dispatcher) Send(ctx context.Context, sub *Subscription, msg *Message) (*Result, error) {
	if sub == nil || sub.Endpoint == "" {
		return nil, errors.Newf("missing subscription").
			Component("webpush").
			Category(errors.CategoryValidation).
			Build()
	}

	audience, err := sub.Audience()
	if err != nil {
		return nil, errors.New(err).
			Component("webpush").
			Category(errors.CategoryValidation).
			Context("endpoint", sub.Endpoint).
			Build()
	}

	keys, err := d.ensureKeys()
	if err != nil {
		return nil, err
	}

	if rl := &d.settings.Push.RateLimit; rl.Enabled {
		if !d.limiter(audience, rl).Allow() {
			if d.metrics != nil {
				d.metrics.RecordRateLimited()
				d.metrics.RecordSend(string(OutcomeTransientError))
			}
			return nil, errors.Newf("push rate limit exceeded for %s", audience).
				Component("webpush").
				Category(errors.CategoryLimit).
				Build()
		}
	}

	token, err := vapid.SignToken(keys, audience, d.settings.VAPID.Subject)
	if err != nil {
		return nil, err
	}

	messageID := uuid.NewString()
	if msg != nil && msg.Title != "" {
		d.logger.Info("dispatching notification",
			"message_id", messageID,
			"audience", audience,
			"title", msg.Title)
	}

	// The deadline must cover reading the response body, not only the round
	// trip, so the timeout context is created here and cancelled after the
	// body is consumed.
	sendTimeout := d.settings.Push.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = httpclient.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component("webpush").
			Category(errors.CategoryValidation).
			Context("endpoint", sub.Endpoint).
			Build()
	}
	req.Header.Set("TTL", strconv.Itoa(d.settings.Push.TTLSeconds))
	req.Header.Set("Authorization", "WebPush "+token)
	req.Header.Set("Crypto-Key", "p256ecdsa="+keys.PublicKeyB64())

	start := time.Now()
	resp, err := d.client.Do(ctx, req)
	duration := time.Since(start)
	if d.metrics != nil {
		d.metrics.ObserveSendDuration(duration)
	}
	if err != nil {
		if d.metrics != nil {
			d.metrics.RecordSend(string(OutcomeTransientError))
		}
		d.logger.Error("push delivery failed",
			"message_id", messageID,
			"audience", audience,
			"error", err)
		return nil, errors.New(err).
			Component("webpush").
			Category(errors.CategoryNetwork).
			Context("audience", audience).
			Build()
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))

	result := &Result{
		MessageID:  messageID,
		Endpoint:   sub.Endpoint,
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Duration:   duration,
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Outcome = OutcomeDelivered
		result.Body = ""
		d.logger.Info("push delivered",
			"message_id", messageID,
			"audience", audience,
			"status", resp.StatusCode,
			"duration_ms", duration.Milliseconds())
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Outcome = OutcomeInvalidSubscription
		d.logger.Warn("subscription gone, invalidating",
			"message_id", messageID,
			"audience", audience,
			"status", resp.StatusCode)
		d.invalidate(sub.Endpoint)
	default:
		result.Outcome = OutcomeRejected
		d.logger.Warn("push rejected",
			"message_id", messageID,
			"audience", audience,
			"status", resp.StatusCode,
			"body", result.Body)
	}

	if d.metrics != nil {
		d.metrics.RecordSend(string(result.Outcome))
	}
	return result, nil
}

// PublicKeyB64 returns the advertised application server key, importing the
// configured keys on first use.
func (d *Dispatcher) PublicKeyB64() (string, error) {
	keys, err := d.ensureKeys()
	if err != nil {
		return "", err
	}
	return keys.PublicKeyB64(), nil
}

// ensureKeys imports the configured VAPID keys once and caches the handle.
// Import errors are not cached so a config reload can recover.
func (d *Dispatcher) ensureKeys() (*vapid.Keys, error) {
	d.keyMu.Lock()
	defer d.keyMu.Unlock()
	if d.keys != nil {
		return d.keys, nil
	}

	keys, err := vapid.ImportKeys(d.settings.VAPID.PrivateKey, d.settings.VAPID.PublicKey)
	if err != nil {
		if d.metrics != nil {
			d.metrics.SetKeysLoaded(false)
		}
		return nil, err
	}
	d.keys = keys
	if d.metrics != nil {
		d.metrics.SetKeysLoaded(true)
	}
	return keys, nil
}

// limiter returns the rate limiter for a push service origin, creating it on
// first use.
func (d *Dispatcher) limiter(origin string, rl *conf.RateLimitSettings) *rate.Limiter {
	d.limiterMu.Lock()
	defer d.limiterMu.Unlock()
	if l, ok := d.limiters[origin]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	d.limiters[origin] = l
	return l
}

// invalidate deletes a gone subscription from the store. Best effort: a
// failed delete is logged and counted but never surfaces to the caller, and
// repeated deletes for the same endpoint are suppressed within the
// invalidation window.
func (d *Dispatcher) invalidate(endpoint string) {
	if err := d.invalidated.Add(endpoint, struct{}{}, cache.DefaultExpiration); err != nil {
		// A delete for this endpoint was already issued recently.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	if err := d.store.DeleteByEndpoint(ctx, endpoint); err != nil {
		if d.metrics != nil {
			d.metrics.RecordStoreDeleteError()
		}
		d.logger.Error("failed to delete invalid subscription",
			"endpoint", endpoint,
			"error", err)
		return
	}
	if d.metrics != nil {
		d.metrics.RecordInvalidation()
	}
	d.logger.Info("deleted invalid subscription", "endpoint", endpoint)
}

// Close releases the dispatcher's HTTP connections and log writer.
func (d *Dispatcher) Close() {
	d.client.Close()
	if d.loggerClose != nil {
		_ = d.loggerClose()
	}
}
