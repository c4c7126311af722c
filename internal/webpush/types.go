// Package webpush delivers VAPID-authenticated push messages to browser
// push services and invalidates subscriptions the service reports gone.
package webpush

import (
	"fmt"
	"net/url"
	"time"
)

// SubscriptionKeys carries the client-side encryption keys from the browser
// PushSubscription. They are stored and forwarded but not used for sending:
// deliveries carry no payload, so no content encryption happens here.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is a browser push subscription as delivered by the
// PushManager API.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

// Audience returns the push service origin (scheme://host) of the
// subscription endpoint, which is the JWT audience the service verifies.
func (s *Subscription) Audience() (string, error) {
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid subscription endpoint")
	}
	return u.Scheme + "://" + u.Host, nil
}

// Message is the notification content associated with a dispatch. Deliveries
// carry no payload, so the content never reaches the push service; it is
// logged and stamped with the message ID so the caller can correlate the
// wake-up signal with content fetched out of band.
type Message struct {
	Title string         `json:"title,omitempty"`
	Body  string         `json:"body,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Outcome classifies one delivery attempt.
type Outcome string

const (
	// OutcomeDelivered means the push service accepted the message.
	OutcomeDelivered Outcome = "delivered"

	// OutcomeInvalidSubscription means the service reported the
	// subscription gone (404 or 410); it has been queued for deletion.
	OutcomeInvalidSubscription Outcome = "invalid_subscription"

	// OutcomeRejected means the service refused the message with some
	// other status.
	OutcomeRejected Outcome = "rejected"

	// OutcomeTransientError means no response was obtained: rate limiting
	// or a transport failure. The send may be retried later.
	OutcomeTransientError Outcome = "transient_error"
)

// Result describes one completed delivery attempt. StatusCode and Body hold
// the push service's response; Body is truncated for rejections.
type Result struct {
	MessageID  string
	Endpoint   string
	Outcome    Outcome
	StatusCode int
	Body       string
	Duration   time.Duration
}

// Delivered reports whether the push service accepted the message.
func (r *Result) Delivered() bool {
	return r.Outcome == OutcomeDelivered
}
