// conf/consts.go shared configuration constants
package conf

import "time"

const (
	// DefaultVAPIDSubject is used when the operator has not configured a
	// contact URI. Push services only require a syntactically valid URI.
	DefaultVAPIDSubject = "mailto:support@gridlead.app"

	// DefaultPushTTLSeconds is the TTL header value for push requests,
	// i.e. how long the push service retains the message for an offline
	// device.
	DefaultPushTTLSeconds = 60

	// DefaultSendTimeout bounds a single delivery attempt.
	DefaultSendTimeout = 15 * time.Second
)
