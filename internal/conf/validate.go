// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateVAPIDSettings(&settings.VAPID); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validatePushSettings(&settings.Push); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateStoreSettings(&settings.Store); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateWebServerSettings checks listen address and port.
func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	if settings.Host != "" {
		if ip := net.ParseIP(settings.Host); ip == nil && settings.Host != "localhost" {
			return fmt.Errorf("webserver host must be an IP address or 'localhost', got %q", settings.Host)
		}
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver port must be a number between 1 and 65535, got %q", settings.Port)
	}
	return nil
}

// validateVAPIDSettings checks the contact subject. Key material itself is
// validated at import time; absent keys are a per-request configuration error
// rather than a startup failure so that preflight and health endpoints work
// on misconfigured deployments.
func validateVAPIDSettings(settings *VAPIDSettings) error {
	if settings.Subject == "" {
		settings.Subject = DefaultVAPIDSubject
		return nil
	}
	if strings.HasPrefix(settings.Subject, "mailto:") {
		if len(settings.Subject) <= len("mailto:") {
			return fmt.Errorf("vapid subject mailto: URI must include an address")
		}
		return nil
	}
	u, err := url.Parse(settings.Subject)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("vapid subject must be a mailto: or https: URI, got %q", settings.Subject)
	}
	return nil
}

// validatePushSettings checks delivery tuning values.
func validatePushSettings(settings *PushSettings) error {
	if settings.TTLSeconds < 0 {
		return fmt.Errorf("push ttlseconds must be >= 0, got %d", settings.TTLSeconds)
	}
	if settings.TTLSeconds == 0 {
		settings.TTLSeconds = DefaultPushTTLSeconds
	}
	if settings.SendTimeout < 0 {
		return fmt.Errorf("push sendtimeout must be >= 0, got %s", settings.SendTimeout)
	}
	if settings.SendTimeout == 0 {
		settings.SendTimeout = DefaultSendTimeout
	}
	if settings.RateLimit.Enabled {
		if settings.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("push ratelimit requestspersecond must be > 0, got %v", settings.RateLimit.RequestsPerSecond)
		}
		if settings.RateLimit.Burst <= 0 {
			return fmt.Errorf("push ratelimit burst must be > 0, got %d", settings.RateLimit.Burst)
		}
	}
	return nil
}

// validateStoreSettings checks the selected store backend configuration.
func validateStoreSettings(settings *StoreSettings) error {
	switch strings.ToLower(settings.Backend) {
	case "", "none":
		settings.Backend = "none"
		return nil
	case "sqlite":
		if settings.SQLite.Path == "" {
			return fmt.Errorf("store sqlite path is required for the sqlite backend")
		}
		return nil
	case "rest":
		if settings.REST.URL == "" {
			return fmt.Errorf("store rest url is required for the rest backend")
		}
		u, err := url.Parse(settings.REST.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("store rest url must be a valid http(s) URL, got %q", settings.REST.URL)
		}
		if settings.REST.Table == "" {
			settings.REST.Table = "push_subscriptions"
		}
		return nil
	default:
		return fmt.Errorf("store backend must be one of: rest, sqlite, none; got %q", settings.Backend)
	}
}
