// env.go - Environment variable configuration and validation for PushGate
package conf

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// VAPID key material. The keys are deployment secrets and are
		// expected to arrive via environment rather than the config file.
		{"vapid.subject", "VAPID_SUBJECT", validateEnvSubject},
		{"vapid.publickey", "VAPID_PUBLIC_KEY", validateEnvBase64URL},
		{"vapid.privatekey", "VAPID_PRIVATE_KEY", validateEnvBase64URL},

		// Subscription store connection
		{"store.backend", "PUSHGATE_STORE_BACKEND", validateEnvStoreBackend},
		{"store.rest.url", "PUSHGATE_STORE_URL", validateEnvURL},
		{"store.rest.apikey", "PUSHGATE_STORE_KEY", nil},
		{"store.rest.table", "PUSHGATE_STORE_TABLE", nil},
		{"store.sqlite.path", "PUSHGATE_SQLITE_PATH", nil},

		// Service tuning
		{"webserver.host", "PUSHGATE_HOST", nil},
		{"webserver.port", "PUSHGATE_PORT", validateEnvPort},
		{"push.ttlseconds", "PUSHGATE_PUSH_TTL", validateEnvPositiveInt},
		{"debug", "PUSHGATE_DEBUG", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be a boolean value")
	}
	return nil
}

// validateEnvPositiveInt validates positive integer environment variables
func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// validateEnvPort validates TCP port numbers
func validateEnvPort(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}

// validateEnvBase64URL checks that the value decodes as unpadded base64url.
// Length checks happen at key-import time where the error can be attributed.
func validateEnvBase64URL(value string) error {
	if _, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "=")); err != nil {
		return fmt.Errorf("must be base64url encoded: %w", err)
	}
	return nil
}

// validateEnvSubject validates the VAPID subject contact URI
func validateEnvSubject(value string) error {
	if strings.HasPrefix(value, "mailto:") {
		if len(value) <= len("mailto:") {
			return fmt.Errorf("mailto: subject must include an address")
		}
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("must be a mailto: or https: URI")
	}
	return nil
}

// validateEnvURL validates http(s) URLs
func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is required")
	}
	return nil
}

// validateEnvStoreBackend validates the subscription store backend selector
func validateEnvStoreBackend(value string) error {
	switch strings.ToLower(value) {
	case "rest", "sqlite", "none":
		return nil
	default:
		return fmt.Errorf("must be one of: rest, sqlite, none")
	}
}
