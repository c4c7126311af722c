package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestSettings() *Settings {
	return &Settings{
		WebServer: WebServerSettings{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    "8090",
		},
		VAPID: VAPIDSettings{
			Subject: "mailto:ops@example.com",
		},
		Push: PushSettings{
			TTLSeconds:  60,
			SendTimeout: 15 * time.Second,
		},
		Store: StoreSettings{Backend: "none"},
	}
}

func TestValidateSettings_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSettings(validTestSettings()))
}

func TestValidateSettings_WebServerPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		port    string
		wantErr bool
	}{
		{"valid port", "8090", false},
		{"empty port", "", true},
		{"non-numeric", "http", true},
		{"out of range", "70000", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validTestSettings()
			s.WebServer.Port = tt.port
			err := ValidateSettings(s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSettings_VAPIDSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		subject string
		wantErr bool
	}{
		{"mailto subject", "mailto:ops@example.com", false},
		{"https subject", "https://gridlead.app/contact", false},
		{"empty defaults", "", false},
		{"bare mailto", "mailto:", true},
		{"http subject", "http://gridlead.app", true},
		{"garbage", "not-a-uri", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validTestSettings()
			s.VAPID.Subject = tt.subject
			err := ValidateSettings(s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSettings_SubjectDefaultApplied(t *testing.T) {
	t.Parallel()

	s := validTestSettings()
	s.VAPID.Subject = ""
	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, DefaultVAPIDSubject, s.VAPID.Subject)
}

func TestValidateSettings_PushDefaults(t *testing.T) {
	t.Parallel()

	s := validTestSettings()
	s.Push.TTLSeconds = 0
	s.Push.SendTimeout = 0
	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, DefaultPushTTLSeconds, s.Push.TTLSeconds)
	assert.Equal(t, DefaultSendTimeout, s.Push.SendTimeout)
}

func TestValidateSettings_RateLimit(t *testing.T) {
	t.Parallel()

	s := validTestSettings()
	s.Push.RateLimit = RateLimitSettings{Enabled: true, RequestsPerSecond: 0, Burst: 10}
	assert.Error(t, ValidateSettings(s))

	s = validTestSettings()
	s.Push.RateLimit = RateLimitSettings{Enabled: true, RequestsPerSecond: 10, Burst: 0}
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettings_StoreBackends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		store   StoreSettings
		wantErr bool
	}{
		{"none backend", StoreSettings{Backend: "none"}, false},
		{"empty backend normalizes", StoreSettings{}, false},
		{"sqlite needs path", StoreSettings{Backend: "sqlite"}, true},
		{"sqlite with path", StoreSettings{Backend: "sqlite", SQLite: SQLiteStoreSettings{Path: "test.db"}}, false},
		{"rest needs url", StoreSettings{Backend: "rest"}, true},
		{"rest with url", StoreSettings{Backend: "rest", REST: RESTStoreSettings{URL: "https://db.example.com/rest/v1"}}, false},
		{"rest bad url", StoreSettings{Backend: "rest", REST: RESTStoreSettings{URL: "ftp://db.example.com"}}, true},
		{"unknown backend", StoreSettings{Backend: "redis"}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validTestSettings()
			s.Store = tt.store
			err := ValidateSettings(s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSettings_RESTTableDefault(t *testing.T) {
	t.Parallel()

	s := validTestSettings()
	s.Store = StoreSettings{Backend: "rest", REST: RESTStoreSettings{URL: "https://db.example.com/rest/v1"}}
	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, "push_subscriptions", s.Store.REST.Table)
}
