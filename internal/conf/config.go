// config.go: settings for the PushGate service. Defines the Settings struct
// and functions to load and persist the configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled    bool   // true to enable this log
	Path       string // path to log file
	MaxSize    int    // maximum log file size in MB before rotation
	MaxBackups int    // number of rotated log files to keep
	MaxAge     int    // days to retain rotated log files
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of the PushGate node
	Log  LogConfig // default log file settings
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Enabled bool   // true to enable the HTTP API
	Host    string // listen address
	Port    string // listen port
	Log     LogConfig
}

// VAPIDSettings holds the server identification key material for Web Push.
// PublicKey is the base64url uncompressed P-256 point, PrivateKey the
// base64url 32-byte scalar. Both are usually supplied via environment.
type VAPIDSettings struct {
	Subject    string // mailto: or https: URI identifying the operator
	PublicKey  string // base64url 65-byte uncompressed public key
	PrivateKey string // base64url 32-byte private scalar
}

// Configured reports whether both halves of the key pair are present.
func (v *VAPIDSettings) Configured() bool {
	return v.PublicKey != "" && v.PrivateKey != ""
}

// PushSettings controls push delivery behaviour.
type PushSettings struct {
	TTLSeconds    int           // TTL header sent to the push service
	SendTimeout   time.Duration // per-attempt timeout for the outbound POST
	RateLimit     RateLimitSettings
	InvalidateTTL time.Duration // window during which repeated deletes for an endpoint are suppressed
	Log           LogConfig
	Debug         bool
}

// RateLimitSettings bounds outbound sends per push-service origin.
type RateLimitSettings struct {
	Enabled           bool
	RequestsPerSecond float64 // sustained rate per origin
	Burst             int     // burst capacity per origin
}

// StoreSettings selects and configures the subscription store backend.
type StoreSettings struct {
	Backend string // "rest", "sqlite" or "none"
	REST    RESTStoreSettings
	SQLite  SQLiteStoreSettings
}

// RESTStoreSettings points at a PostgREST-style subscription table owned by
// the surrounding application. Only the invalidation delete is issued here.
type RESTStoreSettings struct {
	URL    string // base URL of the REST endpoint
	APIKey string // service key sent as apikey and bearer token
	Table  string // table holding push subscriptions
}

// SQLiteStoreSettings configures the local subscription store.
type SQLiteStoreSettings struct {
	Path string // path to the SQLite database file
}

// Settings is the top-level configuration of the service.
type Settings struct {
	Debug bool // true to enable debug logging

	Main      MainSettings
	WebServer WebServerSettings
	VAPID     VAPIDSettings
	Push      PushSettings
	Store     StoreSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings struct and stores it as the process-wide instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Defaults defined in defaults.go
	setDefaultConfig()

	// Environment bindings defined in env.go
	if err := bindEnvVars(); err != nil {
		// Bindings with invalid values are reported but not fatal, the
		// per-section validation decides what is actually required.
		log.Printf("configuration environment warnings: %v", err)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first default
// config path and reads it back in.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetSettings replaces the process-wide settings instance. Intended for tests
// and for the CLI commands that construct settings directly.
func SetSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// SaveSettings writes the current settings to the configuration file with an
// atomic rename. VAPID key material supplied via environment is written out
// as-is; operators who keep keys only in the environment should not call this.
func SaveSettings() error {
	settingsMutex.RLock()
	settingsCopy := *settingsInstance
	settingsMutex.RUnlock()

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	data, err := yaml.Marshal(&settingsCopy)
	if err != nil {
		return fmt.Errorf("error marshaling settings to yaml: %w", err)
	}

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the paths where the config file is searched,
// in priority order: current directory, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "pushgate"))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no config paths available")
	}
	return paths, nil
}
