package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	WordPress WordPressConfig `toml:"wordpress"`
	Storage   StorageConfig   `toml:"storage"`
	Legacy    LegacyConfig    `toml:"legacy"`
	Dedup     DedupConfig     `toml:"dedup"`
}

// DatabaseConfig contains target store connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// WordPressConfig contains settings for the legacy CMS REST API.
type WordPressConfig struct {
	APIBase        string   `toml:"api_base"`
	LegacyHosts    []string `toml:"legacy_hosts"`
	PerPage        int      `toml:"per_page"`
	RateLimit      float64  `toml:"rate_limit"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// StorageConfig contains S3-compatible (R2) object storage settings.
type StorageConfig struct {
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Bucket          string `toml:"bucket"`
	PublicBaseURL   string `toml:"public_base_url"`
	Region          string `toml:"region"`
}

// Configured reports whether uploads can be attempted at all.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Bucket != ""
}

// LegacyConfig contains the legacy WordPress MySQL connection settings.
type LegacyConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	Name        string `toml:"name"`
	TablePrefix string `toml:"table_prefix"`
}

// Addr returns the host:port pair for the legacy database.
func (l LegacyConfig) Addr() string {
	port := l.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%d", l.Host, port)
}

// Validate checks that enough is set to open a connection.
func (l LegacyConfig) Validate() error {
	var missing []string
	if l.Host == "" {
		missing = append(missing, "LEGACY_DB_HOST")
	}
	if l.User == "" {
		missing = append(missing, "LEGACY_DB_USER")
	}
	if l.Name == "" {
		missing = append(missing, "LEGACY_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// DedupConfig contains settings for subscriber deduplication.
type DedupConfig struct {
	KnownDomains []string `toml:"known_domains"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process environment.
//
// A missing file is not an error. Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with environment variables looked up through lookup.
//
// Pass [os.LookupEnv] in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(target *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*target = v
				return
			}
		}
	}

	str(&c.Database.Path, "DATABASE_PATH")
	str(&c.WordPress.APIBase, "WP_API_BASE")

	str(&c.Storage.Endpoint, "R2_ENDPOINT")
	str(&c.Storage.AccessKeyID, "R2_ACCESS_KEY_ID")
	str(&c.Storage.SecretAccessKey, "R2_SECRET_ACCESS_KEY")
	str(&c.Storage.Bucket, "R2_BUCKET", "R2_BUCKET_NAME")
	str(&c.Storage.PublicBaseURL, "R2_PUBLIC_BASE_URL")

	str(&c.Legacy.Host, "LEGACY_DB_HOST")
	str(&c.Legacy.User, "LEGACY_DB_USER")
	str(&c.Legacy.Password, "LEGACY_DB_PASSWORD")
	str(&c.Legacy.Name, "LEGACY_DB_NAME")

	if v, ok := lookup("LEGACY_DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: LEGACY_DB_PORT=%q", ErrInvalidConfig, v)
		}
		c.Legacy.Port = port
	}

	return nil
}

// ResolveConfig builds the effective configuration: embedded defaults, then the TOML file at
// path when it exists, then the dotenv file, then the process environment.
func ResolveConfig(path, envFile string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, nil
}
