package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultGtfsURL                = "./testdata/delhi-metro"
	defaultDataPath               = "./gtfs.db"
	defaultOverlapThresholdMeters = 150
	defaultCacheTTLSeconds        = 300
)

// GtfsStaticFeed describes where the static GTFS zip is fetched from.
type GtfsStaticFeed struct {
	URL             string `json:"url"`
	AuthHeaderName  string `json:"auth-header-name"`
	AuthHeaderValue string `json:"auth-header-value"`
	Tidy            bool   `json:"tidy"`
}

// RedisConfig enables the shared response cache when Addr is set.
type RedisConfig struct {
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	TTLSeconds int    `json:"ttl-seconds"`
}

// JSONConfig is the on-disk representation loaded with -config.
type JSONConfig struct {
	Port                   int            `json:"port"`
	Env                    string         `json:"env"`
	ApiKeys                []string       `json:"api-keys"`
	ExemptApiKeys          []string       `json:"exempt-api-keys"`
	RateLimit              int            `json:"rate-limit"`
	GtfsStaticFeed         GtfsStaticFeed `json:"gtfs-static-feed"`
	DataPath               string         `json:"data-path"`
	DBDriver               string         `json:"db-driver"`
	OverlapThresholdMeters float64        `json:"overlap-threshold-meters"`
	Redis                  RedisConfig    `json:"redis"`
}

// GtfsConfigData carries the feed settings that the GTFS manager needs.
type GtfsConfigData struct {
	GtfsURL               string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string
	GTFSDataPath          string
	DBDriver              string
	TidyFeed              bool
	Env                   Environment
	Verbose               bool
}

func (c *JSONConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = 4000
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if len(c.ApiKeys) == 0 {
		c.ApiKeys = []string{"test"}
	}
	if c.RateLimit == 0 {
		c.RateLimit = 100
	}
	if c.GtfsStaticFeed.URL == "" {
		c.GtfsStaticFeed.URL = defaultGtfsURL
	}
	if c.DataPath == "" {
		c.DataPath = defaultDataPath
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite3"
	}
	if c.OverlapThresholdMeters == 0 {
		c.OverlapThresholdMeters = defaultOverlapThresholdMeters
	}
	if c.Redis.Addr != "" && c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = defaultCacheTTLSeconds
	}
}

func (c *JSONConfig) validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case "development", "test", "production":
	default:
		errs = append(errs, fmt.Sprintf("env must be one of: development, test, production; got %q", c.Env))
	}

	if c.RateLimit < 1 {
		errs = append(errs, fmt.Sprintf("rate-limit must be at least 1, got %d", c.RateLimit))
	}

	if len(c.ApiKeys) == 0 {
		errs = append(errs, "api-keys cannot be empty")
	}
	seen := make(map[string]bool, len(c.ApiKeys))
	for _, key := range c.ApiKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, "api-keys cannot contain empty strings")
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Sprintf("duplicate API key found: %q", key))
		}
		seen[key] = true
	}

	switch c.DBDriver {
	case "", "sqlite3", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("db-driver must be sqlite3 or sqlite, got %q", c.DBDriver))
	}

	if c.OverlapThresholdMeters < 0 {
		errs = append(errs, "overlap-threshold-meters must not be negative")
	}

	if c.Redis.DB < 0 {
		errs = append(errs, "redis.db must not be negative")
	}
	if c.Redis.TTLSeconds < 0 {
		errs = append(errs, "redis.ttl-seconds must not be negative")
	}

	if c.DataPath != "" && c.DataPath != ":memory:" && hasTraversal(c.DataPath) {
		errs = append(errs, fmt.Sprintf("data-path must not contain path traversal: %q", c.DataPath))
	}

	url := c.GtfsStaticFeed.URL
	if strings.HasPrefix(strings.ToLower(url), "file://") {
		errs = append(errs, "gtfs-static-feed url: file:// URLs are not allowed")
	} else if url != "" && !isRemoteURL(url) && hasTraversal(url) {
		errs = append(errs, fmt.Sprintf("gtfs-static-feed url must not contain path traversal: %q", url))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func isRemoteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func hasTraversal(path string) bool {
	if filepath.IsAbs(path) {
		return false
	}
	cleaned := filepath.Clean(path)
	return cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator))
}

// ToAppConfig converts the JSON form into the runtime Config.
func (c *JSONConfig) ToAppConfig() Config {
	return Config{
		Port:                   c.Port,
		Env:                    EnvFlagToEnvironment(c.Env),
		ApiKeys:                c.ApiKeys,
		ExemptApiKeys:          c.ExemptApiKeys,
		Verbose:                true,
		RateLimit:              c.RateLimit,
		OverlapThresholdMeters: c.OverlapThresholdMeters,
		RedisAddr:              c.Redis.Addr,
		RedisPassword:          c.Redis.Password,
		RedisDB:                c.Redis.DB,
		CacheTTLSeconds:        c.Redis.TTLSeconds,
	}
}

// ToGtfsConfigData extracts the feed settings.
func (c *JSONConfig) ToGtfsConfigData() GtfsConfigData {
	return GtfsConfigData{
		GtfsURL:               c.GtfsStaticFeed.URL,
		StaticAuthHeaderKey:   c.GtfsStaticFeed.AuthHeaderName,
		StaticAuthHeaderValue: c.GtfsStaticFeed.AuthHeaderValue,
		GTFSDataPath:          c.DataPath,
		DBDriver:              c.DBDriver,
		TidyFeed:              c.GtfsStaticFeed.Tidy,
		Env:                   EnvFlagToEnvironment(c.Env),
		Verbose:               true,
	}
}

// LoadFromFile reads, defaults and validates a JSON config file.
func LoadFromFile(path string) (*JSONConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config JSONConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
