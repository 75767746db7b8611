package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// ReviewMode selects which review submission contract is served on the review endpoint.
type ReviewMode string

const (
	// ReviewModePersist requires an authenticated caller and forwards the review to the dealer API.
	ReviewModePersist ReviewMode = "persist"
	// ReviewModeAnalyze accepts anonymous submissions and only returns the sentiment of the text.
	ReviewModeAnalyze ReviewMode = "analyze"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config holds the configuration for the dealerhub server and its dependencies.
type Config struct {
	// Listen is the address the dealerhub server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the server. Cookies are marked secure for https URLs.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign the session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SessionCleanupInterval is how often expired and revoked sessions are purged. Zero disables the job.
	SessionCleanupInterval time.Duration `yaml:"session_cleanup_interval" mapstructure:"session_cleanup_interval"`

	// Database holds the local database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Dealers holds the configuration for the external dealer and review API.
	Dealers *DealersConfig `yaml:"dealers" mapstructure:"dealers"`
	// Sentiment holds the configuration for the sentiment analysis service.
	Sentiment *SentimentConfig `yaml:"sentiment" mapstructure:"sentiment"`
	// Review holds the review submission configuration.
	Review *ReviewConfig `yaml:"review" mapstructure:"review"`
	// Cache holds the configuration for the sentiment cache.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// Log holds the logging configuration.
	Log *LogConfig `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig holds the sqlite database configuration.
type DatabaseConfig struct {
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// DealersConfig holds the configuration for the dealer and review REST API.
type DealersConfig struct {
	// URL is the base URL of the dealer API.
	URL string `yaml:"url" mapstructure:"url"`
	// APIKey is sent as X-Api-Key when set.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Timeout bounds every request to the dealer API.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SentimentConfig holds the configuration for the sentiment analyzer.
type SentimentConfig struct {
	// URL is the base URL of the sentiment analyzer.
	URL string `yaml:"url" mapstructure:"url"`
	// Timeout bounds every request to the sentiment analyzer.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Concurrency is the number of reviews classified in parallel for a single request.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ReviewConfig holds the review submission configuration.
type ReviewConfig struct {
	// Mode is either "persist" or "analyze".
	Mode ReviewMode `yaml:"mode" mapstructure:"mode"`
}

// CacheConfig holds the cache configuration.
type CacheConfig struct {
	// Enabled turns on caching of sentiment labels.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Type is the cache backend, "memory" or "redis".
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the redis server when Type is "redis".
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long a cached value is kept.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Format is either "text" or "json".
	Format LogFormat `yaml:"format" mapstructure:"format"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	// bind some weirdly unsupported nested env vars
	bindNestedEnv(v)

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("DEALERHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dealerhub")
		v.AddConfigPath("/etc/dealerhub")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults and the environment
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the DEALERHUB_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3030")
	v.SetDefault("server_url", "http://localhost:3030")
	v.SetDefault("session_max_age", 172800) // 48 hour
	v.SetDefault("session_key", "")
	v.SetDefault("session_cleanup_interval", time.Hour)

	// Database defaults
	v.SetDefault("database.path", "./data/dealerhub.db")

	// Upstream defaults
	v.SetDefault("dealers.api_key", "")
	v.SetDefault("dealers.timeout", 10*time.Second)
	v.SetDefault("sentiment.timeout", 5*time.Second)
	v.SetDefault("sentiment.concurrency", 4)

	// Review defaults
	v.SetDefault("review.mode", ReviewModePersist)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 24*time.Hour)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "robohash")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)

	// Log defaults
	v.SetDefault("log.format", LogFormatText)
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// Keys without a default have to be bound manually.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("dealers.url", "DEALERHUB_DEALERS_URL")
	v.MustBindEnv("sentiment.url", "DEALERHUB_SENTIMENT_URL")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing dealerhub config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.SessionCleanupInterval < 0 {
		return fmt.Errorf("session cleanup interval must not be negative")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Dealers == nil || c.Dealers.URL == "" {
		return fmt.Errorf("dealers URL is required")
	}
	if c.Dealers.Timeout <= 0 {
		return fmt.Errorf("dealers timeout must be greater than 0")
	}

	if c.Sentiment == nil || c.Sentiment.URL == "" {
		return fmt.Errorf("sentiment URL is required")
	}
	if c.Sentiment.Timeout <= 0 {
		return fmt.Errorf("sentiment timeout must be greater than 0")
	}
	if c.Sentiment.Concurrency < 1 {
		return fmt.Errorf("sentiment concurrency must be at least 1")
	}

	if c.Review == nil {
		return fmt.Errorf("missing review config")
	}
	switch c.Review.Mode {
	case ReviewModePersist, ReviewModeAnalyze:
	default:
		return fmt.Errorf("invalid review mode %q, must be %q or %q", c.Review.Mode, ReviewModePersist, ReviewModeAnalyze)
	}

	if c.Cache != nil && c.Cache.Enabled {
		switch c.Cache.Type {
		case CacheTypeMemory:
		case CacheTypeRedis:
			if c.Cache.RedisURL == "" {
				return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
			}
		default:
			return fmt.Errorf("invalid cache type %q", c.Cache.Type)
		}
	}

	if c.Log != nil {
		switch c.Log.Format {
		case LogFormatText, LogFormatJSON:
		default:
			return fmt.Errorf("invalid log format %q", c.Log.Format)
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = strings.TrimSpace(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Dealers != nil {
		c.Dealers.URL = urlSanitize(c.Dealers.URL)
	}

	if c.Sentiment != nil {
		c.Sentiment.URL = urlSanitize(c.Sentiment.URL)
	}

	if c.Review != nil {
		c.Review.Mode = ReviewMode(strings.ToLower(strings.TrimSpace(string(c.Review.Mode))))
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// SecureCookies reports whether session cookies should only be sent over https.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.ServerURL, "https://")
}
