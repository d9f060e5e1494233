package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bbernstein/shiptracker/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StalePolicy decides what the display route shows when a refresh fails.
type StalePolicy string

const (
	// StalePolicyError always renders the error image on a failed refresh.
	StalePolicyError StalePolicy = "error"
	// StalePolicyLastKnownGood renders the last record, marked stale, while it is younger than MaxStaleAge.
	StalePolicyLastKnownGood StalePolicy = "last_known_good"
)

const (
	defaultVesselFinderURL = "https://api.vesselfinder.com/vessels"
	defaultMMSI            = "235103357" // Sapphire Princess
	maxDisplayDimension    = 4096
)

type Config struct {
	Environment string `koanf:"env"`
	LogLevel    string `koanf:"log_level"`
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	Debug       bool   `koanf:"debug"`

	MMSI               string        `koanf:"mmsi"`
	VesselFinderAPIKey string        `koanf:"vesselfinder_api_key"`
	VesselFinderURL    string        `koanf:"vesselfinder_api_url"`
	HTTPTimeout        time.Duration `koanf:"http_timeout"`

	// Seconds, matching the env contract of the device plugin.
	CacheTimeoutSeconds    int `koanf:"cache_timeout"`
	RefreshIntervalSeconds int `koanf:"refresh_interval"`

	DisplayWidth  int `koanf:"display_width"`
	DisplayHeight int `koanf:"display_height"`

	StalePolicy StalePolicy   `koanf:"stale_policy"`
	MaxStaleAge time.Duration `koanf:"max_stale_age"`

	TRMNLAPIKey     string `koanf:"trmnl_api_key"`
	TRMNLPluginUUID string `koanf:"trmnl_plugin_uuid"`

	ImageBucket string `koanf:"image_bucket"`
	ImageKey    string `koanf:"image_key"`
	S3Endpoint  string `koanf:"s3_endpoint"`

	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
	RateLimitRequests  int           `koanf:"rate_limit_requests"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RenderCacheSize    int           `koanf:"render_cache_size"`
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithDebug turns on debug logging to the console
func WithDebug(debug bool) Option {
	return func(c *Config) {
		c.Debug = debug
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithHTTPTimeout allows setting the upstream request timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithMMSI(mmsi string) Option {
	return func(c *Config) {
		c.MMSI = mmsi
	}
}

func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.VesselFinderAPIKey = key
	}
}

func WithVesselFinderURL(u string) Option {
	return func(c *Config) {
		c.VesselFinderURL = u
	}
}

func WithCacheTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CacheTimeoutSeconds = int(d / time.Second)
	}
}

func WithDisplaySize(width, height int) Option {
	return func(c *Config) {
		c.DisplayWidth = width
		c.DisplayHeight = height
	}
}

func WithStalePolicy(policy StalePolicy, maxAge time.Duration) Option {
	return func(c *Config) {
		c.StalePolicy = policy
		c.MaxStaleAge = maxAge
	}
}

func WithImageBucket(bucket, key string) Option {
	return func(c *Config) {
		c.ImageBucket = bucket
		c.ImageKey = key
	}
}

func defaults() *Config {
	return &Config{
		Environment:            "production",
		LogLevel:               "info",
		Host:                   "0.0.0.0",
		Port:                   8080,
		MMSI:                   defaultMMSI,
		VesselFinderURL:        defaultVesselFinderURL,
		HTTPTimeout:            10 * time.Second,
		CacheTimeoutSeconds:    600,
		RefreshIntervalSeconds: 21600,
		DisplayWidth:           800,
		DisplayHeight:          480,
		StalePolicy:            StalePolicyError,
		MaxStaleAge:            24 * time.Hour,
		ImageKey:               "display.bmp",
		CORSAllowedOrigins:     []string{"*"},
		RateLimitRequests:      60,
		RateLimitWindow:        time.Minute,
		RenderCacheSize:        16,
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := defaults()

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func (c *Config) CacheTimeout() time.Duration {
	return time.Duration(c.CacheTimeoutSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	if c.Debug {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Validate reports the first configuration problem that would prevent serving.
func (c *Config) Validate() error {
	var missing []string
	if c.VesselFinderAPIKey == "" {
		missing = append(missing, "VESSELFINDER_API_KEY")
	}
	if c.MMSI == "" {
		missing = append(missing, "MMSI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if !models.ValidMMSI(c.MMSI) {
		return fmt.Errorf("invalid MMSI %q: expected 9 digits with a ship station MID", c.MMSI)
	}
	if c.CacheTimeoutSeconds <= 0 {
		return fmt.Errorf("cache timeout must be positive, got %d", c.CacheTimeoutSeconds)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 ||
		c.DisplayWidth > maxDisplayDimension || c.DisplayHeight > maxDisplayDimension {
		return fmt.Errorf("invalid display dimensions %dx%d", c.DisplayWidth, c.DisplayHeight)
	}

	switch c.StalePolicy {
	case StalePolicyError, StalePolicyLastKnownGood:
	default:
		return fmt.Errorf("unknown stale policy %q", c.StalePolicy)
	}

	return nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.Level())

	if c.consoleLogging() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// consoleLogging is true for development environments and whenever debug mode is on.
func (c *Config) consoleLogging() bool {
	return c.Debug || c.Environment == "local" || c.Environment == "development"
}
