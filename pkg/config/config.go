package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	VideoSearch VideoSearchConfig
	WebSearch   WebSearchConfig
	Proxy       ProxyConfig
	Chat        ChatConfig
	Catalog     CatalogConfig
	Geolocation GeolocationConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// VideoSearchConfig holds credentials for the video search proxy
type VideoSearchConfig struct {
	YouTubeAPIKey     string
	VimeoAccessToken  string
	VimeoBaseURL      string
	CuratedFallback   bool
	ResultCacheTTL    time.Duration
	MaxYouTubeResults int
}

// WebSearchConfig holds Google Custom Search credentials
type WebSearchConfig struct {
	APIKey   string
	EngineID string
}

// ProxyConfig controls calls to, and exposure of, the search proxies
type ProxyConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int

	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string
}

// ChatConfig holds conversation session settings
type ChatConfig struct {
	SessionTTL   time.Duration
	SessionStore string
}

// CatalogConfig selects where museum records come from
type CatalogConfig struct {
	DataFile     string
	SynonymsFile string
	WarmInterval time.Duration
}

// GeolocationConfig enables geocoding for cities outside the built-in directory
type GeolocationConfig struct {
	GoogleMapsAPIKey string
	Region           string
	CacheTTL         time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "musemate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		VideoSearch: VideoSearchConfig{
			YouTubeAPIKey:     getEnv("YOUTUBE_API_KEY", ""),
			VimeoAccessToken:  getEnv("VIMEO_ACCESS_TOKEN", ""),
			VimeoBaseURL:      getEnv("VIMEO_BASE_URL", "https://api.vimeo.com"),
			CuratedFallback:   getEnvAsBool("VIDEO_CURATED_FALLBACK", false),
			ResultCacheTTL:    getEnvAsDuration("VIDEO_CACHE_TTL", 6*time.Hour),
			MaxYouTubeResults: getEnvAsInt("YOUTUBE_MAX_RESULTS", 5),
		},
		WebSearch: WebSearchConfig{
			APIKey:   getEnv("GOOGLE_SEARCH_API_KEY", ""),
			EngineID: getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),
		},
		Proxy: ProxyConfig{
			BaseURL:        getEnv("PROXY_BASE_URL", "http://localhost:8080"),
			Timeout:        getEnvAsDuration("PROXY_TIMEOUT", 10*time.Second),
			RateLimit:      getEnvAsFloat("PROXY_RATE_LIMIT", 2),
			RateBurst:      getEnvAsInt("PROXY_RATE_BURST", 10),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
		},
		Chat: ChatConfig{
			SessionTTL:   getEnvAsDuration("CHAT_SESSION_TTL", 30*time.Minute),
			SessionStore: getEnv("CHAT_SESSION_STORE", "redis"),
		},
		Catalog: CatalogConfig{
			DataFile:     getEnv("MUSEUM_DATA_FILE", ""),
			SynonymsFile: getEnv("SEARCH_SYNONYMS_FILE", ""),
			WarmInterval: getEnvAsDuration("CACHE_WARM_INTERVAL", 15*time.Minute),
		},
		Geolocation: GeolocationConfig{
			GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			Region:           getEnv("GEOCODE_REGION", "in"),
			CacheTTL:         getEnvAsDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "musemate"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("PROXY_TIMEOUT must be positive, got %s", c.Proxy.Timeout)
	}
	if c.Chat.SessionTTL <= 0 {
		return fmt.Errorf("CHAT_SESSION_TTL must be positive, got %s", c.Chat.SessionTTL)
	}
	switch c.Chat.SessionStore {
	case "redis", "memory":
	default:
		return fmt.Errorf("CHAT_SESSION_STORE must be redis or memory, got %q", c.Chat.SessionStore)
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WebSearchEnabled reports whether Custom Search credentials are present
func (c *WebSearchConfig) WebSearchEnabled() bool {
	return c.APIKey != "" && c.EngineID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
