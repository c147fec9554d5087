package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the client and its server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server. Empty means loopback only;
	// use "0.0.0.0" to listen on every interface.
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory holding local storage
	Data string
	// Version is the current version of the client
	Version string
	// StaticDir holds the built frontend served behind the route guard. Optional.
	StaticDir string

	// Upstream API
	APIBaseURL  string        // PDAP_API_URL (legacy: VITE_VUE_API_BASE_URL)
	APIKey      string        // PDAP_API_KEY (legacy: VITE_VUE_API_KEY)
	HTTPTimeout time.Duration // PDAP_HTTP_TIMEOUT (default: 30s)

	// Storage
	LocalDriver   string // PDAP_LOCAL_DRIVER: sqlite | memory (default: sqlite)
	LocalDSN      string // derived from Data when empty
	SessionDriver string // PDAP_SESSION_DRIVER: memory | redis (default: memory)
	RedisAddr     string // PDAP_REDIS_ADDR (default: localhost:6379)
	RedisPassword string // PDAP_REDIS_PASSWORD
	RedisDB       int    // PDAP_REDIS_DB (default: 0)
	RedisPrefix   string // PDAP_REDIS_PREFIX (default: "pdap:")

	// Cache freshness windows
	SearchTTL       time.Duration // PDAP_SEARCH_TTL (default: 3m)
	DataSourceTTL   time.Duration // PDAP_DATA_SOURCE_TTL (default: 2m)
	DataRequestsTTL time.Duration // PDAP_DATA_REQUESTS_TTL (default: 2m)
	TypeaheadTTL    time.Duration // PDAP_TYPEAHEAD_TTL (default: 24h)
	// DedupeInFlight collapses concurrent fetches of one cache key.
	DedupeInFlight bool // PDAP_DEDUPE_IN_FLIGHT (default: false)

	// AllowedOrigins are the web origins, besides the server's own, that may
	// call the JSON API from a browser. Empty disables CORS.
	AllowedOrigins []string // PDAP_ALLOWED_ORIGINS, comma-separated

	// Inbound rate limiting for the JSON API
	RateLimitPerSecond float64 // PDAP_RATE_LIMIT (default: 10)
	RateLimitBurst     int     // PDAP_RATE_BURST (default: 20)
}

// DefaultAddr keeps the server, which acts with the signed-in user's tokens,
// off the network unless an address is configured.
const DefaultAddr = "127.0.0.1"

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// Supports both PDAP_* (new) and VITE_VUE_* (legacy frontend) prefixes.
func (p *Profile) FromEnv() {
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			slog.Warn("ignoring invalid duration", slog.String("key", key), slog.String("value", raw))
			return defaultValue
		}
		return d
	}

	getIntEnv := func(key string, defaultValue int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			slog.Warn("ignoring invalid integer", slog.String("key", key), slog.String("value", raw))
			return defaultValue
		}
		return n
	}

	p.APIBaseURL = strings.TrimRight(getEnvWithFallback("PDAP_API_URL", "VITE_VUE_API_BASE_URL"), "/")
	p.APIKey = getEnvWithFallback("PDAP_API_KEY", "VITE_VUE_API_KEY")
	p.HTTPTimeout = getDurationEnv("PDAP_HTTP_TIMEOUT", 30*time.Second)

	p.LocalDriver = getEnvOrDefault("PDAP_LOCAL_DRIVER", "sqlite")
	p.SessionDriver = getEnvOrDefault("PDAP_SESSION_DRIVER", "memory")
	p.RedisAddr = getEnvOrDefault("PDAP_REDIS_ADDR", "localhost:6379")
	p.RedisPassword = os.Getenv("PDAP_REDIS_PASSWORD")
	p.RedisDB = getIntEnv("PDAP_REDIS_DB", 0)
	p.RedisPrefix = getEnvOrDefault("PDAP_REDIS_PREFIX", "pdap:")

	p.SearchTTL = getDurationEnv("PDAP_SEARCH_TTL", 3*time.Minute)
	p.DataSourceTTL = getDurationEnv("PDAP_DATA_SOURCE_TTL", 2*time.Minute)
	p.DataRequestsTTL = getDurationEnv("PDAP_DATA_REQUESTS_TTL", 2*time.Minute)
	p.TypeaheadTTL = getDurationEnv("PDAP_TYPEAHEAD_TTL", 24*time.Hour)
	p.DedupeInFlight = os.Getenv("PDAP_DEDUPE_IN_FLIGHT") == "true"

	p.AllowedOrigins = nil
	for _, origin := range strings.Split(os.Getenv("PDAP_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			p.AllowedOrigins = append(p.AllowedOrigins, origin)
		}
	}

	p.RateLimitPerSecond = 10
	if raw := os.Getenv("PDAP_RATE_LIMIT"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			p.RateLimitPerSecond = v
		}
	}
	p.RateLimitBurst = getIntEnv("PDAP_RATE_BURST", 20)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.APIBaseURL == "" {
		return errors.New("api base url is required (PDAP_API_URL)")
	}
	if p.Addr == "" {
		p.Addr = DefaultAddr
	}

	switch p.LocalDriver {
	case "sqlite", "memory":
	case "":
		p.LocalDriver = "sqlite"
	default:
		return errors.Errorf("unknown local storage driver %q: only 'sqlite' and 'memory' are supported", p.LocalDriver)
	}
	switch p.SessionDriver {
	case "memory", "redis":
	case "":
		p.SessionDriver = "memory"
	default:
		return errors.Errorf("unknown session storage driver %q: only 'memory' and 'redis' are supported", p.SessionDriver)
	}

	if p.LocalDriver != "sqlite" {
		return nil
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "pdap")
		} else {
			p.Data = "/var/opt/pdap"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.LocalDSN == "" {
		p.LocalDSN = filepath.Join(dataDir, fmt.Sprintf("pdap_%s.db", p.Mode))
	}

	return nil
}
