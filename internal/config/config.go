package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	ListenAddr       string        // ex: "127.0.0.1:7878"
	ShutdownTimeout  time.Duration // ex: 5s
	RequestTimeout   time.Duration // per-request timeout for regular API routes
	LinkCheckTimeout time.Duration // per-request timeout for the link-check route

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	StoreBackend string // "sqlite" | "redis" | "memory"
	DatabaseURL  string // sqlite DSN or libsql:// URL
	BookmarksKey string // document key holding the bookmark array
	ProjectsKey  string // document key holding the project array
	SeedDefaults bool   // write the starter dataset when a document is missing

	// Redis (only when StoreBackend == "redis")
	RedisURL            string        // redis://[user:pass@]host:port/db
	RedisPoolSize       int           // 0 keeps the go-redis default
	RedisConnectTimeout time.Duration // total time to retry connecting (default: 30s)
	RedisRetryInterval  time.Duration // first wait between retries, doubled each time (default: 1s)
	RedisMaxWait        time.Duration // cap for the retry wait (default: 10s)
	RedisPingTimeout    time.Duration // bound of a single ping (default: 2s)

	// Link checker
	FaviconEndpoint string        // fmt template, %s = hostname; empty disables the probe
	RelayEndpoint   string        // fmt template, %s = escaped url; empty disables the probe
	ReachTimeout    time.Duration // favicon probe bound (default: 10s)
	ProbeTimeout    time.Duration // HEAD/relay probe bound (default: 5s)
	CheckBatchSize  int           // concurrent probes per batch (default: 5)
	CheckBatchPause time.Duration // pause between batches (default: 100ms)
	CheckBurst      int           // link-check requests allowed in a burst per client
	CheckRefillPM   int           // link-check requests refilled per minute per client

	// Maintenance
	SweepInterval time.Duration // interval between dangling-reference sweeps (default: 1h)

	AllowedHosts []string // restrict access to specific Host headers
	AllowedCIDRS []string // restrict access to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenAddr:       getenv("MARKS_LISTEN_ADDR", "127.0.0.1:7878"),
		ShutdownTimeout:  mustDuration("MARKS_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:   mustDuration("MARKS_REQUEST_TIMEOUT", 10*time.Second),
		LinkCheckTimeout: mustDuration("MARKS_LINKCHECK_TIMEOUT", 5*time.Minute),

		// Logging
		LogLevel:  getenv("MARKS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKS_PRETTY_LOG", true),

		// Storage
		StoreBackend: strings.ToLower(getenv("MARKS_STORE", BackendSQLite)),
		DatabaseURL:  getenv("MARKS_DATABASE_URL", "file:marks.db"),
		BookmarksKey: getenv("MARKS_BOOKMARKS_KEY", "bookmarks"),
		ProjectsKey:  getenv("MARKS_PROJECTS_KEY", "bookmark-projects"),
		SeedDefaults: mustBool("MARKS_SEED_DEFAULTS", true),

		// Link checker
		FaviconEndpoint: getenv("MARKS_FAVICON_ENDPOINT", "https://www.google.com/s2/favicons?domain=%s&sz=16"),
		RelayEndpoint:   getenv("MARKS_RELAY_ENDPOINT", "https://api.codetabs.com/v1/proxy?quest=%s"),
		ReachTimeout:    mustDuration("MARKS_REACH_TIMEOUT", 10*time.Second),
		ProbeTimeout:    mustDuration("MARKS_PROBE_TIMEOUT", 5*time.Second),
		CheckBatchSize:  getenvInt("MARKS_CHECK_BATCH_SIZE", 5),
		CheckBatchPause: mustDuration("MARKS_CHECK_BATCH_PAUSE", 100*time.Millisecond),
		CheckBurst:      getenvInt("MARKS_CHECK_BURST", 3),
		CheckRefillPM:   getenvInt("MARKS_CHECK_REFILL_PER_MIN", 6),

		// Maintenance
		SweepInterval: mustDuration("MARKS_SWEEP_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("MARKS_ALLOWED_HOSTS", "localhost:*,127.0.0.1:*,[::1]:*")),
		AllowedCIDRS: parseAllowedIPs(getenv("MARKS_ALLOWED_CIDRS", "127.0.0.0/8,::1/128")),
		TrustProxy:   mustBool("MARKS_TRUST_PROXY", false),
	}

	switch cfg.StoreBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown store backend %q (want sqlite, redis or memory)", cfg.StoreBackend))
	}

	if cfg.CheckBatchSize < 1 {
		cfg.CheckBatchSize = 1
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisURL = redactURL(cfg.RedisURL)
		cfgCopy.DatabaseURL = redactURL(cfg.DatabaseURL)
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadRedis fills the Redis settings. The URL is required once the Redis
// backend is selected.
func loadRedis(cfg *Config) {
	cfg.RedisURL = requireEnv("MARKS_REDIS_URL")
	cfg.RedisPoolSize = getenvInt("MARKS_REDIS_POOL_SIZE", 0)
	cfg.RedisConnectTimeout = mustDuration("MARKS_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("MARKS_REDIS_RETRY_INTERVAL", time.Second)
	cfg.RedisMaxWait = mustDuration("MARKS_REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("MARKS_REDIS_PING_TIMEOUT", 2*time.Second)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// redactURL hides the auth token of libsql URLs (?authToken=...) and any
// userinfo before logging.
func redactURL(raw string) string {
	if i := strings.Index(raw, "authToken="); i != -1 {
		raw = raw[:i] + "authToken=***REDACTED***"
	}
	if at := strings.Index(raw, "@"); at != -1 {
		if scheme := strings.Index(raw, "://"); scheme != -1 && scheme < at {
			raw = raw[:scheme+3] + "***REDACTED***" + raw[at:]
		}
	}
	return raw
}
