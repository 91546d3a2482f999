package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Durable artifacts
	DirectoryFile string // server list (JSON, comments tolerated)
	InventoryFile string // historical inventory (CSV)
	LogFile       string // event log (CSV)
	RulesFile     string // optional collector rules (YAML, empty = built-in rules)

	// Runs
	RunInterval time.Duration  // interval between scheduled runs (default: 24h)
	Timezone    string         // IANA zone used for run dates and event timestamps
	Location    *time.Location // resolved Timezone

	// Breaker
	BreakerWindowDays int // trailing window in days (default: 10)
	BreakerThreshold  int // errors inside the window that disable a pair (default: 10)

	// Collector
	RequestTimeout    time.Duration // per GetCapabilities request (default: 20s)
	RequestRetries    int           // extra attempts on network errors (default: 3)
	SkipTLSValidation bool          // many public geoservers ship broken chains
	Concurrency       int           // servers queried in parallel (default: 4)
	RequestsPerSecond float64       // outbound pacing across all servers (0 = unlimited)

	// Redis (optional mirror, empty address = disabled)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	RedisEventsCap      int           // events kept in the mirrored list

	AllowedCIDRS []string // optional, restrict admin endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// API rate limit (per client IP)
	APIRateBurst     int // requests allowed at once
	APIRatePerMinute int // sustained refill
}

// RedisEnabled reports whether the Redis mirror is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("GEOINV_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("GEOINV_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("GEOINV_LOG_LEVEL", "info"),
		PrettyLog: mustBool("GEOINV_PRETTY_LOG", true),

		// Artifacts
		DirectoryFile: getenv("GEOINV_DIRECTORY_FILE", "directorio.json"),
		InventoryFile: getenv("GEOINV_INVENTORY_FILE", "capas.csv"),
		LogFile:       getenv("GEOINV_LOG_FILE", "log.csv"),
		RulesFile:     getenv("GEOINV_RULES_FILE", ""),

		// Runs
		RunInterval: mustDuration("GEOINV_RUN_INTERVAL", 24*time.Hour),
		Timezone:    getenv("GEOINV_TIMEZONE", "America/La_Paz"),

		// Breaker
		BreakerWindowDays: getenvInt("GEOINV_BREAKER_WINDOW_DAYS", 10),
		BreakerThreshold:  getenvInt("GEOINV_BREAKER_THRESHOLD", 10),

		// Collector
		RequestTimeout:    mustDuration("GEOINV_REQUEST_TIMEOUT", 20*time.Second),
		RequestRetries:    getenvInt("GEOINV_REQUEST_RETRIES", 3),
		SkipTLSValidation: mustBool("GEOINV_SKIP_TLS_VALIDATION", true),
		Concurrency:       getenvInt("GEOINV_CONCURRENCY", 4),
		RequestsPerSecond: getenvFloat("GEOINV_REQUESTS_PER_SECOND", 4),

		// Redis settings
		RedisAddr:           getenv("GEOINV_REDIS_ADDR", ""),
		RedisUser:           getenv("GEOINV_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("GEOINV_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("GEOINV_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RedisEventsCap:      getenvInt("GEOINV_REDIS_EVENTS_CAP", 1000),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("GEOINV_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("GEOINV_TRUST_PROXY", true),

		// API rate limit
		APIRateBurst:     getenvInt("GEOINV_API_RATE_BURST", 30),
		APIRatePerMinute: getenvInt("GEOINV_API_RATE_PER_MINUTE", 120),
	}

	cfg.Location = mustLocation("GEOINV_TIMEZONE", cfg.Timezone)
	validate(cfg)

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func validate(cfg *Config) {
	if cfg.DirectoryFile == "" {
		panic("❌ FATAL: GEOINV_DIRECTORY_FILE must not be empty")
	}
	if cfg.BreakerWindowDays < 1 {
		panic(fmt.Sprintf("❌ FATAL: GEOINV_BREAKER_WINDOW_DAYS must be >= 1, got %d", cfg.BreakerWindowDays))
	}
	if cfg.BreakerThreshold < 1 {
		panic(fmt.Sprintf("❌ FATAL: GEOINV_BREAKER_THRESHOLD must be >= 1, got %d", cfg.BreakerThreshold))
	}
	if cfg.Concurrency < 1 {
		panic(fmt.Sprintf("❌ FATAL: GEOINV_CONCURRENCY must be >= 1, got %d", cfg.Concurrency))
	}
	if cfg.RequestRetries < 0 {
		panic(fmt.Sprintf("❌ FATAL: GEOINV_REQUEST_RETRIES must be >= 0, got %d", cfg.RequestRetries))
	}
	if cfg.RunInterval <= 0 {
		panic("❌ FATAL: GEOINV_RUN_INTERVAL must be positive")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func mustLocation(key, name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid timezone for %s: %s", key, name))
	}
	return loc
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
