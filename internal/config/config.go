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

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for non-streaming routes
	Environment     string        // "production" | "development"

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Timezone *time.Location // venue timezone used for reminder text and cron schedule

	// Redis (timeline, itineraries, live feed, settings)
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisPoolSize         int

	// Postgres (scheduled notifications, push subscriptions, history)
	PostgresDSN          string
	PostgresMaxOpenConns int
	PostgresMaxIdleConns int

	// Connect retry policy, shared by both backends
	ConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries, grows exponentially
	MaxWait        time.Duration // cap between retries
	PingTimeout    time.Duration // timeout for each ping attempt
	WarnThreshold  int           // warn after this many attempts

	// Reminder job
	CronSecret       string        // bearer secret for the external cron trigger
	CronEnabled      bool          // run the job in-process on CronSchedule
	CronSchedule     string        // robfig/cron spec, ex: "*/30 * * * *"
	Lookahead        time.Duration // phase B window, default 45m
	LedgerSize       int           // notified ledger cap, default 50
	ClaimMargin      time.Duration // dedupe claim TTL past the event start
	ToggleGatesDrain bool          // disabled toggle also skips the scheduled drain
	ReminderTitle    string
	ReminderURL      string // deep-link base for reminders, event id appended as fragment

	// Push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string // mailto: or https: contact
	PushTTL         int    // seconds the push service keeps an undelivered message
	PushConcurrency int
	PushIcon        string
	PushBadge       string
	SNSEnabled      bool
	AWSRegion       string

	// Retention
	Retention         time.Duration
	RetentionInterval time.Duration

	// Domain
	Venues           []string // the two official venues
	TimelineSeedFile string   // optional YAML seed for official events
	CalendarName     string

	// Access
	JWTSecret         string
	AllowedCIDRS      []string // restrict readyz/metrics (e.g. "10.0.0.0/8, 127.0.0.1")
	AllowedHosts      []string // Host headers accepted on admin and cron routes, "*.example.com" allowed
	TrustProxy        bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimitBurst    int
	RateLimitPerMin   int
	RateLimitMaxEntry int
}

func Load() *Config {
	loadDotEnv(getenv("WEDDING_ENV_FILE", ".env"))

	cfg := &Config{
		ListenPort:      getenv("WEDDING_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("WEDDING_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("WEDDING_REQUEST_TIMEOUT", 10*time.Second),
		Environment:     getenv("WEDDING_ENV", EnvProduction),

		LogLevel:  getenv("WEDDING_LOG_LEVEL", "info"),
		PrettyLog: mustBool("WEDDING_PRETTY_LOG", false),

		Timezone: mustLocation("WEDDING_TIMEZONE", "UTC"),

		RedisAddr:             requireEnv("WEDDING_REDIS_ADDR"),
		RedisUser:             getenv("WEDDING_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("WEDDING_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("WEDDING_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("WEDDING_REDIS_DB"),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),

		PostgresDSN:          requireEnv("WEDDING_POSTGRES_DSN"),
		PostgresMaxOpenConns: getenvInt("POSTGRES_MAX_OPEN_CONNS", 10),
		PostgresMaxIdleConns: getenvInt("POSTGRES_MAX_IDLE_CONNS", 5),

		ConnectTimeout: mustDuration("WEDDING_CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:  mustDuration("WEDDING_RETRY_INTERVAL", 2*time.Second),
		MaxWait:        mustDuration("WEDDING_MAX_WAIT", 10*time.Second),
		PingTimeout:    mustDuration("WEDDING_PING_TIMEOUT", 5*time.Second),
		WarnThreshold:  getenvInt("WEDDING_WARN_THRESHOLD", 3),

		CronSecret:       getenv("WEDDING_CRON_SECRET", ""),
		CronEnabled:      mustBool("WEDDING_CRON_ENABLED", false),
		CronSchedule:     getenv("WEDDING_CRON_SCHEDULE", "*/30 * * * *"),
		Lookahead:        mustDuration("WEDDING_REMINDER_LOOKAHEAD", 45*time.Minute),
		LedgerSize:       getenvInt("WEDDING_LEDGER_SIZE", 50),
		ClaimMargin:      mustDuration("WEDDING_REMINDER_CLAIM_MARGIN", 2*time.Hour),
		ToggleGatesDrain: mustBool("WEDDING_TOGGLE_GATES_DRAIN", true),
		ReminderTitle:    getenv("WEDDING_REMINDER_TITLE", "Starting soon"),
		ReminderURL:      getenv("WEDDING_REMINDER_URL", "/agenda"),

		VAPIDPublicKey:  getenv("WEDDING_VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getenv("WEDDING_VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getenv("WEDDING_VAPID_SUBJECT", "mailto:admin@example.com"),
		PushTTL:         getenvInt("WEDDING_PUSH_TTL", 3600),
		PushConcurrency: getenvInt("WEDDING_PUSH_CONCURRENCY", 16),
		PushIcon:        getenv("WEDDING_PUSH_ICON", "/icons/icon-192.png"),
		PushBadge:       getenv("WEDDING_PUSH_BADGE", "/icons/badge-72.png"),
		SNSEnabled:      mustBool("WEDDING_SNS_ENABLED", false),
		AWSRegion:       getenv("WEDDING_AWS_REGION", "eu-west-1"),

		Retention:         mustDuration("WEDDING_RETENTION", 30*24*time.Hour),
		RetentionInterval: mustDuration("WEDDING_RETENTION_INTERVAL", 24*time.Hour),

		Venues:           splitAndTrim(getenv("WEDDING_VENUES", "ceremony,celebration")),
		TimelineSeedFile: getenv("WEDDING_TIMELINE_SEED_FILE", ""),
		CalendarName:     getenv("WEDDING_CALENDAR_NAME", "Wedding agenda"),

		JWTSecret:         requireEnv("WEDDING_JWT_SECRET"),
		AllowedCIDRS:      parseAllowedIPs(getenv("WEDDING_ALLOWED_CIDRS", "")),
		AllowedHosts:      splitAndTrim(getenv("WEDDING_ALLOWED_HOSTS", "")),
		TrustProxy:        mustBool("WEDDING_TRUST_PROXY", true),
		RateLimitBurst:    getenvInt("WEDDING_RATE_LIMIT_BURST", 10),
		RateLimitPerMin:   getenvInt("WEDDING_RATE_LIMIT_PER_MIN", 30),
		RateLimitMaxEntry: getenvInt("WEDDING_RATE_LIMIT_MAX_ENTRIES", 10000),
	}

	cfg.validate()

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// IsProduction reports whether the cron secret check is enforced.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	const mask = "***REDACTED***"
	cp.RedisPassword = mask
	if c.RedisUser != "" {
		cp.RedisUser = mask
	}
	cp.PostgresDSN = mask
	cp.JWTSecret = mask
	if c.CronSecret != "" {
		cp.CronSecret = mask
	}
	if c.VAPIDPrivateKey != "" {
		cp.VAPIDPrivateKey = mask
	}
	return cp
}

func (c *Config) validate() {
	if c.RedisPasswordRequired && c.RedisPassword == "" {
		panic("❌ FATAL: WEDDING_REDIS_PASSWORD is required when WEDDING_REDIS_PASSWORD_REQUIRED=true")
	}
	if c.Environment != EnvProduction && c.Environment != EnvDevelopment {
		panic(fmt.Sprintf("❌ FATAL: WEDDING_ENV must be %q or %q, got %q", EnvProduction, EnvDevelopment, c.Environment))
	}
	if c.IsProduction() && c.CronSecret == "" {
		panic("❌ FATAL: WEDDING_CRON_SECRET is required in production")
	}
	if len(c.Venues) != 2 {
		panic(fmt.Sprintf("❌ FATAL: WEDDING_VENUES must list exactly two venues, got %d", len(c.Venues)))
	}
	if c.LedgerSize < 1 {
		panic("❌ FATAL: WEDDING_LEDGER_SIZE must be >= 1")
	}
	if c.Lookahead <= 0 {
		panic("❌ FATAL: WEDDING_REMINDER_LOOKAHEAD must be > 0")
	}
	if c.PushConcurrency < 1 {
		c.PushConcurrency = 1
	}
}

// loadDotEnv loads a .env file when present; real environment variables win.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("⚠️  failed to load %s: %v", path, err)
	}
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

func requireEnvInt(key string) int {
	v := requireEnv(key)
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
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

func mustLocation(key, def string) *time.Location {
	name := getenv(key, def)
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
	return splitAndTrim(allowed)
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
