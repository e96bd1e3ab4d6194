package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	RateLimit    RateLimitConfig
	Telegram     TelegramConfig
	Notification NotificationConfig
	Order        OrderConfig
	Cart         CartConfig
	Telemetry    TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string // full connection URL, takes precedence over the discrete fields
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int  // in minutes
	ConnMaxIdleTime int  // in minutes
	AutoMigrate     bool // apply embedded migrations on server start
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// RateLimitConfig limits order submissions per client IP
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// TelegramConfig holds chat platform settings
type TelegramConfig struct {
	BotToken      string
	NotifyChatID  int64   // chat that receives new order notifications
	AdminIDs      []int64 // senders allowed to issue admin commands
	APIBaseURL    string
	Timeout       time.Duration
	RatePerSecond float64 // outbound request rate
	BreakerTrips  uint32  // consecutive failures that open the circuit
	BreakerReset  time.Duration
	WebhookSecret string // expected X-Telegram-Bot-Api-Secret-Token, empty disables the check
	DedupeTTL     time.Duration
	Timezone      string
}

// Configured reports whether notification credentials are present
func (t *TelegramConfig) Configured() bool {
	return t.BotToken != "" && t.NotifyChatID != 0
}

// Missing-credentials policies for the order notifier
const (
	OnMissingSkip = "skip"
	OnMissingFail = "fail"
)

// NotificationConfig holds order notification settings
type NotificationConfig struct {
	OnMissingCredentials string // skip or fail
}

// OrderConfig holds order workflow settings
type OrderConfig struct {
	StatusPolicy string // free or strict
	RecentLimit  int    // orders listed by the /orders command
	TopProducts  int    // rows in the /stats leaderboard
}

// CartConfig holds session cart settings
type CartConfig struct {
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// legacyEnv maps config keys to the unprefixed variables older deployments export
var legacyEnv = map[string]string{
	"database.url":            "DATABASE_URL",
	"telegram.bot_token":      "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":        "TELEGRAM_CHAT_ID",
	"telegram.admin_ids":      "TELEGRAM_ADMIN_IDS",
	"telegram.webhook_secret": "TELEGRAM_WEBHOOK_SECRET",
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOP_ prefix (e.g., SHOP_DATABASE_PASSWORD)
// 2. Unprefixed legacy variables (TELEGRAM_BOT_TOKEN, DATABASE_URL, ...)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/railguard")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "SHOP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	adminIDs, err := parseIDList(v.Get("telegram.admin_ids"))
	if err != nil {
		return nil, fmt.Errorf("telegram.admin_ids: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     !v.IsSet("database.auto_migrate") || v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  !v.IsSet("ratelimit.enabled") || v.GetBool("ratelimit.enabled"),
			Requests: v.GetInt("ratelimit.requests"),
			Window:   v.GetDuration("ratelimit.window"),
		},
		Telegram: TelegramConfig{
			BotToken:      v.GetString("telegram.bot_token"),
			NotifyChatID:  v.GetInt64("telegram.chat_id"),
			AdminIDs:      adminIDs,
			APIBaseURL:    v.GetString("telegram.api_base_url"),
			Timeout:       v.GetDuration("telegram.timeout"),
			RatePerSecond: v.GetFloat64("telegram.rate_per_second"),
			BreakerTrips:  v.GetUint32("telegram.breaker_trips"),
			BreakerReset:  v.GetDuration("telegram.breaker_reset"),
			WebhookSecret: v.GetString("telegram.webhook_secret"),
			DedupeTTL:     v.GetDuration("telegram.dedupe_ttl"),
			Timezone:      v.GetString("telegram.timezone"),
		},
		Notification: NotificationConfig{
			OnMissingCredentials: strings.ToLower(v.GetString("notification.on_missing_credentials")),
		},
		Order: OrderConfig{
			StatusPolicy: strings.ToLower(v.GetString("order.status_policy")),
			RecentLimit:  v.GetInt("order.recent_limit"),
			TopProducts:  v.GetInt("order.top_products"),
		},
		Cart: CartConfig{
			TTL:          v.GetDuration("cart.ttl"),
			CookieName:   v.GetString("cart.cookie_name"),
			CookieSecure: v.GetBool("cart.cookie_secure"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseIDList accepts a comma separated string or a TOML array of ids
func parseIDList(raw any) ([]int64, error) {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(val, ",")
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	case []string:
		parts = val
	case []int64:
		return val, nil
	default:
		parts = []string{fmt.Sprint(val)}
	}

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "railguard"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shop"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-Cart-Session"}
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 5
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 15 * time.Minute
	}
	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 5 * time.Second
	}
	if cfg.Telegram.RatePerSecond == 0 {
		cfg.Telegram.RatePerSecond = 25
	}
	if cfg.Telegram.BreakerTrips == 0 {
		cfg.Telegram.BreakerTrips = 5
	}
	if cfg.Telegram.BreakerReset == 0 {
		cfg.Telegram.BreakerReset = 30 * time.Second
	}
	if cfg.Telegram.DedupeTTL == 0 {
		cfg.Telegram.DedupeTTL = 24 * time.Hour
	}
	if cfg.Telegram.Timezone == "" {
		cfg.Telegram.Timezone = "Europe/Moscow"
	}
	if cfg.Notification.OnMissingCredentials == "" {
		cfg.Notification.OnMissingCredentials = OnMissingSkip
	}
	if cfg.Order.StatusPolicy == "" {
		cfg.Order.StatusPolicy = "free"
	}
	if cfg.Order.RecentLimit == 0 {
		cfg.Order.RecentLimit = 5
	}
	if cfg.Order.TopProducts == 0 {
		cfg.Order.TopProducts = 5
	}
	if cfg.Cart.TTL == 0 {
		cfg.Cart.TTL = 7 * 24 * time.Hour
	}
	if cfg.Cart.CookieName == "" {
		cfg.Cart.CookieName = "cart_session"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "railguard"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Notification.OnMissingCredentials {
	case OnMissingSkip, OnMissingFail:
	default:
		return fmt.Errorf("notification.on_missing_credentials must be %q or %q, got %q",
			OnMissingSkip, OnMissingFail, c.Notification.OnMissingCredentials)
	}

	switch c.Order.StatusPolicy {
	case "free", "strict":
	default:
		return fmt.Errorf("order.status_policy must be \"free\" or \"strict\", got %q", c.Order.StatusPolicy)
	}

	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("ratelimit.requests cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.URL == "" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Notification.OnMissingCredentials == OnMissingFail && !c.Telegram.Configured() {
			return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when notification.on_missing_credentials=fail")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
