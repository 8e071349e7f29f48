package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Flutterwave   FlutterwaveConfig   `mapstructure:"flutterwave"`
	Platform      PlatformConfig      `mapstructure:"platform"`
	App           AppConfig           `mapstructure:"app"`
	Invite        InviteConfig        `mapstructure:"invite"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitPerMin int           `mapstructure:"rate_limit_per_min"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

// FlutterwaveConfig holds the payment provider credentials and endpoints.
// ClientID/ClientSecret drive the client-credentials token grant; WebhookHash
// is the shared secret the provider echoes in the verif-hash header.
type FlutterwaveConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	TokenURL      string        `mapstructure:"token_url"`
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	WebhookHash   string        `mapstructure:"webhook_hash"`
	VerifyTimeout time.Duration `mapstructure:"verify_timeout"`
	Currency      string        `mapstructure:"currency"`
}

// PlatformConfig points at the identity/data platform. AnonKey scopes the
// narrow identity-check handle; ServiceKey scopes the privileged admin handle.
type PlatformConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	AnonKey    string `mapstructure:"anon_key"`
	ServiceKey string `mapstructure:"service_key"`
}

type AppConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type InviteConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	DefaultRole string        `mapstructure:"default_role"`
}

type WorkerConfig struct {
	BatchSize           int           `mapstructure:"batch_size"`
	OutboxPollInterval  time.Duration `mapstructure:"outbox_poll_interval"`
	InviteSweepInterval time.Duration `mapstructure:"invite_sweep_interval"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("ORINX")
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/orinx")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations that would let the service start with
// missing credentials. The webhook handler must never run against an empty
// shared secret: an empty secret would make the signature gate accept
// anything with an empty verif-hash header.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}

	if c.Flutterwave.WebhookHash == "" {
		errs = append(errs, fmt.Errorf("flutterwave.webhook_hash is required"))
	}
	if c.Flutterwave.ClientID == "" {
		errs = append(errs, fmt.Errorf("flutterwave.client_id is required"))
	}
	if c.Flutterwave.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("flutterwave.client_secret is required"))
	}
	if c.Flutterwave.VerifyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("flutterwave.verify_timeout must be positive"))
	}
	if c.Platform.BaseURL == "" {
		errs = append(errs, fmt.Errorf("platform.base_url is required"))
	}
	if c.Platform.AnonKey == "" {
		errs = append(errs, fmt.Errorf("platform.anon_key is required"))
	}
	if c.Platform.ServiceKey == "" {
		errs = append(errs, fmt.Errorf("platform.service_key is required"))
	}
	if c.Invite.TTL <= 0 {
		errs = append(errs, fmt.Errorf("invite.ttl must be positive"))
	}
	if c.Worker.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("worker.batch_size must be positive"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_limit_per_min", 120)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "orinx")
	v.SetDefault("database.database", "orinx")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Flutterwave defaults (v4 sandbox)
	v.SetDefault("flutterwave.base_url", "https://developersandbox-api.flutterwave.com")
	v.SetDefault("flutterwave.token_url", "https://idp.flutterwave.com/realms/flutterwave/protocol/openid-connect/token")
	v.SetDefault("flutterwave.verify_timeout", "10s")
	v.SetDefault("flutterwave.currency", "USD")

	// App defaults
	v.SetDefault("app.base_url", "http://127.0.0.1:7357")

	// Invite defaults
	v.SetDefault("invite.ttl", "168h")
	v.SetDefault("invite.default_role", "manager")

	// Worker defaults
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.outbox_poll_interval", "2s")
	v.SetDefault("worker.invite_sweep_interval", "1h")

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", true)

	// Instance ID
	v.SetDefault("instance_id", "orinx-billing-1")
}

func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
