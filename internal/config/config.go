package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "HMS"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Session       SessionConfig       `mapstructure:"session"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Seed          SeedConfig          `mapstructure:"seed"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Email         EmailConfig         `mapstructure:"email"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Worker        WorkerConfig        `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	Dir         string `mapstructure:"dir"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	BcryptCost int     `mapstructure:"bcrypt_cost"`
	LoginRPS   float64 `mapstructure:"login_rps"`
	LoginBurst int     `mapstructure:"login_burst"`
}

type SeedConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
}

type NotificationsConfig struct {
	InProcess      bool          `mapstructure:"in_process"`
	Interval       time.Duration `mapstructure:"interval"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Channel        string        `mapstructure:"channel"`
	ProviderURL    string        `mapstructure:"provider_url"`
	EventsRedisURL string        `mapstructure:"events_redis_url"`
	Retry          RetryConfig   `mapstructure:"retry"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port"`
	// SessionCleanupInterval of 0 disables periodic compaction.
	SessionCleanupInterval time.Duration `mapstructure:"session_cleanup_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "database")
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("storage.redis_prefix", "hms:collection:")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.login_rps", 1.0)
	v.SetDefault("auth.login_burst", 10)

	v.SetDefault("seed.admin_username", "admin")
	v.SetDefault("seed.admin_password", "admin123")

	v.SetDefault("notifications.in_process", false)
	v.SetDefault("notifications.interval", 60*time.Second)
	v.SetDefault("notifications.timeout", 10*time.Second)
	v.SetDefault("notifications.channel", "whatsapp")
	v.SetDefault("notifications.provider_url", "https://api.whatsapp.example.com/send")
	v.SetDefault("notifications.events_redis_url", "")
	v.SetDefault("notifications.retry.max_attempts", 1)
	v.SetDefault("notifications.retry.delay", 2*time.Second)

	v.SetDefault("email.host", "localhost")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("worker.health_port", 8081)
	v.SetDefault("worker.session_cleanup_interval", time.Hour)
}

// Load reads an optional .env file, an optional config file and HMS_*
// environment variables, in increasing order of precedence. An empty path
// searches ./config.yaml and ./config/config.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file driver")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required for the redis driver")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Notifications.Channel {
	case "whatsapp":
	case "email":
		if c.Email.From == "" {
			return errors.New("email.from is required for the email channel")
		}
	default:
		return fmt.Errorf("unknown notification channel %q", c.Notifications.Channel)
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	return nil
}
