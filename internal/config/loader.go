package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/adminpanel/internal/db"
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/pkg/validator"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Database db.Config     `mapstructure:"database"`
	Log      LogConfig     `mapstructure:"log"`
	Table    TableConfig   `mapstructure:"table"`
	Product  ProductConfig `mapstructure:"product"`
	Export   ExportConfig  `mapstructure:"export"`
	Redis    RedisConfig   `mapstructure:"redis"`
	Auth     AuthConfig    `mapstructure:"auth"`
	Session  SessionConfig `mapstructure:"session"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TableConfig carries grid-wide presentation constants.
type TableConfig struct {
	PerPage             int    `mapstructure:"per_page" validate:"gt=0"`
	PerPageValues       []int  `mapstructure:"per_page_values" validate:"required,dive,gt=0"`
	DatetimeFormat      string `mapstructure:"datetime_format" validate:"required"`
	CaseSensitiveSearch bool   `mapstructure:"case_sensitive_search"`
}

type ProductConfig struct {
	Statuses []domain.ProductStatus `mapstructure:"statuses" validate:"required,dive"`
}

type ExportConfig struct {
	Dir               string        `mapstructure:"dir"`
	Format            string        `mapstructure:"format" validate:"oneof=csv xlsx"`
	Workers           int           `mapstructure:"workers" validate:"gt=0"`
	QueueSize         int           `mapstructure:"queue_size" validate:"gt=0"`
	PageSize          int           `mapstructure:"page_size" validate:"gt=0"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	DownloadTTL       time.Duration `mapstructure:"download_ttl"`
	DownloadSecret    string        `mapstructure:"download_secret"`
	Retention         time.Duration `mapstructure:"retention"`
	RetentionSchedule string        `mapstructure:"retention_schedule"`
}

type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// AuthConfig maps role names to the capabilities they grant. StatusLocks
// withholds a capability from products in the listed statuses.
type AuthConfig struct {
	Roles       map[string][]string `mapstructure:"roles"`
	StatusLocks map[string][]string `mapstructure:"status_locks"`
}

type SessionConfig struct {
	Size         int           `mapstructure:"size" validate:"gt=0"`
	TTL          time.Duration `mapstructure:"ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

func setDefaults(v *viper.Viper) {
	dbDefaults := db.DefaultConfig()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)
	v.SetDefault("database.max_conns", dbDefaults.MaxConns)
	v.SetDefault("database.min_conns", dbDefaults.MinConns)
	v.SetDefault("database.max_conn_lifetime", dbDefaults.MaxConnLifetime)
	v.SetDefault("database.max_conn_idle_time", dbDefaults.MaxConnIdleTime)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("table.per_page", 10)
	v.SetDefault("table.per_page_values", []int{10, 25, 50, 100})
	v.SetDefault("table.datetime_format", "02-01-2006 15:04:05")
	v.SetDefault("table.case_sensitive_search", false)

	statuses := make([]map[string]any, 0)
	for _, s := range domain.DefaultStatusCatalog() {
		statuses = append(statuses, map[string]any{"key": s.Key, "label": s.Label})
	}
	v.SetDefault("product.statuses", statuses)

	v.SetDefault("export.dir", "")
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.workers", 2)
	v.SetDefault("export.queue_size", 64)
	v.SetDefault("export.page_size", 1000)
	v.SetDefault("export.job_timeout", 30*time.Minute)
	v.SetDefault("export.download_ttl", 5*time.Minute)
	v.SetDefault("export.download_secret", "")
	v.SetDefault("export.retention", 24*time.Hour)
	v.SetDefault("export.retention_schedule", "@every 1h")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel_prefix", "admin:events:")

	v.SetDefault("auth.roles", map[string][]string{
		"admin": {"*"},
	})

	v.SetDefault("session.size", 1024)
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.secure_cookie", false)
}

// Load reads config.yaml from configPath (optional) and applies ADMIN_* env overrides.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if strings.TrimSpace(configPath) != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// StatusCatalog returns the configured product statuses.
func (c Config) StatusCatalog() domain.StatusCatalog {
	if len(c.Product.Statuses) == 0 {
		return domain.DefaultStatusCatalog()
	}
	return domain.StatusCatalog(c.Product.Statuses)
}
