package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Storage backend names accepted by STORAGE_BACKEND.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Callback CallbackConfig `env:",prefix=CALLBACK_"`
	Link     LinkConfig     `env:",prefix=LINK_"`
	API      APIConfig      `env:",prefix=API_"`
	OAuth    OAuthConfig    `env:",prefix=OAUTH_"`
	Storage  StorageConfig  `env:",prefix=STORAGE_"`
	Archive  ArchiveConfig  `env:",prefix=ARCHIVE_"`
	Prefetch PrefetchConfig `env:",prefix=PREFETCH_"`
	Env      string         `env:"ENV,default=development"`
}

// CallbackConfig configures the loopback server that receives the OAuth
// redirect. It binds to loopback only; it exists to catch the browser, not
// to serve the network.
type CallbackConfig struct {
	Host         string   `env:"HOST,default=127.0.0.1"`
	Port         string   `env:"PORT,default=8090"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=10s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=10s"`
}

type LinkConfig struct {
	Scheme string `env:"SCHEME,default=ifitclub"`
}

type APIConfig struct {
	BaseURL string   `env:"BASE_URL,default=https://api.ifitclub.app/v1"`
	Timeout Duration `env:"TIMEOUT,default=15s"`
}

type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID,required"`
	AuthorizeURL string `env:"AUTHORIZE_URL,default=https://www.ifitclub.app/oauth/authorize"`
	RedirectURL  string `env:"REDIRECT_URL,default=http://127.0.0.1:8090/callback"`
}

type StorageConfig struct {
	Backend  string `env:"BACKEND,default=file"`
	FilePath string `env:"FILE_PATH,default="`
	Redis    RedisConfig
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST,default=localhost"`
	Port     string `env:"REDIS_PORT,default=6379"`
	Password string `env:"REDIS_PASSWORD,default="`
	DB       int    `env:"REDIS_DB,default=0"`
}

// ArchiveConfig configures the optional Postgres activity archive.
type ArchiveConfig struct {
	Enabled  bool `env:"ENABLED,default=false"`
	Postgres PostgresConfig
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST,default=localhost"`
	Port     string `env:"POSTGRES_PORT,default=5432"`
	User     string `env:"POSTGRES_USER,default=ifit"`
	Password string `env:"POSTGRES_PASSWORD,default=ifit"`
	DBName   string `env:"POSTGRES_DB,default=ifit_archive"`
	SSLMode  string `env:"POSTGRES_SSLMODE,default=disable"`
}

type PrefetchConfig struct {
	ActivityPageSize int `env:"ACTIVITY_PAGE_SIZE,default=20"`
}

// Address returns the callback server bind address.
func (c CallbackConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address returns the Redis connection address.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// DSN returns the PostgreSQL connection string for the archive.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Load loads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	switch config.Storage.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be one of file, redis, memory; got %q", config.Storage.Backend)
	}

	if config.Link.Scheme == "" {
		return nil, fmt.Errorf("LINK_SCHEME must not be empty")
	}

	if n := config.Prefetch.ActivityPageSize; n < 1 || n > 200 {
		return nil, fmt.Errorf("PREFETCH_ACTIVITY_PAGE_SIZE must be between 1 and 200, got %d", n)
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with a default context.
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
