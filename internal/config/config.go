package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// APIConfig describes how the client reaches the marketplace backend.
type APIConfig struct {
	BaseURL         string
	Timeout         time.Duration
	WithCredentials bool
	PageSize        int
}

type SessionConfig struct {
	Store             string
	Key               string
	PreserveOnFailure bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type StorageConfig struct {
	Driver    string
	Endpoint  string
	PublicURL string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type SecurityConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
	CookieSecure  bool
}

type RepositoryConfig struct {
	Driver string
}

type JobsConfig struct {
	SessionSweep string
}

// BackendConfig configures the local stand-in for the marketplace API.
type BackendConfig struct {
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Repository       RepositoryConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
	// UseRedis connects the backend to Redis for health reporting.
	UseRedis bool
}

type AppConfig struct {
	Environment string
	LogLevel    string
	API         APIConfig
	Session     SessionConfig
	Redis       RedisConfig
	Backend     BackendConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("WASTEMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

// Default returns the configuration Load would produce with no file and
// no environment overrides.
func Default() *AppConfig {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "")

	v.SetDefault("api.baseurl", "https://waste-backend-dun.vercel.app/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.withcredentials", true)
	v.SetDefault("api.pagesize", 20)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.key", "wastemarket:cookies")
	v.SetDefault("session.preserveonfailure", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("backend.http.host", "0.0.0.0")
	v.SetDefault("backend.http.port", 5000)
	v.SetDefault("backend.http.readtimeout", "10s")
	v.SetDefault("backend.http.writetimeout", "15s")
	v.SetDefault("backend.http.idletimeout", "60s")

	v.SetDefault("backend.postgres.maxopen", 20)
	v.SetDefault("backend.postgres.maxidle", 5)
	v.SetDefault("backend.postgres.connmaxlifetime", "30m")

	v.SetDefault("backend.storage.driver", "memory")
	v.SetDefault("backend.storage.bucket", "wastemarket-images")
	v.SetDefault("backend.storage.usessl", false)
	v.SetDefault("backend.storage.region", "us-east-1")

	v.SetDefault("backend.security.sessionsecret", "change-me")
	v.SetDefault("backend.security.sessionttl", "168h") // 7 days
	v.SetDefault("backend.security.cookiename", "token")
	v.SetDefault("backend.security.cookiesecure", false)

	v.SetDefault("backend.repository.driver", "memory")
	v.SetDefault("backend.jobs.sessionsweep", "0 */15 * * * *")
	v.SetDefault("backend.useredis", false)
}
