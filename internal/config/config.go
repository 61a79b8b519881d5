package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the API server runtime parameters.
type Config struct {
	HTTPAddress         string         `mapstructure:"http_address"`
	LogLevel            string         `mapstructure:"log_level"`
	ShutdownGracePeriod time.Duration  `mapstructure:"shutdown_grace_period"`
	Database            DatabaseConfig `mapstructure:"database"`
	Redis               RedisConfig    `mapstructure:"redis"`
	Queue               QueueConfig    `mapstructure:"queue"`
	Auth                AuthConfig     `mapstructure:"auth"`
	Crypto              CryptoConfig   `mapstructure:"crypto"`
	Push                PushConfig     `mapstructure:"push"`
	Realtime            RealtimeConfig `mapstructure:"realtime"`
	Notify              NotifyConfig   `mapstructure:"notify"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// QueueConfig configures the asynq worker. Queues uses the "critical=6,default=3" CSV form.
type QueueConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Queues      string `mapstructure:"queues"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	PrincipalCacheTTL time.Duration `mapstructure:"principal_cache_ttl"`
}

type CryptoConfig struct {
	ContentKey string `mapstructure:"content_key"`
}

// PushConfig selects the Notifier backing offline notifications.
type PushConfig struct {
	Provider        string `mapstructure:"provider"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Queued          bool   `mapstructure:"queued"`
}

type RealtimeConfig struct {
	SendBuffer  int           `mapstructure:"send_buffer"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type NotifyConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

const (
	defaultHTTPAddress         = ":8080"
	defaultLogLevel            = "info"
	defaultShutdownGracePeriod = 10 * time.Second
	defaultMaxConns            = 4
	defaultQueueConcurrency    = 10
	defaultQueues              = "default=1,chat=1,push=1"
	defaultPrincipalCacheTTL   = 5 * time.Minute
	defaultPushProvider        = "log"
	defaultSendBuffer          = 128
	defaultReadLimit           = 1 << 20
	defaultReadTimeout         = 60 * time.Second
	defaultNotifyWorkers       = 4
	defaultNotifyQueueSize     = 256
)

// Load reads configuration from the provided file path (if any) and the environment.
// Environment variables are prefixed with ROOMCHAT_; the legacy DB_URL, REDIS_URL,
// ASYNQ_CONCURRENCY and ASYNQ_QUEUES names are honoured as well.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROOMCHAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http_address", defaultHTTPAddress)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("shutdown_grace_period", defaultShutdownGracePeriod.String())
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", defaultMaxConns)
	v.SetDefault("redis.url", "")
	v.SetDefault("queue.concurrency", defaultQueueConcurrency)
	v.SetDefault("queue.queues", defaultQueues)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.principal_cache_ttl", defaultPrincipalCacheTTL.String())
	v.SetDefault("crypto.content_key", "")
	v.SetDefault("push.provider", defaultPushProvider)
	v.SetDefault("push.credentials_file", "")
	v.SetDefault("push.queued", true)
	v.SetDefault("realtime.send_buffer", defaultSendBuffer)
	v.SetDefault("realtime.read_limit", defaultReadLimit)
	v.SetDefault("realtime.read_timeout", defaultReadTimeout.String())
	v.SetDefault("notify.workers", defaultNotifyWorkers)
	v.SetDefault("notify.queue_size", defaultNotifyQueueSize)

	for key, names := range map[string][]string{
		"database.url":      {"ROOMCHAT_DATABASE_URL", "DB_URL"},
		"redis.url":         {"ROOMCHAT_REDIS_URL", "REDIS_URL"},
		"queue.concurrency": {"ROOMCHAT_QUEUE_CONCURRENCY", "ASYNQ_CONCURRENCY"},
		"queue.queues":      {"ROOMCHAT_QUEUE_QUEUES", "ASYNQ_QUEUES"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	for key, dst := range map[string]*time.Duration{
		"shutdown_grace_period":    &cfg.ShutdownGracePeriod,
		"auth.principal_cache_ttl": &cfg.Auth.PrincipalCacheTTL,
		"realtime.read_timeout":    &cfg.Realtime.ReadTimeout,
	} {
		dur, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = dur
	}

	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = defaultHTTPAddress
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = defaultMaxConns
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = defaultQueueConcurrency
	}
	if cfg.Realtime.SendBuffer <= 0 {
		cfg.Realtime.SendBuffer = defaultSendBuffer
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = defaultNotifyWorkers
	}
	if cfg.Notify.QueueSize <= 0 {
		cfg.Notify.QueueSize = defaultNotifyQueueSize
	}
	cfg.Push.Provider = strings.ToLower(strings.TrimSpace(cfg.Push.Provider))

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database.url (DB_URL) is required"))
	}
	if strings.TrimSpace(c.Redis.URL) == "" {
		errs = append(errs, errors.New("redis.url (REDIS_URL) is required"))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if strings.TrimSpace(c.Crypto.ContentKey) == "" {
		errs = append(errs, errors.New("crypto.content_key is required"))
	}
	switch c.Push.Provider {
	case "log":
	case "fcm":
		if c.Push.CredentialsFile == "" {
			errs = append(errs, errors.New("push.credentials_file is required for the fcm provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown push.provider %q", c.Push.Provider))
	}
	return errors.Join(errs...)
}
