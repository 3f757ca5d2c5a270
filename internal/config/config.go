package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"

	"github.com/LJTian/WeiboTrending/internal/collector"
)

var (
	ErrMissingToken   = errors.New("config: telegram token is required (TOKEN)")
	ErrMissingChannel = errors.New("config: telegram channel is required (CHANNEL_ID)")
)

const (
	DriverFS       = "fs"
	DriverPostgres = "postgres"
)

type Config struct {
	Telegram TelegramConfig
	Weibo    WeiboConfig
	Storage  StorageConfig
	Cache    CacheConfig

	HTTPTimeout       time.Duration
	RetryAttempts     int
	EnrichConcurrency int
	Timezone          string

	AppPort  string
	CronSpec string

	LogDevelopment bool
}

type TelegramConfig struct {
	Token       string
	ChannelID   string
	APIEndpoint string
}

type WeiboConfig struct {
	IndexURL  string
	DetailURL string
	UserAgent string
}

type StorageConfig struct {
	Driver      string
	BaseDir     string
	PostgresDSN string
}

// CacheConfig RedisAddr 为空时不启用详情缓存
type CacheConfig struct {
	RedisAddr string
	TTL       time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.api_endpoint", tgbotapi.APIEndpoint)

	v.SetDefault("weibo.index_url", collector.DefaultIndexURL)
	v.SetDefault("weibo.detail_url", collector.DefaultDetailURL)
	v.SetDefault("weibo.user_agent", collector.DefaultUserAgent)

	v.SetDefault("http.timeout", 15*time.Second)

	v.SetDefault("storage.driver", DriverFS)
	v.SetDefault("storage.base_dir", ".")
	v.SetDefault("storage.postgres_dsn", "host=localhost user=weibo password=weibo dbname=weibo port=5432 sslmode=disable TimeZone=UTC")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", collector.DefaultDetailCacheTTL)

	v.SetDefault("retry.attempts", 5)
	v.SetDefault("enrich.concurrency", 1)
	v.SetDefault("timezone", "Asia/Shanghai")

	v.SetDefault("app.port", "9000")
	v.SetDefault("cron.spec", "*/30 * * * *")
	v.SetDefault("log.development", false)
}

// 兼容部署脚本里已有的无前缀变量名
var legacyEnv = map[string]string{
	"telegram.token":       "TOKEN",
	"telegram.channel_id":  "CHANNEL_ID",
	"cache.redis_addr":     "REDIS_ADDR",
	"storage.postgres_dsn": "POSTGRES_DSN",
	"cron.spec":            "CRON_SPEC",
	"app.port":             "APP_PORT",
}

// Load 读取默认值、配置文件和环境变量。path 为空时尝试当前目录的 config.yaml，
// 找不到不算错误。缺少 token 或 channel 返回 ErrMissingToken / ErrMissingChannel
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix("WEIBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "WEIBO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", legacy, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read config.yaml: %w", err)
			}
		}
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:       strings.TrimSpace(v.GetString("telegram.token")),
			ChannelID:   strings.TrimSpace(v.GetString("telegram.channel_id")),
			APIEndpoint: v.GetString("telegram.api_endpoint"),
		},
		Weibo: WeiboConfig{
			IndexURL:  v.GetString("weibo.index_url"),
			DetailURL: v.GetString("weibo.detail_url"),
			UserAgent: v.GetString("weibo.user_agent"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			BaseDir:     v.GetString("storage.base_dir"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Cache: CacheConfig{
			RedisAddr: v.GetString("cache.redis_addr"),
			TTL:       v.GetDuration("cache.ttl"),
		},
		HTTPTimeout:       v.GetDuration("http.timeout"),
		RetryAttempts:     v.GetInt("retry.attempts"),
		EnrichConcurrency: v.GetInt("enrich.concurrency"),
		Timezone:          v.GetString("timezone"),
		AppPort:           v.GetString("app.port"),
		CronSpec:          v.GetString("cron.spec"),
		LogDevelopment:    v.GetBool("log.development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.Telegram.ChannelID == "" {
		return ErrMissingChannel
	}
	switch c.Storage.Driver {
	case DriverFS, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config: http.timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location 日期按这个时区计算，决定写入哪一天的日榜
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
