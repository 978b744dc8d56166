package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 本番APIのURL（API_BASE_URL 未設定時）
const DefaultAPIBaseURL = "https://api.ukayfinds.ph/api"

// 住所（州・市・バランガイ）検索APIのURL
const DefaultAddressAPIBaseURL = "https://psgc.gitlab.io/api"

const devSessionSecret = "dev_session_secret_change_me"

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // development/production

	APIBaseURL        string        // リモートREST API
	AddressAPIBaseURL string        // 住所検索API
	HTTPTimeout       time.Duration // 外部呼び出しのタイムアウト

	SessionSecret string        // sid cookie の署名
	SessionTTL    time.Duration // セッションの有効期限
	CookieSecure  bool
	FEURL         string // CORS

	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string

	RedisAddr        string // 空ならキャッシュはメモリのみ
	SettingsCacheTTL time.Duration
	AddressCacheTTL  time.Duration

	KafkaBrokers []string // 空ならイベントはプロセス内だけ
	KafkaTopic   string

	SliderInterval time.Duration
	LogLevel       string
}

// IsProduction は本番かどうか
func (c Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Load は .env（任意）と環境変数から設定を読む。
func Load() (Config, error) {
	// .env は無くてもよい
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	v.SetDefault("ADDRESS_API_BASE_URL", DefaultAddressAPIBaseURL)
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("FE_URL", "http://localhost:5173")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "storefront")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("SETTINGS_CACHE_TTL", "5m")
	v.SetDefault("ADDRESS_CACHE_TTL", "24h")
	v.SetDefault("KAFKA_TOPIC", "storefront.events")
	v.SetDefault("SLIDER_INTERVAL", "5s")
	v.SetDefault("LOG_LEVEL", "info")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:              v.GetString("PORT"),
		GoEnv:             v.GetString("GO_ENV"),
		APIBaseURL:        strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		AddressAPIBaseURL: strings.TrimRight(v.GetString("ADDRESS_API_BASE_URL"), "/"),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		CookieSecure:      v.GetBool("COOKIE_SECURE"),
		FEURL:             v.GetString("FE_URL"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetString("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		RedisAddr:    v.GetString("REDIS_ADDR"),
		KafkaBrokers: splitCSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		LogLevel:     v.GetString("LOG_LEVEL"),
	}

	var err error
	if cfg.HTTPTimeout, err = mustDuration(v, "HTTP_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = mustDuration(v, "SESSION_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.SettingsCacheTTL, err = mustDuration(v, "SETTINGS_CACHE_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.AddressCacheTTL, err = mustDuration(v, "ADDRESS_CACHE_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.SliderInterval, err = mustDuration(v, "SLIDER_INTERVAL"); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("SESSION_SECRET is required")
		}
		cfg.SessionSecret = devSessionSecret
	}
	if cfg.SliderInterval <= 0 {
		return Config{}, fmt.Errorf("SLIDER_INTERVAL must be positive")
	}

	return cfg, nil
}

// PostgresDSN は DATABASE_URL を優先してDSNを組み立てる。
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func mustDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
