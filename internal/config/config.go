package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is built once in main and handed to every constructor.
type Config struct {
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`

	DatabaseURL string `validate:"required"`
	AuthSecret  string `validate:"required,min=16"`

	S3          S3Settings
	RateLimit   RateLimitSettings
	Webhooks    WebhookSettings
	Payments    PaymentSettings
	Telegram    TelegramSettings
	SettingsTTL time.Duration `validate:"gt=0"`
}

type S3Settings struct {
	Endpoint   string `validate:"required"`
	AccessKey  string `validate:"required"`
	SecretKey  string `validate:"required"`
	Bucket     string `validate:"required"`
	Region     string
	Secure     bool
	CDNBaseURL string        `validate:"omitempty,url"`
	URLExpiry  time.Duration `validate:"gt=0"`
}

type RateLimitSettings struct {
	RedisURL string
	Requests int           `validate:"gt=0"`
	Window   time.Duration `validate:"gt=0"`
	Timeout  time.Duration `validate:"gt=0"`
	// TrustProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
	// Only set it when a proxy in front overwrites those headers.
	TrustProxy bool
}

type WebhookSettings struct {
	StripeSecret   string
	HyperswitchKey string
	FinixSecret    string
	ForeUpToken    string
}

type PaymentSettings struct {
	HyperswitchAPIURL string `validate:"omitempty,url"`
	HyperswitchAPIKey string
	ReturnURL         string `validate:"omitempty,url"`
}

type TelegramSettings struct {
	BotToken     string
	AdminChatIDs []int64
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary env lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Port:        get("PORT", "8080"),
		LogLevel:    get("LOG_LEVEL", "info"),
		DatabaseURL: get("DATABASE_URL", ""),
		AuthSecret:  get("AUTH_SECRET", ""),
		S3: S3Settings{
			Endpoint:   get("S3_ENDPOINT", ""),
			AccessKey:  get("S3_ACCESS_KEY", ""),
			SecretKey:  get("S3_SECRET_KEY", ""),
			Bucket:     get("S3_BUCKET", ""),
			Region:     get("S3_REGION", ""),
			CDNBaseURL: get("CDN_BASE_URL", ""),
		},
		RateLimit: RateLimitSettings{
			RedisURL: get("REDIS_URL", ""),
		},
		Webhooks: WebhookSettings{
			StripeSecret:   get("STRIPE_WEBHOOK_SECRET", ""),
			HyperswitchKey: get("HYPERSWITCH_WEBHOOK_KEY", ""),
			FinixSecret:    get("FINIX_WEBHOOK_SECRET", ""),
			ForeUpToken:    get("FOREUP_WEBHOOK_TOKEN", ""),
		},
		Payments: PaymentSettings{
			HyperswitchAPIURL: get("HYPERSWITCH_API_URL", ""),
			HyperswitchAPIKey: get("HYPERSWITCH_API_KEY", ""),
			ReturnURL:         get("PAYMENT_RETURN_URL", ""),
		},
		Telegram: TelegramSettings{
			BotToken: get("TELEGRAM_BOT_TOKEN", ""),
		},
	}

	var err error
	if cfg.S3.Secure, err = strconv.ParseBool(get("S3_SECURE", "true")); err != nil {
		return nil, fmt.Errorf("S3_SECURE: %w", err)
	}
	if cfg.S3.URLExpiry, err = time.ParseDuration(get("UPLOAD_URL_EXPIRY", "1h")); err != nil {
		return nil, fmt.Errorf("UPLOAD_URL_EXPIRY: %w", err)
	}
	if cfg.RateLimit.Requests, err = strconv.Atoi(get("RATE_LIMIT_REQUESTS", "100")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err)
	}
	if cfg.RateLimit.Window, err = time.ParseDuration(get("RATE_LIMIT_WINDOW", "1s")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.RateLimit.Timeout, err = time.ParseDuration(get("RATE_LIMIT_TIMEOUT", "1s")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_TIMEOUT: %w", err)
	}
	if cfg.RateLimit.TrustProxy, err = strconv.ParseBool(get("RATE_LIMIT_TRUST_PROXY", "false")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY: %w", err)
	}
	if cfg.SettingsTTL, err = time.ParseDuration(get("SETTINGS_CACHE_TTL", "1m")); err != nil {
		return nil, fmt.Errorf("SETTINGS_CACHE_TTL: %w", err)
	}
	if cfg.Telegram.AdminChatIDs, err = parseChatIDs(get("TELEGRAM_ADMIN_CHAT_IDS", "")); err != nil {
		return nil, fmt.Errorf("TELEGRAM_ADMIN_CHAT_IDS: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func parseChatIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
