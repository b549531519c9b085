package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`
	AdminChatID         int64  `env:"ADMIN_CHAT_ID,default=0"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	PricingBaseURL string        `env:"PRICING_API_BASE_URL,required"`
	PricingTimeout time.Duration `env:"PRICING_API_TIMEOUT,default=10s"`
	PricingMaxRPS  float64       `env:"PRICING_API_MAX_RPS,default=1"`

	RefreshInterval time.Duration `env:"REFRESH_INTERVAL,default=24h"`
	RefreshOnStart  bool          `env:"REFRESH_ON_START,default=false"`
	NotifyWorkers   int           `env:"NOTIFY_WORKERS,default=8"`
	PendingEditTTL  time.Duration `env:"PENDING_EDIT_TTL,default=10m"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
