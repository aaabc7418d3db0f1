package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	GRPCPort        string        `mapstructure:"GRPC_PORT"`
	DBPath          string        `mapstructure:"DB_PATH"`
	DemoUserID      int64         `mapstructure:"DEMO_USER_ID"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `mapstructure:"MAX_BODY_BYTES"`
	CORSOrigins     string        `mapstructure:"CORS_ORIGINS"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	GeminiAPIKey    string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel     string        `mapstructure:"GEMINI_MODEL"`
	ChatTimeout     time.Duration `mapstructure:"CHAT_TIMEOUT"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	CatalogTTL      time.Duration `mapstructure:"CATALOG_TTL"`
	KafkaBrokers    string        `mapstructure:"KAFKA_BROKERS"`
	OrdersTopic     string        `mapstructure:"ORDERS_TOPIC"`
	OutboxInterval  time.Duration `mapstructure:"OUTBOX_INTERVAL"`
}

var defaults = map[string]interface{}{
	"PORT":             "3000",
	"GRPC_PORT":        "50051",
	"DB_PATH":          "./nutricoach.db",
	"DEMO_USER_ID":     1,
	"REQUEST_TIMEOUT":  30 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,
	"MAX_BODY_BYTES":   1 << 20, // 1MB
	"CORS_ORIGINS":     "*",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "json",
	"GEMINI_API_KEY":   "",
	"GEMINI_MODEL":     "gemini-2.5-flash",
	"CHAT_TIMEOUT":     30 * time.Second,
	"REDIS_ADDR":       "",
	"REDIS_PASSWORD":   "",
	"CATALOG_TTL":      15 * time.Minute,
	"KAFKA_BROKERS":    "",
	"ORDERS_TOPIC":     "orders.created",
	"OUTBOX_INTERVAL":  time.Second,
}

// Load reads envFile (".env" when empty) if it exists, then the process
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.DemoUserID <= 0 {
		return fmt.Errorf("DEMO_USER_ID must be positive, got %d", c.DemoUserID)
	}
	if c.RequestTimeout <= 0 || c.ChatTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.OutboxInterval <= 0 {
		return fmt.Errorf("OUTBOX_INTERVAL must be positive, got %s", c.OutboxInterval)
	}
	return nil
}

func (c *Config) Origins() []string {
	return splitList(c.CORSOrigins)
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
