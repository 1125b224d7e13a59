package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const envPrefix = "ORDERS_"

type Config struct {
	App struct {
		Name string `koanf:"name"`
		Port string `koanf:"port"`
	} `koanf:"app"`

	Database struct {
		URL             string        `koanf:"url"`
		Host            string        `koanf:"host"`
		User            string        `koanf:"user"`
		Password        string        `koanf:"password"`
		Name            string        `koanf:"name"`
		Port            string        `koanf:"port"`
		TimeZone        string        `koanf:"timezone"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"database"`

	Auth struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		TokenTTL  time.Duration `koanf:"token_ttl"`

		// Seeded on first start when no user with this email exists.
		AdminEmail    string `koanf:"admin_email"`
		AdminPassword string `koanf:"admin_password"`
	} `koanf:"auth"`

	Orders struct {
		MinOrderValue string `koanf:"min_order_value"`
	} `koanf:"orders"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":                   "Order Management API v1.0",
		"app.port":                   "3000",
		"database.timezone":          "UTC",
		"database.max_open_conns":    100,
		"database.max_idle_conns":    10,
		"database.conn_max_lifetime": "1h",
		"auth.issuer":                "go-order-ws",
		"auth.token_ttl":             "24h",
		"auth.admin_email":           "admin@example.com",
		"auth.admin_password":        "admin123",
		"orders.min_order_value":     "5.00",
		"log.level":                  "info",
		"idempotency.ttl":            "24h",
		"kafka.topic":                "orders.events",
	}
}

// Load layers defaults, an optional YAML file (CONFIG_FILE), .env and ORDERS_* variables.
// Nested keys use a double underscore: ORDERS_DATABASE__URL -> database.url.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	// Comma separated broker lists come in as a single string from the environment.
	if raw, ok := k.Get("kafka.brokers").(string); ok {
		if err := k.Set("kafka.brokers", splitList(raw)); err != nil {
			return Config{}, fmt.Errorf("kafka brokers: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("app.port required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret required")
	}
	minValue, err := decimal.NewFromString(c.Orders.MinOrderValue)
	if err != nil {
		return fmt.Errorf("orders.min_order_value: %w", err)
	}
	if minValue.IsNegative() {
		return fmt.Errorf("orders.min_order_value must not be negative")
	}
	return nil
}

// MinOrderValue returns the configured order floor. Validate guarantees it parses.
func (c Config) MinOrderValue() decimal.Decimal {
	v, err := decimal.NewFromString(c.Orders.MinOrderValue)
	if err != nil {
		return decimal.NewFromInt(5)
	}
	return v.Round(2)
}

// DSN returns database.url or builds a key/value DSN from the individual parts.
func (c Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.Database.Host,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.Port,
		c.Database.TimeZone,
	)
}
