package config

import (
	"fmt"
	"strings"
	"time"

	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Prefix is prepended to every variable, e.g. SHOP_HTTP_ADDR.
const Prefix = "SHOP"

const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

type Config struct {
	ServiceName string `split_words:"true" default:"shop"`
	Env         string `default:"dev"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	Log     Log
	Tracing Tracing
	Store   Store
	MySQL   MySQL `envconfig:"MYSQL"`
	AMQP    AMQP  `envconfig:"AMQP"`
	Cache   Cache
	Pricing Pricing
	Outbox  Outbox
}

type Log struct {
	Level string `default:"info"`
	File  string
}

type Tracing struct {
	Stdout bool `default:"false"`
}

type Store struct {
	Driver string `default:"memory"`
}

type MySQL struct {
	DSN             string        `envconfig:"DSN"`
	Migrate         bool          `default:"true"`
	MaxOpenConns    int           `split_words:"true" default:"20"`
	MaxIdleConns    int           `split_words:"true" default:"10"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"5m"`
}

// AMQP is optional; without a URL notifications are only logged.
type AMQP struct {
	URL      string `envconfig:"URL"`
	Queue    string `default:"order-emails"`
	PoolSize int    `split_words:"true" default:"4"`
}

type Cache struct {
	Size int           `default:"4096"`
	TTL  time.Duration `envconfig:"TTL" default:"5m"`
}

type Pricing struct {
	TaxRate               decimal.Decimal `split_words:"true" default:"0.10"`
	FreeShippingThreshold decimal.Decimal `split_words:"true" default:"50.00"`
	ShippingFee           decimal.Decimal `split_words:"true" default:"10.00"`
}

type Outbox struct {
	QueueSize   int `split_words:"true" default:"1024"`
	Concurrency int `default:"8"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQL.DSN == "" {
			return fmt.Errorf("config: %s_MYSQL_DSN is required for the mysql store", Prefix)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Pricing.TaxRate.IsNegative() || c.Pricing.ShippingFee.IsNegative() || c.Pricing.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("config: pricing values must be zero or greater")
	}
	return nil
}

func (p Pricing) Cart() domcart.Pricing {
	return domcart.Pricing{
		TaxRate:               p.TaxRate,
		FreeShippingThreshold: p.FreeShippingThreshold,
		ShippingFee:           p.ShippingFee,
	}
}

// Usage prints the recognised variables.
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
