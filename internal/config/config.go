// Package config loads the tracker configuration from a YAML file, a .env
// file and the environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/signal-tracker/internal/evaluator"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/processor"
	"github.com/rxtech-lab/signal-tracker/internal/version"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// Config is the full tracker configuration.
type Config struct {
	// Version is the release the file was written for. Empty skips the check.
	Version    string           `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=signal-tracker release the file was written for"`
	Store      StoreConfig      `yaml:"store" json:"store" jsonschema:"title=Store,description=Where signals and candles are stored"`
	MarketData MarketDataConfig `yaml:"market_data" json:"market_data" jsonschema:"title=Market Data,description=Candle provider settings"`
	Evaluator  EvaluatorConfig  `yaml:"evaluator" json:"evaluator" jsonschema:"title=Evaluator,description=Outcome evaluation settings"`
	Server     ServerConfig     `yaml:"server" json:"server" jsonschema:"title=Server,description=HTTP API settings"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging" jsonschema:"title=Logging"`
	Telegram   TelegramConfig   `yaml:"telegram" json:"telegram" jsonschema:"title=Telegram,description=Notifications for closed signals"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver" jsonschema:"title=Driver,enum=postgres,enum=duckdb,default=postgres" validate:"required,oneof=postgres duckdb"`
	// DSN is a postgres connection string or a duckdb file path.
	DSN string `yaml:"dsn" json:"dsn" jsonschema:"title=DSN,description=Postgres connection string or DuckDB file path" validate:"required_if=Driver postgres"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" jsonschema:"title=Max Attempts,minimum=1,default=6" validate:"min=1"`
	Delay       time.Duration `yaml:"delay" json:"delay" jsonschema:"title=Delay,description=Fixed wait between attempts such as 10s" validate:"min=0"`
}

type MarketDataConfig struct {
	Provider            string      `yaml:"provider" json:"provider" jsonschema:"title=Provider,enum=binance,enum=polygon,default=binance" validate:"required,oneof=binance polygon"`
	BaseURL             string      `yaml:"base_url" json:"base_url" jsonschema:"title=Base URL,description=Overrides the Binance REST endpoint" validate:"omitempty,url"`
	PageSize            int         `yaml:"page_size" json:"page_size" jsonschema:"title=Page Size,minimum=1,maximum=50000,default=1000" validate:"min=1,max=50000"`
	PolygonAPIKey       string      `yaml:"polygon_api_key" json:"polygon_api_key" jsonschema:"title=Polygon API Key" validate:"required_if=Provider polygon"`
	PolygonTickerPrefix string      `yaml:"polygon_ticker_prefix" json:"polygon_ticker_prefix" jsonschema:"title=Polygon Ticker Prefix,default=X:"`
	Retry               RetryConfig `yaml:"retry" json:"retry" jsonschema:"title=Retry"`
}

type EvaluatorConfig struct {
	Interval       string `yaml:"interval" json:"interval" jsonschema:"title=Interval,default=5m" validate:"required,interval"`
	PostHitPadding int    `yaml:"post_hit_padding" json:"post_hit_padding" jsonschema:"title=Post Hit Padding,description=Bars kept after the closing bar,minimum=0,default=10" validate:"min=0"`
	Concurrency    int    `yaml:"concurrency" json:"concurrency" jsonschema:"title=Concurrency,description=Signals evaluated at once in a batch,minimum=1,default=4" validate:"min=1"`
	// ReferenceTimezone interprets times given without an offset.
	ReferenceTimezone string `yaml:"reference_timezone" json:"reference_timezone" jsonschema:"title=Reference Timezone,description=IANA zone for times entered without an offset,default=UTC" validate:"timezone"`
	BatchLimit        int    `yaml:"batch_limit" json:"batch_limit" jsonschema:"title=Batch Limit,description=Open signals per batch run; 0 means all,minimum=0" validate:"min=0"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host" jsonschema:"title=Host,default=127.0.0.1"`
	Port int    `yaml:"port" json:"port" jsonschema:"title=Port,minimum=1,maximum=65535,default=8080" validate:"min=1,max=65535"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level" jsonschema:"title=Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"oneof=debug info warn error"`
	File       string `yaml:"file" json:"file" jsonschema:"title=File,description=Rotated JSON log file; empty logs to stderr only"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb" jsonschema:"title=Max Size (MB),minimum=0" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" jsonschema:"title=Max Backups,minimum=0" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days" jsonschema:"title=Max Age (days),minimum=0" validate:"min=0"`
}

type TelegramConfig struct {
	Token  string `yaml:"token" json:"token" jsonschema:"title=Bot Token"`
	ChatID int64  `yaml:"chat_id" json:"chat_id" jsonschema:"title=Chat ID" validate:"required_with=Token"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: "postgres",
			DSN:    "",
		},
		MarketData: MarketDataConfig{
			Provider:            string(marketdata.ProviderBinance),
			BaseURL:             "",
			PageSize:            1000,
			PolygonAPIKey:       "",
			PolygonTickerPrefix: "X:",
			Retry: RetryConfig{
				MaxAttempts: 6,
				Delay:       10 * time.Second,
			},
		},
		Evaluator: EvaluatorConfig{
			Interval:          string(marketdata.DefaultInterval),
			PostHitPadding:    10,
			Concurrency:       4,
			ReferenceTimezone: "UTC",
			BatchLimit:        0,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Telegram: TelegramConfig{},
	}
}

// Load builds the configuration. envFile is loaded into the process
// environment first; an empty envFile loads ./.env when it exists. An empty
// path skips the YAML file. overrides run after the environment, before
// validation.
func Load(path, envFile string, overrides ...func(*Config)) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", envFile)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to load .env", err)
		}
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
		}

		if err := version.CheckConfigCompatibility(version.GetVersion(), cfg.Version); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. The DB_* variables
// build a postgres DSN when no DSN is set explicitly.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	integer := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "%s must be an integer", name)
		}

		*dst = n

		return nil
	}

	str("SIGNAL_TRACKER_STORE_DRIVER", &c.Store.Driver)

	if dsn := postgresDSNFromParts(lookup); dsn != "" {
		c.Store.DSN = dsn
	}

	str("SIGNAL_TRACKER_DATABASE_DSN", &c.Store.DSN)
	str("SIGNAL_TRACKER_PROVIDER", &c.MarketData.Provider)
	str("SIGNAL_TRACKER_BINANCE_BASE_URL", &c.MarketData.BaseURL)
	str("POLYGON_API_KEY", &c.MarketData.PolygonAPIKey)
	str("SIGNAL_TRACKER_INTERVAL", &c.Evaluator.Interval)
	str("SIGNAL_TRACKER_TIMEZONE", &c.Evaluator.ReferenceTimezone)
	str("SIGNAL_TRACKER_LOG_LEVEL", &c.Logging.Level)
	str("SIGNAL_TRACKER_LOG_FILE", &c.Logging.File)
	str("SIGNAL_TRACKER_HOST", &c.Server.Host)
	str("SIGNAL_TRACKER_TELEGRAM_TOKEN", &c.Telegram.Token)

	if err := integer("SIGNAL_TRACKER_PORT", &c.Server.Port); err != nil {
		return err
	}

	if err := integer("SIGNAL_TRACKER_CONCURRENCY", &c.Evaluator.Concurrency); err != nil {
		return err
	}

	if v, ok := lookup("SIGNAL_TRACKER_TELEGRAM_CHAT_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "SIGNAL_TRACKER_TELEGRAM_CHAT_ID must be an integer", err)
		}

		c.Telegram.ChatID = id
	}

	return nil
}

// postgresDSNFromParts builds a DSN from DB_HOST, DB_PORT, DB_NAME, DB_USER
// and DB_PASSWORD. It returns "" when DB_HOST is unset.
func postgresDSNFromParts(lookup func(string) (string, bool)) string {
	host, ok := lookup("DB_HOST")
	if !ok || host == "" {
		return ""
	}

	get := func(name, fallback string) string {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}

		return fallback
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, get("DB_PORT", "5432")),
		Path:   "/" + get("DB_NAME", "postgres"),
	}

	user := get("DB_USER", "postgres")
	if password, ok := lookup("DB_PASSWORD"); ok && password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}

	return u.String()
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("interval", func(fl validator.FieldLevel) bool {
			return marketdata.Interval(fl.Field().String()).Valid()
		})
	})

	return validate
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// Interval returns the evaluation interval. Call after Validate.
func (c Config) Interval() marketdata.Interval {
	return marketdata.Interval(c.Evaluator.Interval)
}

// Location returns the reference timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Evaluator.ReferenceTimezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "unknown timezone %q", c.Evaluator.ReferenceTimezone)
	}

	return loc, nil
}

// Address is the host:port the API listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Logger converts the logging section.
func (c Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}

// Provider converts the market data section.
func (c Config) Provider() provider.Config {
	return provider.Config{
		Provider:            marketdata.ProviderType(c.MarketData.Provider),
		BaseURL:             c.MarketData.BaseURL,
		PageSize:            c.MarketData.PageSize,
		PolygonAPIKey:       c.MarketData.PolygonAPIKey,
		PolygonTickerPrefix: c.MarketData.PolygonTickerPrefix,
		Retry: provider.RetryPolicy{
			MaxAttempts: c.MarketData.Retry.MaxAttempts,
			Delay:       c.MarketData.Retry.Delay,
		},
	}
}

// Processor converts the evaluator section. now bounds every evaluation
// window; nil means time.Now.
func (c Config) Processor(now func() time.Time) processor.Config {
	if now == nil {
		now = time.Now
	}

	return processor.Config{
		Evaluator: evaluator.Config{
			Interval:       c.Interval(),
			PostHitPadding: c.Evaluator.PostHitPadding,
			Now:            now,
		},
		Concurrency: c.Evaluator.Concurrency,
	}
}

// String renders the configuration with secrets masked.
func (c Config) String() string {
	masked := c
	masked.Store.DSN = mask(c.Store.DSN)
	masked.MarketData.PolygonAPIKey = mask(c.MarketData.PolygonAPIKey)
	masked.Telegram.Token = mask(c.Telegram.Token)

	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}

	return string(out)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}
