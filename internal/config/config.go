package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SMTP holds the mail relay settings used for admin notifications.
type SMTP struct {
	Server       string
	Port         string
	User         string
	Password     string
	From         string
	FallbackTo   string
	AuthDisabled bool
}

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	RedisAddr   string
	JWTSecret   string

	LowStockThreshold   int
	LowStockCooldown    time.Duration
	DailyReportAt       string
	CheckoutLockTimeout time.Duration

	SMTP SMTP

	KafkaBrokers []string
	OrdersTopic  string

	UploadDir      string
	RateLimitRPS   float64
	RateLimitBurst int

	Migrate    bool
	SendReport bool
}

// Load reads configuration from defaults, an optional config file, the
// environment and command line flags, in increasing order of precedence.
func Load(args []string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	fs.String("addr", v.GetString("HTTP_ADDR"), "HTTP listen address")
	fs.Bool("migrate", true, "run database migrations on start")
	fs.Bool("send-report", false, "send yesterday's sales report and exit")
	fs.String("config", "", "path to a config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	_ = v.BindPFlag("HTTP_ADDR", fs.Lookup("addr"))
	_ = v.BindPFlag("MIGRATE", fs.Lookup("migrate"))
	_ = v.BindPFlag("SEND_REPORT", fs.Lookup("send-report"))

	v.AutomaticEnv()

	cfgFile, _ := fs.GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv("STOREFRONT_CONFIG")
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "inventory-redis:6379")
	v.SetDefault("JWT_SECRET", "super-secret-key")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("LOW_STOCK_COOLDOWN", 24*time.Hour)
	v.SetDefault("DAILY_REPORT_AT", "18:00")
	v.SetDefault("CHECKOUT_LOCK_TIMEOUT", 5*time.Second)
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("ORDERS_TOPIC", "orders.placed")
	v.SetDefault("UPLOAD_DIR", "./storage/products")
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("MIGRATE", true)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:            v.GetString("HTTP_ADDR"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		LowStockThreshold:   v.GetInt("LOW_STOCK_THRESHOLD"),
		LowStockCooldown:    v.GetDuration("LOW_STOCK_COOLDOWN"),
		DailyReportAt:       v.GetString("DAILY_REPORT_AT"),
		CheckoutLockTimeout: v.GetDuration("CHECKOUT_LOCK_TIMEOUT"),
		SMTP: SMTP{
			Server:       v.GetString("SMTP_SERVER"),
			Port:         v.GetString("SMTP_PORT"),
			User:         v.GetString("SMTP_USER"),
			Password:     v.GetString("SMTP_PASS"),
			From:         v.GetString("ALERT_FROM"),
			FallbackTo:   v.GetString("ALERT_TO"),
			AuthDisabled: v.GetString("SMTP_AUTH_DISABLED") != "",
		},
		KafkaBrokers:   splitList(v.GetString("KAFKA_BROKERS")),
		OrdersTopic:    v.GetString("ORDERS_TOPIC"),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		Migrate:        v.GetBool("MIGRATE"),
		SendReport:     v.GetBool("SEND_REPORT"),
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration that would make the process misbehave.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, errors.New("LOW_STOCK_THRESHOLD cannot be negative"))
	}
	if c.LowStockCooldown <= 0 {
		errs = append(errs, errors.New("LOW_STOCK_COOLDOWN must be positive"))
	}
	if _, _, err := ParseClock(c.DailyReportAt); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	return errors.Join(errs...)
}

// ParseClock parses a wall-clock time such as "18:00".
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid DAILY_REPORT_AT %q: expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
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
