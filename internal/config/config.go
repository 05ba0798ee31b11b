package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Store  StoreConfig
	Queue  QueueConfig
	Mail   MailConfig
	Intake IntakeConfig
}

type AppConfig struct {
	Env      string // development, staging, production
	LogLevel string
}

func (c AppConfig) IsProduction() bool { return c.Env == "production" }

type HTTPConfig struct {
	Addr               string
	CORSAllowedOrigins []string
}

// StoreConfig selects and configures the lead store driver.
type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	Timeout       time.Duration
}

type QueueConfig struct {
	AMQPURL string // empty disables lead events
}

// MailConfig is used by the notification worker. An empty Host disables it.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	NotifyTo []string
}

func (c MailConfig) Enabled() bool { return c.Host != "" }

type IntakeConfig struct {
	RatePerMinute int
}

// Load reads .env when present, then the process environment. Environment
// variables win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Addr:               v.GetString("HTTP_ADDR"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
			DatabaseURL:   v.GetString("DATABASE_URL"),
			Timeout:       v.GetDuration("STORE_TIMEOUT"),
		},
		Queue: QueueConfig{
			AMQPURL: v.GetString("AMQP_URL"),
		},
		Mail: MailConfig{
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			User:     v.GetString("MAIL_USER"),
			Password: v.GetString("MAIL_PASS"),
			From:     v.GetString("MAIL_FROM"),
			NotifyTo: splitList(v.GetString("NOTIFY_EMAIL_TO")),
		},
		Intake: IntakeConfig{
			RatePerMinute: v.GetInt("INTAKE_RATE_PER_MINUTE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "door_leads")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@localhost")
	v.SetDefault("INTAKE_RATE_PER_MINUTE", 10)
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMongo, DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("config: STORE_TIMEOUT must be positive")
	}
	if c.Intake.RatePerMinute <= 0 {
		return fmt.Errorf("config: INTAKE_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
