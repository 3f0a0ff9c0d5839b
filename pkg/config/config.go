package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Oversell policies for sale recording
const (
	OversellReject = "reject"
	OversellClamp  = "clamp"
)

// Config holds everything the API process needs at startup.
type Config struct {
	Port   string `yaml:"port"`
	AppEnv string `yaml:"app_env"`

	Database DatabaseConfig `yaml:"database"`
	Sales    SalesConfig    `yaml:"sales"`

	JWTSecret      string        `yaml:"-"`
	AppKey         string        `yaml:"-"` // HMAC key for feedback links
	RedisAddr      string        `yaml:"redis_addr"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	FrontendURL    string        `yaml:"frontend_url"`
	AdminEmail     string        `yaml:"admin_email"`
	AdminPassword  string        `yaml:"-"`

	OtelExporter string `yaml:"otel_exporter"` // none, stdout, otlp
	OtelEndpoint string `yaml:"otel_endpoint"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres, mysql, sqlite
	URL        string `yaml:"-"`
	Host       string `yaml:"host"`
	User       string `yaml:"user"`
	Password   string `yaml:"-"`
	Name       string `yaml:"name"`
	Port       string `yaml:"port"`
	SQLitePath string `yaml:"sqlite_path"`
}

type SalesConfig struct {
	AllowAnonymous bool   `yaml:"allow_anonymous"`
	OversellPolicy string `yaml:"oversell_policy"`
	InvoicePrefix  string `yaml:"invoice_prefix"`
}

func defaults() *Config {
	return &Config{
		Port:   "3000",
		AppEnv: "development",
		Database: DatabaseConfig{
			Driver:     "postgres",
			SQLitePath: "pos.db",
		},
		Sales: SalesConfig{
			OversellPolicy: OversellReject,
			InvoicePrefix:  "INV-",
		},
		IdempotencyTTL: 24 * time.Hour,
		FrontendURL:    "http://localhost:5173",
		AdminEmail:     "admin@example.com",
		AdminPassword:  "admin123",
		OtelExporter:   "none",
	}
}

// Load reads .env (if present), an optional YAML file named by CONFIG_FILE,
// and finally environment variables, which take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.AppEnv, "APP_ENV")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")

	setBool(&c.Sales.AllowAnonymous, "ALLOW_ANONYMOUS_SALES")
	setString(&c.Sales.OversellPolicy, "OVERSELL_POLICY")
	setString(&c.Sales.InvoicePrefix, "INVOICE_PREFIX")

	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.AppKey, "APP_KEY")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setDuration(&c.IdempotencyTTL, "IDEMPOTENCY_TTL")
	setString(&c.FrontendURL, "FRONTEND_URL")
	setString(&c.AdminEmail, "ADMIN_EMAIL")
	setString(&c.AdminPassword, "ADMIN_PASSWORD")

	setString(&c.OtelExporter, "OTEL_EXPORTER")
	setString(&c.OtelEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	c.Sales.OversellPolicy = strings.ToLower(c.Sales.OversellPolicy)
	switch c.Sales.OversellPolicy {
	case OversellReject, OversellClamp:
	default:
		return fmt.Errorf("invalid OVERSELL_POLICY %q (want reject or clamp)", c.Sales.OversellPolicy)
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.AppKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("APP_KEY is required in production")
		}
		c.AppKey = "local-feedback-key"
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
