package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Service names the process being configured. Each service validates only the
// sections it uses.
type Service string

const (
	ServiceGateway Service = "gateway"
	ServiceUsers   Service = "userservice"
	ServiceContent Service = "contentservice"
)

// Config holds all configuration required by one process.
// Values come from the environment (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	Service   Service
	App       AppConfig
	Log       LogConfig
	DB        DBConfig
	Redis     RedisConfig
	Keys      KeysConfig
	Gateway   GatewayConfig
	Content   ContentConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type LogConfig struct {
	// Level overrides the env-derived default (debug locally, info elsewhere).
	Level string
	// File enables a rotated JSON log file in addition to stdout.
	File string
}

// DBConfig is optional. When Host is empty the user service keeps its store in memory.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. When Host is empty rate limits are tracked in memory.
type RedisConfig struct {
	Host string
	Port int
}

type KeysConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	// Autogenerate writes a fresh key pair when the files do not exist yet.
	Autogenerate  bool
	SeedDemoUsers bool
}

type GatewayConfig struct {
	UserServiceURL    string
	ContentServiceURL string
	KeyRetryInterval  time.Duration
	AllowedOrigins    []string
}

type ContentConfig struct {
	// PublicKeyURLs are tried in order when fetching the verification key.
	PublicKeyURLs    []string
	KeyRetryInterval time.Duration
}

// RateLimitConfig caps requests per client IP per window. Max <= 0 disables it.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

func defaultPort(s Service) int {
	switch s {
	case ServiceUsers:
		return 3001
	case ServiceContent:
		return 4000
	default:
		return 3000
	}
}

func defaultRateLimit(s Service) int {
	switch s {
	case ServiceGateway:
		return 1000
	case ServiceUsers:
		return 100
	default:
		return 0
	}
}

// Load reads the environment for the given service and validates it.
func Load(service Service) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "local")
	v.SetDefault("APP_PORT", defaultPort(service))
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("PRIVATE_KEY_PATH", "keys/private.pem")
	v.SetDefault("PUBLIC_KEY_PATH", "keys/public.pem")
	v.SetDefault("USER_SERVICE_URL", "http://userservice:3001")
	v.SetDefault("CONTENT_SERVICE_URL", "http://contentservice:4000")
	v.SetDefault("KEY_RETRY_INTERVAL", "5s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3002,http://frontend-app:3002")
	v.SetDefault("AUTH_PUBLIC_KEY_URLS", "http://userservice:3001/api/auth/public-key,http://localhost:3001/api/auth/public-key")
	v.SetDefault("RATE_LIMIT_MAX", defaultRateLimit(service))
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")

	c := Config{Service: service}

	c.App.Env = strings.TrimSpace(v.GetString("APP_ENV"))
	c.App.Port = v.GetInt("APP_PORT")

	c.Log.Level = strings.TrimSpace(v.GetString("LOG_LEVEL"))
	c.Log.File = strings.TrimSpace(v.GetString("LOG_FILE"))

	c.DB.Host = strings.TrimSpace(v.GetString("DB_HOST"))
	c.DB.Port = v.GetInt("DB_PORT")
	c.DB.User = strings.TrimSpace(v.GetString("DB_USER"))
	c.DB.Password = v.GetString("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(v.GetString("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(v.GetString("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(v.GetString("REDIS_HOST"))
	c.Redis.Port = v.GetInt("REDIS_PORT")

	c.Keys.PrivateKeyPath = strings.TrimSpace(v.GetString("PRIVATE_KEY_PATH"))
	c.Keys.PublicKeyPath = strings.TrimSpace(v.GetString("PUBLIC_KEY_PATH"))
	// Local-friendly default; production must ship real key files.
	v.SetDefault("KEYS_AUTOGENERATE", c.App.Env != "production")
	c.Keys.Autogenerate = v.GetBool("KEYS_AUTOGENERATE")
	c.Keys.SeedDemoUsers = v.GetBool("SEED_DEMO_USERS")

	c.Gateway.UserServiceURL = strings.TrimSpace(v.GetString("USER_SERVICE_URL"))
	c.Gateway.ContentServiceURL = strings.TrimSpace(v.GetString("CONTENT_SERVICE_URL"))
	c.Gateway.KeyRetryInterval = v.GetDuration("KEY_RETRY_INTERVAL")
	c.Gateway.AllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	c.Content.PublicKeyURLs = splitList(v.GetString("AUTH_PUBLIC_KEY_URLS"))
	c.Content.KeyRetryInterval = c.Gateway.KeyRetryInterval

	c.RateLimit.Max = v.GetInt("RATE_LIMIT_MAX")
	c.RateLimit.Window = v.GetDuration("RATE_LIMIT_WINDOW")

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.UsesPostgres() {
		errs = append(errs, c.validateDB()...)
	}
	if c.UsesRedis() && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_MAX is set"))
	}

	switch c.Service {
	case ServiceGateway:
		errs = append(errs, validateURL("USER_SERVICE_URL", c.Gateway.UserServiceURL)...)
		errs = append(errs, validateURL("CONTENT_SERVICE_URL", c.Gateway.ContentServiceURL)...)
		if c.Gateway.KeyRetryInterval <= 0 {
			errs = append(errs, errors.New("KEY_RETRY_INTERVAL must be positive"))
		}
	case ServiceUsers:
		if c.Keys.PrivateKeyPath == "" {
			errs = append(errs, errors.New("PRIVATE_KEY_PATH is required"))
		}
		if c.Keys.PublicKeyPath == "" {
			errs = append(errs, errors.New("PUBLIC_KEY_PATH is required"))
		}
		if c.IsProduction() && c.Keys.SeedDemoUsers {
			errs = append(errs, errors.New("SEED_DEMO_USERS must not be enabled in production"))
		}
	case ServiceContent:
		if len(c.Content.PublicKeyURLs) == 0 {
			errs = append(errs, errors.New("AUTH_PUBLIC_KEY_URLS requires at least one URL"))
		}
		for _, u := range c.Content.PublicKeyURLs {
			errs = append(errs, validateURL("AUTH_PUBLIC_KEY_URLS", u)...)
		}
		if c.Content.KeyRetryInterval <= 0 {
			errs = append(errs, errors.New("KEY_RETRY_INTERVAL must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown service %q", c.Service))
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) UsesPostgres() bool { return c.DB.Host != "" }

func (c Config) UsesRedis() bool { return c.Redis.Host != "" }

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateURL(key, raw string) []error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []error{fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)}
	}
	return nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
