package shared

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	APIBaseURL     string
	APIRPS         int
	APITimeout     time.Duration
	APIMaxAttempts int

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	SessionSecret string
	CookieSecure  bool
	TrustProxy    bool
	CSRFKey       string
	CSRFDisabled  bool

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	SMTPFrom  string
	DeskEmail string

	WarmWorkers int
}

// Load reads the environment, after an optional .env in the working directory.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		APIBaseURL:     strings.TrimRight(env("API_BASE_URL", "http://localhost:3000"), "/"),
		APIRPS:         atoi("API_RPS", 20),
		APITimeout:     time.Duration(atoi("API_TIMEOUT_SECONDS", 10)) * time.Second,
		APIMaxAttempts: atoi("API_MAX_ATTEMPTS", 1),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/paraiso?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		SessionSecret:  env("SESSION_SECRET", ""),
		CookieSecure:   env("COOKIE_SECURE", "false") == "true",
		TrustProxy:     env("TRUSTED_PROXY", "false") == "true",
		CSRFKey:        env("CSRF_KEY", ""),
		CSRFDisabled:   env("CSRF_DISABLED", "false") == "true",
		SMTPHost:       env("SMTP_HOST", ""),
		SMTPPort:       atoi("SMTP_PORT", 587),
		SMTPUser:       env("SMTP_USERNAME", ""),
		SMTPPass:       env("SMTP_PASSWORD", ""),
		SMTPFrom:       env("SMTP_FROM", "Hotel Paraíso Verde <reservas@paraisoverde.example>"),
		DeskEmail:      env("CONTACT_EMAIL", ""),
		WarmWorkers:    atoi("WARM_WORKERS", 4),
	}
	if c.SessionSecret == "" && c.IsDev() {
		log.Warn().Msg("SESSION_SECRET is empty; using an insecure development secret")
		c.SessionSecret = devSessionSecret
	}
	if c.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST is empty; booking e-mails will only be logged")
	}
	return c
}

const devSessionSecret = "dev-insecure-session-secret-change-me"

var ErrNoSessionSecret = errors.New("SESSION_SECRET must be set outside development")

// Validate reports settings the web server cannot start with. Session
// cookies are only as trustworthy as their signing secret.
func (c Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	if c.SessionSecret == "" || c.SessionSecret == devSessionSecret {
		return ErrNoSessionSecret
	}
	return nil
}

func (c Config) IsDev() bool { return c.AppEnv == "dev" || c.AppEnv == "development" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
