package shared

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"API_BASE_URL", "API_MAX_ATTEMPTS", "CACHE_TTL_SECONDS", "SESSION_SECRET", "COOKIE_SECURE", "APP_ENV", "TRUSTED_PROXY"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.APIBaseURL != "http://localhost:3000" {
		t.Fatalf("base url: %q", c.APIBaseURL)
	}
	if c.APIMaxAttempts != 1 {
		t.Fatalf("retries must be off by default, got %d attempts", c.APIMaxAttempts)
	}
	if c.CacheTTL != 5*time.Minute {
		t.Fatalf("ttl: %v", c.CacheTTL)
	}
	if c.SessionSecret != "" {
		t.Fatalf("no fallback secret outside dev, got %q", c.SessionSecret)
	}
	if c.CookieSecure || c.TrustProxy {
		t.Fatalf("cookies should not be secure and proxies not trusted by default")
	}
}

func TestValidate_SessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("APP_ENV", "prod")
	if err := Load().Validate(); !errors.Is(err, ErrNoSessionSecret) {
		t.Fatalf("empty secret in prod: got %v", err)
	}

	t.Setenv("SESSION_SECRET", devSessionSecret)
	if err := Load().Validate(); !errors.Is(err, ErrNoSessionSecret) {
		t.Fatalf("dev secret in prod: got %v", err)
	}

	t.Setenv("SESSION_SECRET", "s3cr3t-from-the-vault")
	if err := Load().Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestLoad_DevFallbackSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("APP_ENV", "dev")
	c := Load()
	if c.SessionSecret != devSessionSecret {
		t.Fatalf("expected the development secret, got %q", c.SessionSecret)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("dev config should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.paraiso.pe/")
	t.Setenv("API_MAX_ATTEMPTS", "3")
	t.Setenv("API_RPS", "not-a-number")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("TRUSTED_PROXY", "true")

	c := Load()
	if c.APIBaseURL != "https://api.paraiso.pe" {
		t.Fatalf("trailing slash not trimmed: %q", c.APIBaseURL)
	}
	if c.APIMaxAttempts != 3 || c.APIRPS != 20 || !c.CookieSecure || !c.IsDev() || !c.TrustProxy {
		t.Fatalf("unexpected config: %+v", c)
	}
}
