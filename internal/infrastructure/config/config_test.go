package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.StoreDriver != DriverMongo || cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Login.MaxAttempts != 5 || cfg.Login.Window != 15*time.Minute || cfg.Login.AuthRateLimit != 10 {
		t.Fatalf("unexpected login defaults: %+v", cfg.Login)
	}
	if cfg.SMTP.Port != 587 || cfg.SMTP.Workers != 2 || cfg.SMTP.Host != "" {
		t.Fatalf("unexpected smtp defaults: %+v", cfg.SMTP)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("expected throttling disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.Admin.Email != "admin@taskflow.com" || cfg.Admin.Name != "Admin" {
		t.Fatalf("unexpected admin defaults: %+v", cfg.Admin)
	}
	if !cfg.IsDevelopment() || cfg.CookieSecure {
		t.Fatal("expected development defaults")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":    secret,
		"JWT_TTL":       "1h",
		"STORE_DRIVER":  "postgres",
		"COOKIE_SECURE": "true",
		"ENV":           "production",
		"LOGIN_WINDOW":  "5m",
		"MAIL_WORKERS":  "4",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTTTL != time.Hour || cfg.StoreDriver != DriverPostgres || !cfg.CookieSecure || cfg.IsDevelopment() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Login.Window != 5*time.Minute || cfg.SMTP.Workers != 4 {
		t.Fatalf("unexpected overrides: %+v %+v", cfg.Login, cfg.SMTP)
	}
}

func TestLoadFrom_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"JWT_SECRET":      {"JWT_SECRET": "short"},
		"STORE_DRIVER":    {"JWT_SECRET": secret, "STORE_DRIVER": "sqlite"},
		"AUTH_RATE_LIMIT": {"JWT_SECRET": secret, "AUTH_RATE_LIMIT": "0"},
	}
	for want, env := range cases {
		_, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("expected error mentioning %s, got %v", want, err)
		}
	}
}
