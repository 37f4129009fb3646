package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "DATABASE_DRIVER", "REDIS_URL", "KAFKA_BROKER",
		"OTEL_ENDPOINT", "OTEL_AUTH_HEADER", "STRICT_ISSUE", "SEED_CATALOG", "SALE_LOCK_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DatabaseDriver != DriverPostgres {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StrictIssue || !cfg.SeedCatalog || cfg.SaleLockTTL != 5*time.Second {
		t.Fatalf("unexpected flag defaults %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "MySQL")
	t.Setenv("STRICT_ISSUE", "yes")
	t.Setenv("SEED_CATALOG", "0")
	t.Setenv("SALE_LOCK_TTL", "250ms")
	t.Setenv("OTEL_ENDPOINT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.DatabaseDriver != DriverMySQL || !cfg.StrictIssue || cfg.SeedCatalog {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SaleLockTTL != 250*time.Millisecond {
		t.Fatalf("expected 250ms lock ttl, got %s", cfg.SaleLockTTL)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"PORT", "http"},
		{"DATABASE_DRIVER", "sqlite"},
		{"SALE_LOCK_TTL", "soon"},
		{"SALE_LOCK_TTL", "-1s"},
		{"OTEL_ENDPOINT", "otlp.example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv("OTEL_AUTH_HEADER", "")
			t.Setenv(tc.key, tc.value)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected an error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestEnvFlag(t *testing.T) {
	cases := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{"y", false, true},
		{"no", true, false},
		{"", true, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("FLAG_UNDER_TEST", tc.value)
		if got := envFlag("FLAG_UNDER_TEST", tc.def); got != tc.expected {
			t.Fatalf("envFlag(%q, %v) expected %v, got %v", tc.value, tc.def, tc.expected, got)
		}
	}
}
