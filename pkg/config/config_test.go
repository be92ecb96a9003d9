package config

import (
	"strings"
	"testing"
)

func TestLoadSuccess(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.App.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.App.Env)
	}
	if cfg.DB.DSN == "" {
		t.Fatal("expected DSN to be assembled from discrete vars")
	}
	if !strings.Contains(cfg.DB.DSN, "sslmode=disable") {
		t.Fatalf("expected sslmode in DSN, got %q", cfg.DB.DSN)
	}
	if got := cfg.Purchasing.TaxRateDecimal().String(); got != "0.18" {
		t.Fatalf("expected default tax rate 0.18, got %s", got)
	}
	if got := cfg.Purchasing.DefaultCostRatioDecimal().String(); got != "0.7" {
		t.Fatalf("expected default cost ratio 0.7, got %s", got)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("LATS_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT secret missing")
	}
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("LATS_PURCHASING_TAX_RATE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range tax rate")
	}
}

func TestDSNFallbackRequiresDiscreteVars(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("LATS_DB_HOST", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when neither DSN nor host provided")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	app := AppConfig{Env: "DEV"}
	if !app.IsDev() {
		t.Fatal("expected IsDev for DEV")
	}
	app.Env = "prod"
	if !app.IsProd() {
		t.Fatal("expected IsProd for prod")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LATS_APP_ENV", "dev")
	t.Setenv("LATS_APP_PORT", "8080")
	t.Setenv("LATS_DB_DSN", "")
	t.Setenv("LATS_DB_HOST", "localhost")
	t.Setenv("LATS_DB_USER", "lats")
	t.Setenv("LATS_DB_PASSWORD", "secret")
	t.Setenv("LATS_DB_NAME", "lats")
	t.Setenv("LATS_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LATS_JWT_SECRET", "test-secret")
	t.Setenv("LATS_JWT_ISSUER", "lats-test")
	t.Setenv("LATS_JWT_EXPIRATION_MINUTES", "15")
	t.Setenv("LATS_PURCHASING_TAX_RATE", "0.18")
	t.Setenv("LATS_PURCHASING_DEFAULT_COST_RATIO", "0.70")
}
