package spacetraveling

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISMIC_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "spacetraveling" || cfg.Addr != ":3000" || cfg.URL != "http://localhost:3000" {
		t.Errorf("site defaults = %+v", cfg)
	}
	if cfg.PageSize != 1 {
		t.Errorf("PageSize = %d, want 1", cfg.PageSize)
	}
	if cfg.ListingTTL != 30*time.Minute || cfg.LoadMorePerMinute != 60 {
		t.Errorf("listing defaults = %v %d", cfg.ListingTTL, cfg.LoadMorePerMinute)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development by default")
	}
	if cfg.OutputDir != "dist" || cfg.StaticDir != "public" {
		t.Errorf("dirs = %q %q", cfg.OutputDir, cfg.StaticDir)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISMIC_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	t.Setenv("PRISMIC_ACCESS_TOKEN", "secret")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("LISTING_TTL", "10m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.PageSize != 5 || cfg.ListingTTL != 10*time.Minute || !cfg.CookieSecure {
		t.Errorf("parsed = %+v", cfg)
	}
	if cfg.PrismicAccessToken != "secret" || cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("parsed = %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Error("expected production")
	}
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	// t.Setenv restores both afterwards; godotenv never overrides set variables
	t.Setenv("PRISMIC_ENDPOINT", "")
	t.Setenv("SITE_NAME", "")
	os.Unsetenv("PRISMIC_ENDPOINT")
	os.Unsetenv("SITE_NAME")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PRISMIC_ENDPOINT=https://file.cdn.prismic.io/api/v2\nSITE_NAME=Diário\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.PrismicEndpoint != "https://file.cdn.prismic.io/api/v2" || cfg.Name != "Diário" {
		t.Errorf("parsed = %+v", cfg)
	}
}

func TestLoadConfigRequiresEndpoint(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISMIC_ENDPOINT", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without PRISMIC_ENDPOINT")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISMIC_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	t.Setenv("PAGE_SIZE", "many")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-numeric PAGE_SIZE")
	}
}

func TestLoadConfigMissingNamedFile(t *testing.T) {
	t.Setenv("PRISMIC_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for a missing env file that was asked for")
	}
}

func TestLoadConfigWithoutDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PRISMIC_ENDPOINT", "https://repo.cdn.prismic.io/api/v2")
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig without .env failed: %v", err)
	}
}
