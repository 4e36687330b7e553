package spacetraveling

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/eringen/spacetraveling/listing"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "spacetraveling")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Author name for JSON-LD

	Addr string `env:"ADDR"`    // Listen address (default ":3000")
	Env  string `env:"APP_ENV"` // "development" or "production" (default "development")

	PrismicEndpoint    string `env:"PRISMIC_ENDPOINT,notEmpty"` // e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string `env:"PRISMIC_ACCESS_TOKEN"`
	PageSize           int    `env:"PAGE_SIZE"` // Posts per listing page (default 1)

	SessionSecret string `env:"SESSION_SECRET"` // Required for serve
	CookieSecure  bool   `env:"COOKIE_SECURE"`  // Set true for HTTPS

	RedisURL          string        `env:"REDIS_URL"`            // Optional shared listing store
	ListingTTL        time.Duration `env:"LISTING_TTL"`          // Lifetime of an idle listing view (default 30min)
	LoadMorePerMinute int           `env:"LOAD_MORE_PER_MINUTE"` // Per-IP load-more budget (default 60)

	SentryDSN string `env:"SENTRY_DSN"`
	OutputDir string `env:"OUTPUT_DIR"` // Static build target (default "dist")
	StaticDir string `env:"STATIC_DIR"` // User static assets (default "public")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.PageSize <= 0 {
		c.PageSize = 1
	}
	if c.ListingTTL <= 0 {
		c.ListingTTL = 30 * time.Minute
	}
	if c.LoadMorePerMinute <= 0 {
		c.LoadMorePerMinute = 60
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
}

// IsDevelopment reports whether the site runs in development mode.
func (c SiteConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadConfig reads env files and the environment into a SiteConfig with
// defaults applied. Without files it reads ./.env when present; files named
// explicitly must exist.
func LoadConfig(files ...string) (SiteConfig, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, fmt.Errorf("spacetraveling: load env file: %w", err)
		}
	}
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("spacetraveling: parse config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithContentProvider replaces the Prismic client built from the config.
func WithContentProvider(p ContentProvider) Option {
	return func(a *App) {
		a.Content = p
	}
}

// WithListingStore replaces the store built from the config.
func WithListingStore(s listing.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithLogger sets the logger used by the app (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}
