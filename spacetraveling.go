// Package spacetraveling is a blog front-end for posts kept in a Prismic
// repository. It serves a paginated listing with a "load more" control and
// a page per post, and can also export the whole site as static files.
//
// Templates are supplied through ViewFuncs; spacetraveling owns the
// handlers, middleware, pagination state and CMS access.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/prismic"
)

// ContentProvider is the subset of the CMS client the site needs.
type ContentProvider interface {
	GetByType(ctx context.Context, typ string, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, typ, uid string) (*prismic.Document, error)
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

// ViewFuncs holds the templ components the app renders. PostList renders
// the fragment returned by a load-more: the appended posts followed by the
// new state of the control.
type ViewFuncs struct {
	Home        func(page ListingPage) templ.Component
	PostList    func(page ListingPage) templ.Component
	Post        func(page PostPage) templ.Component
	NotFound    func(page ErrorPage) templ.Component
	ServerError func(page ErrorPage) templ.Component
}

// App is the central spacetraveling application. It wires together the
// content provider, listing store, handlers, middleware and templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content ContentProvider
	Views   ViewFuncs

	store        listing.Store
	pager        *listing.Pager
	limiter      *RateLimiter
	log          *slog.Logger
	customRoutes []func(*App)
	staticDir    string
	ready        bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: cfg.StaticDir,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// initContent builds the Prismic client unless one was supplied.
func (a *App) initContent() error {
	if a.Content != nil {
		return nil
	}
	if a.Config.PrismicEndpoint == "" {
		return errors.New("spacetraveling: PrismicEndpoint is required")
	}
	client, err := prismic.New(prismic.Config{
		Endpoint:    a.Config.PrismicEndpoint,
		AccessToken: a.Config.PrismicAccessToken,
	})
	if err != nil {
		return fmt.Errorf("spacetraveling: init content provider: %w", err)
	}
	a.Content = client
	return nil
}

func (a *App) initStore() error {
	if a.store != nil {
		return nil
	}
	if a.Config.RedisURL != "" {
		store, err := listing.NewRedisStore(listing.RedisOptions{
			URL: a.Config.RedisURL,
			TTL: a.Config.ListingTTL,
		})
		if err != nil {
			return fmt.Errorf("spacetraveling: init listing store: %w", err)
		}
		a.store = store
		a.log.Info("listing store ready", "backend", "redis")
		return nil
	}
	a.store = listing.NewMemoryStore(a.Config.ListingTTL)
	a.log.Info("listing store ready", "backend", "memory", "ttl", a.Config.ListingTTL)
	return nil
}

// Setup prepares everything Start needs without listening. It is safe to
// call more than once.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return errors.New("spacetraveling: SessionSecret is required")
	}
	if err := a.initContent(); err != nil {
		return err
	}
	if err := a.initStore(); err != nil {
		return err
	}
	a.pager = listing.NewPager(a.store, a.Content)
	a.limiter = NewRateLimiter(a.Config.LoadMorePerMinute, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.log.Info("server starting", "addr", a.Config.Addr, "env", a.Config.Env)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded framework assets are served under /public/ ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/loadmore.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.POST("/posts/more/", a.handleLoadMore)
	e.GET("/post/:slug/", a.handlePost)
}

// Close releases the listing store and stops background work.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
