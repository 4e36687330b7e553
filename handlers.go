package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/post"
	"github.com/eringen/spacetraveling/prismic"
)

// maxPageSize is the largest page the CMS serves. Used wherever the whole
// collection is needed rather than one listing page.
const maxPageSize = 100

const (
	msgExpired = "Esta listagem expirou. Recarregue a página para continuar."
	msgFailed  = "Não foi possível carregar mais posts. Tente novamente."
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	first, err := a.Content.GetByType(ctx, post.Type, prismic.QueryOptions{PageSize: a.Config.PageSize})
	if err != nil {
		return fmt.Errorf("spacetraveling: list posts: %w", err)
	}
	id, st, err := a.pager.Start(ctx, first)
	if err != nil {
		return fmt.Errorf("spacetraveling: start listing: %w", err)
	}
	if err := a.addSessionView(c, id); err != nil {
		return fmt.Errorf("spacetraveling: save session: %w", err)
	}
	page := a.listingPage(st)
	page.ViewID = id
	page.CSRFToken = CsrfToken(c)
	return Render(c, a.Views.Home(page))
}

func (a *App) handleLoadMore(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		c.Response().Header().Set("Retry-After", "60")
		return c.NoContent(http.StatusTooManyRequests)
	}

	id := c.FormValue("view")
	if !ownsView(c, id) {
		return a.renderLoadMoreError(c, http.StatusGone, id, msgExpired, false)
	}

	res, err := a.pager.LoadMore(c.Request().Context(), id)
	var reqErr *prismic.RequestError
	var decErr *prismic.DecodeError
	switch {
	case err == nil:
	case errors.Is(err, listing.ErrInFlight):
		return c.NoContent(http.StatusConflict)
	case errors.Is(err, listing.ErrViewNotFound):
		return a.renderLoadMoreError(c, http.StatusGone, id, msgExpired, false)
	case errors.Is(err, prismic.ErrNoCursor):
		// a first page without a cursor: nothing to add
		res = listing.Result{State: listing.State{Page: 1}}
	case errors.As(err, &reqErr), errors.As(err, &decErr):
		a.log.Warn("load more failed", "view", id, "err", err)
		return a.renderLoadMoreError(c, http.StatusBadGateway, id, msgFailed, true)
	case errors.Is(err, prismic.ErrForeignCursor):
		a.log.Error("load more rejected cursor", "view", id, "err", err)
		return a.renderLoadMoreError(c, http.StatusBadGateway, id, msgFailed, false)
	default:
		return fmt.Errorf("spacetraveling: load more: %w", err)
	}

	return Render(c, a.Views.PostList(ListingPage{
		Site:      a.Config,
		Posts:     res.Added,
		HasMore:   res.State.HasMore(),
		Page:      res.State.Page,
		ViewID:    id,
		CSRFToken: CsrfToken(c),
	}))
}

func (a *App) renderLoadMoreError(c echo.Context, code int, id, msg string, retry bool) error {
	return RenderStatus(c, code, a.Views.PostList(ListingPage{
		Site:      a.Config,
		HasMore:   retry,
		ViewID:    id,
		CSRFToken: CsrfToken(c),
		Error:     msg,
		Retry:     retry,
	}))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	doc, err := a.Content.GetByUID(c.Request().Context(), post.Type, slug)
	if err != nil {
		if errors.Is(err, prismic.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.errorPage("Página não encontrada")))
		}
		return fmt.Errorf("spacetraveling: get post %q: %w", slug, err)
	}
	detail, err := post.DetailFromDocument(*doc)
	if err != nil {
		return fmt.Errorf("spacetraveling: map post %q: %w", slug, err)
	}
	return Render(c, a.Views.Post(a.postPage(detail)))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.allPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.allPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	custom := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(custom); err == nil {
		return c.File(custom)
	}
	return c.String(http.StatusOK, robotsTxt(a.Config))
}

func robotsTxt(cfg SiteConfig) string {
	return "User-agent: *\nAllow: /\nSitemap: " + strings.TrimRight(BuildURL(cfg.URL), "/") + "/sitemap.xml\n"
}

// allPosts pages through the whole post collection.
func (a *App) allPosts(ctx context.Context) ([]post.Summary, error) {
	first, err := a.Content.GetByType(ctx, post.Type, prismic.QueryOptions{PageSize: maxPageSize})
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: list posts: %w", err)
	}
	st, err := listing.New(first)
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: list posts: %w", err)
	}
	st, err = listing.Drain(ctx, a.Content, st)
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: list posts: %w", err)
	}
	return st.Posts, nil
}

func (a *App) listingPage(st listing.State) ListingPage {
	return ListingPage{
		Site: a.Config,
		Meta: PageMeta{
			Title:       "Home",
			Description: a.Config.Description,
			URL:         BuildURL(a.Config.URL),
			OGType:      "website",
			JSONLD:      WebsiteJsonLD(a.Config),
		},
		Posts:   st.Posts,
		HasMore: st.HasMore(),
		Page:    st.Page,
	}
}

func (a *App) postPage(d post.Detail) PostPage {
	return PostPage{
		Site: a.Config,
		Meta: PageMeta{
			Title:       d.Data.Title,
			Description: d.Data.Subtitle,
			URL:         PostURL(a.Config.URL, d.UID),
			OGType:      "article",
			JSONLD:      BlogPostingJsonLD(d, a.Config),
		},
		Post:        d,
		ReadingTime: d.ReadingTime(),
	}
}

func (a *App) errorPage(title string) ErrorPage {
	return ErrorPage{
		Site: a.Config,
		Meta: PageMeta{Title: title, URL: BuildURL(a.Config.URL), OGType: "website"},
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.errorPage("Página não encontrada")))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "err", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.errorPage("Erro")))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
