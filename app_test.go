package spacetraveling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/post"
	"github.com/eringen/spacetraveling/prismic"
)

const searchURL = "https://repo.cdn.prismic.io/api/v2/documents/search"

// fakeProvider pages over docs the way the CMS does: next_page is a full
// URL carrying page and pageSize.
type fakeProvider struct {
	mu       sync.Mutex
	docs     []prismic.Document
	fetchErr error
	getErr   error
	fetches  int
}

func postDoc(uid string, words int) prismic.Document {
	data := map[string]any{
		"title":    "Post " + uid,
		"subtitle": "Sobre " + uid,
		"author":   "Ana",
		"banner":   map[string]string{"url": "https://images.prismic.io/" + uid + ".png"},
		"content": []any{map[string]any{
			"heading": "Intro",
			"body":    []any{map[string]any{"type": "paragraph", "text": strings.TrimSpace(strings.Repeat("palavra ", words)), "spans": []any{}}},
		}},
	}
	raw, _ := json.Marshal(data)
	return prismic.Document{ID: "id-" + uid, UID: uid, Type: post.Type, Data: raw}
}

func newFakeProvider(uids ...string) *fakeProvider {
	f := &fakeProvider{}
	for _, u := range uids {
		f.docs = append(f.docs, postDoc(u, 10))
	}
	return f
}

func (f *fakeProvider) page(n, size int) *prismic.Response {
	total := len(f.docs)
	start := (n - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	resp := &prismic.Response{
		Page:             n,
		ResultsPerPage:   size,
		TotalResultsSize: total,
		TotalPages:       (total + size - 1) / size,
	}
	if start < total {
		resp.Results = append([]prismic.Document(nil), f.docs[start:end]...)
		resp.ResultsSize = len(resp.Results)
	}
	if end < total {
		resp.NextPage = fmt.Sprintf("%s?page=%d&pageSize=%d", searchURL, n+1, size)
	}
	return resp
}

func (f *fakeProvider) GetByType(ctx context.Context, typ string, opts prismic.QueryOptions) (*prismic.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	size := opts.PageSize
	if size <= 0 {
		size = 20
	}
	return f.page(1, size), nil
}

func (f *fakeProvider) GetByUID(ctx context.Context, typ, uid string) (*prismic.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, d := range f.docs {
		if d.UID == uid {
			d := d
			return &d, nil
		}
	}
	return nil, fmt.Errorf("uid %q: %w", uid, prismic.ErrNotFound)
}

func (f *fakeProvider) FetchPage(ctx context.Context, cursor string) (*prismic.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if cursor == "" {
		return nil, prismic.ErrNoCursor
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, err
	}
	n, _ := strconv.Atoi(u.Query().Get("page"))
	size, _ := strconv.Atoi(u.Query().Get("pageSize"))
	return f.page(n, size), nil
}

func (f *fakeProvider) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func text(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func uidList(posts []post.Summary) string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.UID
	}
	return strings.Join(ids, ",")
}

// stubViews renders pages as space separated key=value pairs.
func stubViews() ViewFuncs {
	return ViewFuncs{
		Home: func(p ListingPage) templ.Component {
			return text("home posts=%s more=%t view=%s csrf=%s static=%t title=%s",
				uidList(p.Posts), p.HasMore, p.ViewID, p.CSRFToken, p.Static, p.Meta.Title)
		},
		PostList: func(p ListingPage) templ.Component {
			return text("list posts=%s more=%t retry=%t page=%d err=%s",
				uidList(p.Posts), p.HasMore, p.Retry, p.Page, strings.ReplaceAll(p.Error, " ", "_"))
		},
		Post: func(p PostPage) templ.Component {
			return text("post uid=%s title=%s min=%d", p.Post.UID, strings.ReplaceAll(p.Post.Data.Title, " ", "_"), p.ReadingTime)
		},
		NotFound: func(p ErrorPage) templ.Component {
			return text("notfound")
		},
		ServerError: func(p ErrorPage) templ.Component {
			return text("servererror")
		},
	}
}

func field(body, key string) string {
	for _, f := range strings.Fields(body) {
		if v, ok := strings.CutPrefix(f, key+"="); ok {
			return v
		}
	}
	return ""
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() SiteConfig {
	return SiteConfig{
		Name:          "spacetraveling",
		URL:           "https://blog.example.com",
		SessionSecret: "test-session-secret-0123456789abcdef",
		PageSize:      1,
	}
}

func newTestApp(t *testing.T, cfg SiteConfig, p ContentProvider, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{
		WithContentProvider(p),
		WithStaticDir(t.TempDir()),
		WithLogger(quietLogger()),
	}, opts...)
	a := New(cfg, stubViews(), opts...)
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// browser keeps cookies between requests against one app.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) loadMore(view, csrf string) *httptest.ResponseRecorder {
	form := url.Values{"view": {view}}
	req := httptest.NewRequest(http.MethodPost, "/posts/more/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	return b.do(req)
}

// openHome loads the listing and returns its view id and CSRF token.
func (b *browser) openHome() (string, string) {
	b.t.Helper()
	rec := b.get("/")
	if rec.Code != http.StatusOK {
		b.t.Fatalf("GET / = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	return field(body, "view"), field(body, "csrf")
}
