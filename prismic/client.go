// Package prismic is a small read-only client for the Prismic REST API v2.
// It covers what the site needs: type listings, lookups by uid and
// following the next_page cursor of a listing.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config configures a Client.
type Config struct {
	// Endpoint is the repository API root, e.g. https://repo.cdn.prismic.io/api/v2
	Endpoint    string
	AccessToken string
	HTTPClient  *http.Client
	Timeout     time.Duration // used when HTTPClient is nil (default 10s)
}

// Client talks to a single Prismic repository.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("prismic: endpoint is required")
	}
	u, err := url.Parse(strings.TrimSuffix(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an http(s) URL", cfg.Endpoint)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: u, token: cfg.AccessToken, http: hc}, nil
}

// Ref returns the current master ref. Every query needs one, and it changes
// on each publication, so it is looked up per query.
func (c *Client) Ref(ctx context.Context) (string, error) {
	u := *c.endpoint
	q := u.Query()
	if c.token != "" {
		q.Set("access_token", c.token)
	}
	u.RawQuery = q.Encode()

	var root apiRoot
	if err := c.getJSON(ctx, u.String(), &root); err != nil {
		return "", err
	}
	for _, r := range root.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", &DecodeError{URL: u.String(), Err: errors.New("no master ref")}
}

// GetByType lists documents of a custom type.
func (c *Client) GetByType(ctx context.Context, typ string, opts QueryOptions) (*Response, error) {
	predicates := []string{fmt.Sprintf(`[[at(document.type,%q)]]`, typ)}
	return c.search(ctx, predicates, opts)
}

// GetByUID returns the document of the given type and uid, or ErrNotFound.
func (c *Client) GetByUID(ctx context.Context, typ, uid string) (*Document, error) {
	predicates := []string{fmt.Sprintf(`[[at(my.%s.uid,%q)]]`, typ, uid)}
	resp, err := c.search(ctx, predicates, QueryOptions{PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, typ, uid)
	}
	doc := resp.Results[0]
	return &doc, nil
}

// FetchPage follows a next_page cursor. The cursor must be a complete URL on
// the repository host; an empty cursor fails with ErrNoCursor.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	if cursor == "" {
		return nil, ErrNoCursor
	}
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForeignCursor, err)
	}
	if !strings.EqualFold(u.Host, c.endpoint.Host) || !strings.HasPrefix(u.Path, c.endpoint.Path) {
		return nil, fmt.Errorf("%w: %s", ErrForeignCursor, u.Host)
	}
	if c.token != "" {
		q := u.Query()
		if q.Get("access_token") == "" {
			q.Set("access_token", c.token)
			u.RawQuery = q.Encode()
		}
	}
	var resp Response
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) search(ctx context.Context, predicates []string, opts QueryOptions) (*Response, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	u := *c.endpoint
	u.Path += "/documents/search"
	q := url.Values{}
	q.Set("ref", ref)
	for _, p := range predicates {
		q.Add("q", p)
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", "["+strings.Join(opts.Orderings, ",")+"]")
	}
	if c.token != "" {
		q.Set("access_token", c.token)
	}
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &RequestError{URL: Redact(rawURL), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return &RequestError{URL: Redact(rawURL), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		return &RequestError{URL: Redact(rawURL), StatusCode: res.StatusCode}
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return &DecodeError{URL: Redact(rawURL), Err: err}
	}
	return nil
}

// Redact strips the access token from rawURL so it can be logged.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
