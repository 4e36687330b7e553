package spacetraveling

import "github.com/eringen/spacetraveling/post"

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
}

// ListingPage is what the listing templates render. For a load-more
// fragment Posts holds only the appended summaries.
type ListingPage struct {
	Site      SiteConfig
	Meta      PageMeta
	Posts     []post.Summary
	HasMore   bool
	Page      int
	ViewID    string
	CSRFToken string

	// Static is set for exported pages, which have no server behind the
	// load-more control.
	Static bool

	// Error is a user-facing message for a failed load-more. Retry reports
	// whether pressing the control again can help.
	Error string
	Retry bool
}

// PostPage is what the post template renders.
type PostPage struct {
	Site        SiteConfig
	Meta        PageMeta
	Post        post.Detail
	ReadingTime int
}

// ErrorPage is what the 404 and 500 templates render.
type ErrorPage struct {
	Site SiteConfig
	Meta PageMeta
}
