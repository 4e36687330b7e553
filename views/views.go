// Package views holds the default templates of a spacetraveling site.
package views

import (
	"embed"
	"html/template"
	"time"

	"github.com/a-h/templ"
	"github.com/goodsign/monday"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

// DateLayout renders dates as "15 mar 2021".
const DateLayout = "02 Jan 2006"

var funcs = template.FuncMap{
	"date":     FormatDate,
	"postPath": spacetraveling.PostPath,
	"richtext": func(f richtext.Field) template.HTML {
		// AsHTML output is already sanitized
		return template.HTML(richtext.AsHTML(f))
	},
	"jsonld": func(s string) template.JS {
		return template.JS(s)
	},
}

var (
	homeTmpl     = page("home.html", "posts.html")
	postListTmpl = page("posts.html")
	postTmpl     = page("post.html")
	notFoundTmpl = page("notfound.html")
	errorTmpl    = page("error.html")
)

func page(files ...string) *template.Template {
	patterns := []string{"templates/layout.html"}
	for _, f := range files {
		patterns = append(patterns, "templates/"+f)
	}
	return template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, patterns...))
}

// FormatDate formats t in Brazilian Portuguese. A nil date renders empty.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return monday.Format(*t, DateLayout, monday.LocalePtBR)
}

// New returns the default ViewFuncs.
func New() spacetraveling.ViewFuncs {
	return spacetraveling.ViewFuncs{
		Home: func(p spacetraveling.ListingPage) templ.Component {
			return templ.FromGoHTML(homeTmpl.Lookup("home"), p)
		},
		PostList: func(p spacetraveling.ListingPage) templ.Component {
			return templ.FromGoHTML(postListTmpl.Lookup("fragment"), p)
		},
		Post: func(p spacetraveling.PostPage) templ.Component {
			return templ.FromGoHTML(postTmpl.Lookup("post"), p)
		},
		NotFound: func(p spacetraveling.ErrorPage) templ.Component {
			return templ.FromGoHTML(notFoundTmpl.Lookup("notfound"), p)
		},
		ServerError: func(p spacetraveling.ErrorPage) templ.Component {
			return templ.FromGoHTML(errorTmpl.Lookup("error"), p)
		},
	}
}
