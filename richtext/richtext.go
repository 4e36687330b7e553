// Package richtext turns Prismic structured text into plain text or HTML.
package richtext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// Block is one structured text node: a heading, paragraph, list item, image or embed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
}

// Span marks up Text between Start and End, counted in UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries the link target of a hyperlink span or the name of a label span.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Embed struct {
	Type     string `json:"type,omitempty"`
	EmbedURL string `json:"embed_url"`
	Title    string `json:"title,omitempty"`
}

// Field is a structured text field. Plain "Key Text" fields decode into a
// single paragraph, so callers can treat both kinds alike.
type Field []Block

// UnmarshalJSON accepts an array of blocks, a string or null.
func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = nil
			return nil
		}
		*f = Field{{Type: "paragraph", Text: s}}
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(b, &blocks); err != nil {
		return fmt.Errorf("richtext: %w", err)
	}
	*f = blocks
	return nil
}

// AsText flattens the field into plain text, one space between blocks.
func AsText(f Field) string {
	parts := make([]string, 0, len(f))
	for _, b := range f {
		if b.Type == "image" || b.Type == "embed" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, " ")
}

// AsHTML renders the field as sanitized HTML, safe to insert verbatim.
func AsHTML(f Field) string {
	var buf strings.Builder
	list := ""
	for _, b := range f {
		want := listTag(b.Type)
		if want != list {
			if list != "" {
				buf.WriteString("</" + list + ">")
			}
			if want != "" {
				buf.WriteString("<" + want + ">")
			}
			list = want
		}
		writeBlock(&buf, b)
	}
	if list != "" {
		buf.WriteString("</" + list + ">")
	}
	return policy.Sanitize(buf.String())
}

// HTML returns a templ.Component that renders f with AsHTML.
func HTML(f Field) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, AsHTML(f))
		return err
	})
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 _-]+$`)).OnElements("p", "span")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	return p
}

func listTag(blockType string) string {
	switch blockType {
	case "list-item":
		return "ul"
	case "o-list-item":
		return "ol"
	}
	return ""
}

func writeBlock(buf *strings.Builder, b Block) {
	switch b.Type {
	case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
		tag := "h" + strings.TrimPrefix(b.Type, "heading")
		buf.WriteString("<" + tag + ">" + serializeSpans(b.Text, b.Spans) + "</" + tag + ">")
	case "paragraph":
		buf.WriteString("<p>" + serializeSpans(b.Text, b.Spans) + "</p>")
	case "preformatted":
		buf.WriteString("<pre>" + serializeSpans(b.Text, b.Spans) + "</pre>")
	case "list-item", "o-list-item":
		buf.WriteString("<li>" + serializeSpans(b.Text, b.Spans) + "</li>")
	case "image":
		src := safeURL(b.URL)
		if src == "" {
			return
		}
		buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
		if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
			fmt.Fprintf(buf, ` width="%d" height="%d"`, b.Dimensions.Width, b.Dimensions.Height)
		}
		buf.WriteString(`/></p>`)
	case "embed":
		if b.Oembed == nil {
			return
		}
		href := safeURL(b.Oembed.EmbedURL)
		if href == "" {
			return
		}
		title := b.Oembed.Title
		if title == "" {
			title = b.Oembed.EmbedURL
		}
		buf.WriteString(`<p class="block-embed"><a href="` + href + `">` + html.EscapeString(title) + `</a></p>`)
	default:
		if b.Text != "" {
			buf.WriteString("<p>" + serializeSpans(b.Text, b.Spans) + "</p>")
		}
	}
}

// serializeSpans wraps text in the tags of its spans. Overlapping spans are
// closed and reopened so the output stays well nested.
func serializeSpans(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	bounds := []int{0, n}
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		// offsets splitting a surrogate pair widen to take the whole character
		if splitsPair(units, s.Start) {
			s.Start--
		}
		if splitsPair(units, s.End) {
			s.End++
		}
		if s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
		bounds = append(bounds, s.Start, s.End)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})
	sort.Ints(bounds)
	bounds = dedupe(bounds)

	var out strings.Builder
	var stack []Span
	next := 0
	for bi, p := range bounds {
		if endsAt(stack, p) {
			var reopen []Span
			for len(stack) > 0 && endsAt(stack, p) {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				out.WriteString(closeTag(top))
				if top.End != p {
					reopen = append(reopen, top)
				}
			}
			for i := len(reopen) - 1; i >= 0; i-- {
				out.WriteString(openTag(reopen[i]))
				stack = append(stack, reopen[i])
			}
		}
		for next < len(valid) && valid[next].Start == p {
			out.WriteString(openTag(valid[next]))
			stack = append(stack, valid[next])
			next++
		}
		if bi+1 < len(bounds) {
			seg := string(utf16.Decode(units[p:bounds[bi+1]]))
			out.WriteString(strings.ReplaceAll(html.EscapeString(seg), "\n", "<br />"))
		}
	}
	return out.String()
}

// splitsPair reports whether offset p falls between the halves of a
// surrogate pair.
func splitsPair(units []uint16, p int) bool {
	if p <= 0 || p >= len(units) {
		return false
	}
	hi, lo := rune(units[p-1]), rune(units[p])
	return hi >= 0xD800 && hi < 0xDC00 && lo >= 0xDC00 && lo < 0xE000
}

func endsAt(stack []Span, p int) bool {
	for _, s := range stack {
		if s.End == p {
			return true
		}
	}
	return false
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func openTag(s Span) string {
	switch s.Type {
	case "strong":
		return "<strong>"
	case "em":
		return "<em>"
	case "label":
		if s.Data != nil && s.Data.Label != "" {
			return `<span class="` + html.EscapeString(s.Data.Label) + `">`
		}
		return "<span>"
	case "hyperlink":
		href := linkURL(s.Data)
		if href == "" {
			return ""
		}
		tag := `<a href="` + href + `"`
		if s.Data.Target == "_blank" {
			tag += ` target="_blank"`
		}
		return tag + ">"
	}
	return ""
}

func closeTag(s Span) string {
	switch s.Type {
	case "strong":
		return "</strong>"
	case "em":
		return "</em>"
	case "label":
		return "</span>"
	case "hyperlink":
		if linkURL(s.Data) == "" {
			return ""
		}
		return "</a>"
	}
	return ""
}

// linkURL resolves a hyperlink span. Document links point at the site's own
// pages; web and media links are used as given when their scheme is safe.
func linkURL(d *SpanData) string {
	if d == nil {
		return ""
	}
	if d.LinkType == "Document" {
		if d.UID == "" || d.Type == "" {
			return ""
		}
		return "/" + url.PathEscape(d.Type) + "/" + url.PathEscape(d.UID) + "/"
	}
	return safeURL(d.URL)
}

func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
