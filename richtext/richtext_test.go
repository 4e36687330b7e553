package richtext

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDecodesArrayStringAndNull(t *testing.T) {
	var doc struct {
		Rich  Field `json:"rich"`
		Plain Field `json:"plain"`
		Empty Field `json:"empty"`
		Null  Field `json:"null"`
	}
	err := json.Unmarshal([]byte(`{
		"rich": [{"type":"heading1","text":"Hello","spans":[]},{"type":"paragraph","text":"world","spans":[]}],
		"plain": "Just text",
		"empty": "",
		"null": null
	}`), &doc)
	require.NoError(t, err)

	require.Len(t, doc.Rich, 2)
	assert.Equal(t, "heading1", doc.Rich[0].Type)
	assert.Equal(t, Field{{Type: "paragraph", Text: "Just text"}}, doc.Plain)
	assert.Nil(t, doc.Empty)
	assert.Nil(t, doc.Null)

	var bad Field
	assert.Error(t, json.Unmarshal([]byte(`{"type":"paragraph"}`), &bad))
}

func TestAsText(t *testing.T) {
	f := Field{
		{Type: "heading2", Text: "Como utilizar Hooks"},
		{Type: "image", URL: "https://images.example.com/a.png"},
		{Type: "paragraph", Text: "Pensando em sincronização"},
	}
	assert.Equal(t, "Como utilizar Hooks Pensando em sincronização", AsText(f))
	assert.Equal(t, "", AsText(nil))
}

func TestAsHTMLBlocks(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"heading", Field{{Type: "heading2", Text: "Title"}}, "<h2>Title</h2>"},
		{"paragraph", Field{{Type: "paragraph", Text: "Body"}}, "<p>Body</p>"},
		{"preformatted", Field{{Type: "preformatted", Text: "x := 1"}}, "<pre>x := 1</pre>"},
		{"unordered list", Field{{Type: "list-item", Text: "a"}, {Type: "list-item", Text: "b"}}, "<ul><li>a</li><li>b</li></ul>"},
		{"ordered list", Field{{Type: "o-list-item", Text: "one"}}, "<ol><li>one</li></ol>"},
		{"list switch", Field{{Type: "list-item", Text: "a"}, {Type: "o-list-item", Text: "b"}, {Type: "paragraph", Text: "c"}}, "<ul><li>a</li></ul><ol><li>b</li></ol><p>c</p>"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsHTML(tt.field))
		})
	}
}

func TestAsHTMLSpans(t *testing.T) {
	f := Field{{
		Type: "paragraph",
		Text: "bold and italic",
		Spans: []Span{
			{Start: 0, End: 4, Type: "strong"},
			{Start: 9, End: 15, Type: "em"},
		},
	}}
	assert.Equal(t, "<p><strong>bold</strong> and <em>italic</em></p>", AsHTML(f))
}

func TestAsHTMLOverlappingSpansStayNested(t *testing.T) {
	f := Field{{
		Type: "paragraph",
		Text: "abcdef",
		Spans: []Span{
			{Start: 0, End: 4, Type: "strong"},
			{Start: 2, End: 6, Type: "em"},
		},
	}}
	assert.Equal(t, "<p><strong>ab<em>cd</em></strong><em>ef</em></p>", AsHTML(f))
}

func TestAsHTMLSpanOffsetsAreUTF16(t *testing.T) {
	f := Field{{
		Type:  "paragraph",
		Text:  "olá 😀 mundo",
		Spans: []Span{{Start: 4, End: 6, Type: "strong"}},
	}}
	assert.Equal(t, "<p>olá <strong>😀</strong> mundo</p>", AsHTML(f))
}

func TestAsHTMLSpanInsideSurrogatePairKeepsCharacter(t *testing.T) {
	f := Field{{
		Type:  "paragraph",
		Text:  "😀ab",
		Spans: []Span{{Start: 1, End: 3, Type: "strong"}},
	}}
	assert.Equal(t, "<p><strong>😀a</strong>b</p>", AsHTML(f))

	f[0].Spans = []Span{{Start: 0, End: 1, Type: "em"}}
	assert.Equal(t, "<p><em>😀</em>ab</p>", AsHTML(f))
}

func TestAsHTMLOutOfRangeSpansAreClamped(t *testing.T) {
	f := Field{{
		Type:  "paragraph",
		Text:  "short",
		Spans: []Span{{Start: -3, End: 99, Type: "em"}, {Start: 3, End: 2, Type: "strong"}},
	}}
	assert.Equal(t, "<p><em>short</em></p>", AsHTML(f))
}

func TestAsHTMLLinks(t *testing.T) {
	f := Field{{
		Type: "paragraph",
		Text: "web doc bad",
		Spans: []Span{
			{Start: 0, End: 3, Type: "hyperlink", Data: &SpanData{LinkType: "Web", URL: "https://example.com/a"}},
			{Start: 4, End: 7, Type: "hyperlink", Data: &SpanData{LinkType: "Document", Type: "post", UID: "next-post"}},
			{Start: 8, End: 11, Type: "hyperlink", Data: &SpanData{LinkType: "Web", URL: "javascript:alert(1)"}},
		},
	}}
	got := AsHTML(f)
	assert.Contains(t, got, `href="https://example.com/a"`)
	assert.Contains(t, got, `href="/post/next-post/"`)
	assert.NotContains(t, got, "javascript")
	assert.Contains(t, got, "bad</p>")
}

func TestAsHTMLEscapesText(t *testing.T) {
	got := AsHTML(Field{{Type: "paragraph", Text: "<script>alert(1)</script>\nnext"}})
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "<br")
}

func TestAsHTMLImageAndEmbed(t *testing.T) {
	f := Field{
		{Type: "image", URL: "https://images.prismic.io/repo/banner.png", Alt: "Banner", Dimensions: &Dimensions{Width: 800, Height: 400}},
		{Type: "image", URL: "javascript:evil()"},
		{Type: "embed", Oembed: &Embed{Type: "video", EmbedURL: "https://www.youtube.com/watch?v=abc", Title: "Talk"}},
	}
	got := AsHTML(f)
	assert.Contains(t, got, `src="https://images.prismic.io/repo/banner.png"`)
	assert.Contains(t, got, `alt="Banner"`)
	assert.NotContains(t, got, "evil")
	assert.Contains(t, got, ">Talk</a>")
}

func TestHTMLComponent(t *testing.T) {
	var buf bytes.Buffer
	err := HTML(Field{{Type: "paragraph", Text: "hi"}}).Render(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", buf.String())
}
