// Package post shapes CMS documents into the two views the site renders:
// listing summaries and full post details.
package post

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

// Type is the CMS custom type holding blog posts.
const Type = "post"

// Summary is a post as shown in the listing.
type Summary struct {
	UID                  string      `json:"uid"`
	FirstPublicationDate *time.Time  `json:"first_publication_date"`
	Data                 SummaryData `json:"data"`
}

type SummaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// Detail is a full post. Section bodies stay structured until render time.
type Detail struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 DetailData `json:"data"`
}

type DetailData struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Author   string    `json:"author"`
	Banner   Banner    `json:"banner"`
	Content  []Section `json:"content"`
}

type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Section is a heading followed by its body blocks.
type Section struct {
	Heading string         `json:"heading"`
	Body    richtext.Field `json:"body"`
}

type rawSummary struct {
	Title    richtext.Field `json:"title"`
	Subtitle richtext.Field `json:"subtitle"`
	Author   richtext.Field `json:"author"`
}

type rawDetail struct {
	rawSummary
	Banner  Banner `json:"banner"`
	Content []struct {
		Heading richtext.Field `json:"heading"`
		Body    richtext.Field `json:"body"`
	} `json:"content"`
}

// SummaryFromDocument keeps uid, first publication date, title, subtitle
// and author. Everything else in the document is dropped.
func SummaryFromDocument(doc prismic.Document) (Summary, error) {
	var raw rawSummary
	if err := decodeData(doc, &raw); err != nil {
		return Summary{}, err
	}
	return Summary{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate.Ptr(),
		Data: SummaryData{
			Title:    richtext.AsText(raw.Title),
			Subtitle: richtext.AsText(raw.Subtitle),
			Author:   richtext.AsText(raw.Author),
		},
	}, nil
}

// SummariesFromDocuments maps docs in order.
func SummariesFromDocuments(docs []prismic.Document) ([]Summary, error) {
	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		s, err := SummaryFromDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DetailFromDocument flattens title, subtitle, author and headings to text
// and copies the body blocks as they are.
func DetailFromDocument(doc prismic.Document) (Detail, error) {
	var raw rawDetail
	if err := decodeData(doc, &raw); err != nil {
		return Detail{}, err
	}
	content := make([]Section, 0, len(raw.Content))
	for _, c := range raw.Content {
		content = append(content, Section{
			Heading: richtext.AsText(c.Heading),
			Body:    append(richtext.Field(nil), c.Body...),
		})
	}
	return Detail{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate.Ptr(),
		Data: DetailData{
			Title:    richtext.AsText(raw.Title),
			Subtitle: richtext.AsText(raw.Subtitle),
			Author:   richtext.AsText(raw.Author),
			Banner:   raw.Banner,
			Content:  content,
		},
	}, nil
}

func decodeData(doc prismic.Document, dst any) error {
	if len(doc.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc.Data, dst); err != nil {
		return fmt.Errorf("post %q: data: %w", doc.UID, err)
	}
	return nil
}
