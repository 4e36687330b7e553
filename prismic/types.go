package prismic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the timestamp format used by the Prismic REST API.
const TimeLayout = "2006-01-02T15:04:05-0700"

// Time is a publication timestamp. The zero value stands for a JSON null.
type Time struct {
	time.Time
}

// UnmarshalJSON accepts null, the API layout and RFC 3339.
func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes null for the zero value.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(TimeLayout))
}

// Ptr returns nil for the zero value, a copy of the timestamp otherwise.
func (t Time) Ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// Document is a single CMS document. Data is kept raw; each content type
// decodes it into its own shape.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Lang                 string          `json:"lang,omitempty"`
	Tags                 []string        `json:"tags,omitempty"`
	FirstPublicationDate Time            `json:"first_publication_date"`
	LastPublicationDate  Time            `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is the pagination envelope returned by every search query.
// NextPage is empty when there are no further pages.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"`
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`
}

// QueryOptions narrows a type listing.
type QueryOptions struct {
	PageSize  int
	Page      int
	Orderings []string
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type apiRoot struct {
	Refs []apiRef `json:"refs"`
}
