// Package listing holds the pagination flow of the post listing: the state
// behind one rendered listing, the reducer that grows it page by page, and
// the stores that keep it alive while the page is open.
package listing

import (
	"github.com/eringen/spacetraveling/post"
	"github.com/eringen/spacetraveling/prismic"
)

// State is what one listing view has shown so far. NextPage is the CMS
// cursor for the following page; empty means there are no more pages.
// Page is display state only and never used to address a fetch.
type State struct {
	Posts    []post.Summary `json:"posts"`
	NextPage string         `json:"next_page"`
	Page     int            `json:"page"`
}

// New builds the state of a freshly rendered listing from its first page.
func New(first *prismic.Response) (State, error) {
	posts, err := post.SummariesFromDocuments(first.Results)
	if err != nil {
		return State{}, err
	}
	return State{Posts: posts, NextPage: first.NextPage, Page: 1}, nil
}

// CanFetch reports whether a load-more request should go out. Only a view
// that has moved past page 1 and lost its cursor is considered exhausted;
// a first page without a cursor still lets the attempt through.
func (s State) CanFetch() bool {
	return !(s.Page != 1 && s.NextPage == "")
}

// HasMore reports whether the "load more" control is shown.
func (s State) HasMore() bool {
	return s.NextPage != ""
}

// Reduce applies a fetched page to s. It replaces the cursor and the page
// number and appends the page's posts in order, without dedupe or sorting.
// It returns the new state and the posts it appended.
func Reduce(s State, resp *prismic.Response) (State, []post.Summary, error) {
	added, err := post.SummariesFromDocuments(resp.Results)
	if err != nil {
		return s, nil, err
	}
	posts := make([]post.Summary, 0, len(s.Posts)+len(added))
	posts = append(posts, s.Posts...)
	posts = append(posts, added...)
	return State{Posts: posts, NextPage: resp.NextPage, Page: resp.Page}, added, nil
}
