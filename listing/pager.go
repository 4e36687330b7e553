package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/eringen/spacetraveling/post"
	"github.com/eringen/spacetraveling/prismic"
)

// Fetcher retrieves the page a cursor points to.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

// Result is the outcome of one load-more.
type Result struct {
	// Added holds the posts appended by this call, in page order.
	Added []post.Summary
	State State
	// Fetched is false when the guard let no request go out.
	Fetched bool
}

// Pager runs the load-more flow for listing views kept in a Store.
type Pager struct {
	store   Store
	fetcher Fetcher
}

// NewPager returns a Pager keeping views in store and following cursors
// through fetcher.
func NewPager(store Store, fetcher Fetcher) *Pager {
	return &Pager{store: store, fetcher: fetcher}
}

// Start registers the listing rendered from first under a fresh view id.
func (p *Pager) Start(ctx context.Context, first *prismic.Response) (string, State, error) {
	st, err := New(first)
	if err != nil {
		return "", State{}, &prismic.DecodeError{Err: err}
	}
	id := uuid.NewString()
	if err := p.store.Save(ctx, id, st); err != nil {
		return "", State{}, fmt.Errorf("listing: save view: %w", err)
	}
	return id, st, nil
}

// State returns the current state of a view.
func (p *Pager) State(ctx context.Context, id string) (State, error) {
	return p.store.Load(ctx, id)
}

// LoadMore fetches the page after the view's cursor and appends it. Only one
// call per view runs at a time; a concurrent one gets ErrInFlight. A failed
// fetch leaves the stored state untouched.
func (p *Pager) LoadMore(ctx context.Context, id string) (Result, error) {
	st, err := p.store.Load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !st.CanFetch() {
		return Result{State: st}, nil
	}

	token, err := p.store.Acquire(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer p.store.Release(context.WithoutCancel(ctx), id, token)

	// Re-read under the token: a previous holder may have moved the cursor.
	st, err = p.store.Load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !st.CanFetch() {
		return Result{State: st}, nil
	}

	next, added, err := fetchAndReduce(ctx, p.fetcher, st)
	if err != nil {
		return Result{}, err
	}
	if err := p.store.Save(ctx, id, next); err != nil {
		return Result{}, fmt.Errorf("listing: save view: %w", err)
	}
	return Result{Added: added, State: next, Fetched: true}, nil
}

// Drain follows the cursor until the listing holds every post. It is used
// where nobody can press "load more", such as a static build.
func Drain(ctx context.Context, f Fetcher, st State) (State, error) {
	for st.HasMore() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		next, _, err := fetchAndReduce(ctx, f, st)
		if err != nil {
			return st, err
		}
		if next.NextPage == st.NextPage {
			return next, fmt.Errorf("listing: cursor did not advance past %s", prismic.Redact(st.NextPage))
		}
		st = next
	}
	return st, nil
}

func fetchAndReduce(ctx context.Context, f Fetcher, st State) (State, []post.Summary, error) {
	resp, err := f.FetchPage(ctx, st.NextPage)
	if err != nil {
		return st, nil, err
	}
	next, added, err := Reduce(st, resp)
	if err != nil {
		var de *prismic.DecodeError
		if errors.As(err, &de) {
			return st, nil, err
		}
		return st, nil, &prismic.DecodeError{URL: prismic.Redact(st.NextPage), Err: err}
	}
	return next, added, nil
}
