package reddit

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"

	"fieldcheck/internal/models"
)

// ErrNoMorePages is returned by Paginator.Next after the last page.
var ErrNoMorePages = errors.New("no more pages")

// Paginator walks a listing page by page, following the "after" cursor.
// It is safe for concurrent use, though pages are fetched one at a time.
type Paginator struct {
	client *Client
	path   string
	limit  int

	mu      sync.Mutex
	after   string
	started bool
	done    bool
}

func newPaginator(c *Client, path string) *Paginator {
	return &Paginator{
		client: c,
		path:   path,
		limit:  c.config.PageLimit,
	}
}

// HasMore reports whether Next can return another page.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.done
}

// Next fetches the next page. A failed fetch leaves the cursor where it was.
func (p *Paginator) Next(ctx context.Context) (*models.Listing, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return nil, ErrNoMorePages
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(p.limit))
	if p.started && p.after != "" {
		query.Set("after", p.after)
	}

	body, err := p.client.fetch(ctx, OpListing, p.path, query)
	if err != nil {
		return nil, err
	}

	listing, err := models.DecodeListing(body)
	if err != nil {
		return nil, p.client.decodeError(OpListing, err)
	}

	p.started = true
	if after := listing.After(); after != nil && *after != "" {
		p.after = *after
	} else {
		p.after = ""
		p.done = true
	}
	return listing, nil
}
