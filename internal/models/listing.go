package models

import (
	"fmt"

	"fieldcheck/internal/contract"
)

// Listing is a page of things (kind Listing).
type Listing struct {
	RedditObject
}

func (l *Listing) ModelType() contract.TypeID { return TypeListing }

// Children decodes every child thing in the page.
// An empty page yields an empty, non-nil slice.
func (l *Listing) Children() ([]contract.Model, error) {
	v := l.data().Get("children")
	if !present(v) {
		return nil, nil
	}
	items := v.Array()
	children := make([]contract.Model, 0, len(items))
	for i, item := range items {
		child, err := FromResult(item)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// After is the fullname to pass to fetch the next page; nil on the last page.
func (l *Listing) After() *string  { return stringAt(l.data(), "after") }
func (l *Listing) Before() *string { return stringAt(l.data(), "before") }
func (l *Listing) Modhash() *string {
	return stringAt(l.data(), "modhash")
}

// Submissions returns the submission children, skipping other kinds.
func (l *Listing) Submissions() ([]*Submission, error) {
	children, err := l.Children()
	if err != nil {
		return nil, err
	}
	var out []*Submission
	for _, c := range children {
		if s, ok := c.(*Submission); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
