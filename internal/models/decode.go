package models

import (
	"fmt"

	"github.com/tidwall/gjson"

	"fieldcheck/internal/contract"
)

// Decode parses one Reddit thing envelope and returns the model for its kind.
func Decode(raw []byte) (contract.Model, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("decoding thing: invalid JSON")
	}
	return FromResult(gjson.ParseBytes(raw))
}

// FromResult returns the model for an already-parsed thing envelope.
func FromResult(r gjson.Result) (contract.Model, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("decoding thing: expected object, got %s", r.Type)
	}
	obj := RedditObject{raw: r}
	kind := r.Get("kind").String()

	switch kind {
	case KindComment:
		return &Comment{Thing{obj}}, nil
	case KindAccount:
		return &Account{Thing{obj}}, nil
	case KindSubmission:
		return &Submission{Thing: Thing{obj}}, nil
	case KindMore:
		return &More{Thing{obj}}, nil
	case KindListing:
		return &Listing{obj}, nil
	default:
		return nil, fmt.Errorf("decoding thing: unknown kind %q", kind)
	}
}

// DecodeAccount parses a /user/{name}/about response.
func DecodeAccount(raw []byte) (*Account, error) {
	return decodeAs[*Account](raw, KindAccount)
}

// DecodeListing parses a listing response such as the front page.
func DecodeListing(raw []byte) (*Listing, error) {
	return decodeAs[*Listing](raw, KindListing)
}

// DecodeCommentsPage parses a /comments/{id} response: a two-element array of
// the submission's listing followed by its comment listing.
func DecodeCommentsPage(raw []byte) (*Submission, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("decoding comments page: invalid JSON")
	}
	pages := gjson.ParseBytes(raw).Array()
	if len(pages) != 2 {
		return nil, fmt.Errorf("decoding comments page: expected 2 listings, got %d", len(pages))
	}

	first, err := FromResult(pages[0].Get("data.children.0"))
	if err != nil {
		return nil, fmt.Errorf("decoding comments page submission: %w", err)
	}
	submission, ok := first.(*Submission)
	if !ok {
		return nil, fmt.Errorf("decoding comments page: expected submission, got %s", first.ModelType())
	}

	second, err := FromResult(pages[1])
	if err != nil {
		return nil, fmt.Errorf("decoding comments page comments: %w", err)
	}
	comments, ok := second.(*Listing)
	if !ok {
		return nil, fmt.Errorf("decoding comments page: expected listing, got %s", second.ModelType())
	}
	submission.comments = comments
	return submission, nil
}

func decodeAs[T contract.Model](raw []byte, kind string) (T, error) {
	var zero T
	m, err := Decode(raw)
	if err != nil {
		return zero, err
	}
	typed, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("decoding thing: expected kind %s, got %s", kind, m.ModelType())
	}
	return typed, nil
}
