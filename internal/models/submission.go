package models

import (
	"fmt"
	"net/url"
	"time"

	"fieldcheck/internal/contract"
)

// Submission is a link or self post (kind t3).
type Submission struct {
	Thing

	// comments is set when the submission was fetched with its comment tree.
	comments *Listing
}

func (s *Submission) ModelType() contract.TypeID { return TypeSubmission }

func (s *Submission) Title() *string     { return stringAt(s.data(), "title") }
func (s *Submission) Author() *string    { return stringAt(s.data(), "author") }
func (s *Submission) Subreddit() *string { return stringAt(s.data(), "subreddit") }

func (s *Submission) SubredditID() *string { return stringAt(s.data(), "subreddit_id") }
func (s *Submission) Domain() *string      { return stringAt(s.data(), "domain") }
func (s *Submission) Permalink() *string   { return stringAt(s.data(), "permalink") }

// URL parses the submission's target URL.
func (s *Submission) URL() (*url.URL, error) {
	raw := stringAt(s.data(), "url")
	if raw == nil {
		return nil, nil
	}
	u, err := url.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("parsing submission url: %w", err)
	}
	return u, nil
}

// SelfText is empty, not absent, for link posts.
func (s *Submission) SelfText() *string { return stringAt(s.data(), "selftext") }

func (s *Submission) IsSelf() *bool       { return boolAt(s.data(), "is_self") }
func (s *Submission) NSFW() *bool         { return boolAt(s.data(), "over_18") }
func (s *Submission) NumComments() *int64 { return intAt(s.data(), "num_comments") }

func (s *Submission) LinkFlairText() *string { return stringAt(s.data(), "link_flair_text") }
func (s *Submission) Thumbnail() *string     { return stringAt(s.data(), "thumbnail") }

// OEmbedMedia returns the oEmbed descriptor of embedded media, if any.
func (s *Submission) OEmbedMedia() *OEmbed {
	obj, ok := objectAt(s.data(), "media.oembed")
	if !ok {
		return nil
	}
	return &OEmbed{raw: obj}
}

// EmbeddedMedia returns the iframe embed of the submission's media, if any.
func (s *Submission) EmbeddedMedia() *EmbeddedMedia {
	obj, ok := objectAt(s.data(), "media_embed")
	if !ok {
		return nil
	}
	return &EmbeddedMedia{raw: obj}
}

// Comments returns the comment listing; nil unless fetched with comments.
func (s *Submission) Comments() *Listing {
	return s.comments
}

func (s *Submission) Created() *time.Time    { return unixAt(s.data(), "created") }
func (s *Submission) CreatedUTC() *time.Time { return unixAt(s.data(), "created_utc") }

func (s *Submission) Score() *int64 { return intAt(s.data(), "score") }
func (s *Submission) Ups() *int64   { return intAt(s.data(), "ups") }
func (s *Submission) Downs() *int64 { return intAt(s.data(), "downs") }
func (s *Submission) Likes() *bool  { return boolAt(s.data(), "likes") }

func (s *Submission) Distinguished() *string { return stringAt(s.data(), "distinguished") }
