package models

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"fieldcheck/internal/contract"
)

// Comment is a comment on a submission (kind t1).
type Comment struct {
	Thing
}

func (c *Comment) ModelType() contract.TypeID { return TypeComment }

func (c *Comment) Body() *string      { return stringAt(c.data(), "body") }
func (c *Comment) Author() *string    { return stringAt(c.data(), "author") }
func (c *Comment) LinkID() *string    { return stringAt(c.data(), "link_id") }
func (c *Comment) ParentID() *string  { return stringAt(c.data(), "parent_id") }
func (c *Comment) Subreddit() *string { return stringAt(c.data(), "subreddit") }

// EditState describes whether and when a comment was edited.
type EditState struct {
	Edited bool
	At     *time.Time
}

// Edited decodes Reddit's "edited" field, which is false or an epoch timestamp.
func (c *Comment) Edited() (*EditState, error) {
	v := c.data().Get("edited")
	if !present(v) {
		return nil, nil
	}
	switch v.Type {
	case gjson.False:
		return &EditState{}, nil
	case gjson.True:
		return &EditState{Edited: true}, nil
	case gjson.Number:
		at := time.Unix(int64(v.Float()), 0).UTC()
		return &EditState{Edited: true, At: &at}, nil
	default:
		return nil, fmt.Errorf("unexpected edited value %s", v.Raw)
	}
}

// Replies returns the nested reply listing; Reddit sends "" when there are none.
func (c *Comment) Replies() *Listing {
	obj, ok := objectAt(c.data(), "replies")
	if !ok {
		return nil
	}
	return &Listing{RedditObject{raw: obj}}
}

func (c *Comment) Created() *time.Time    { return unixAt(c.data(), "created") }
func (c *Comment) CreatedUTC() *time.Time { return unixAt(c.data(), "created_utc") }

func (c *Comment) Score() *int64 { return intAt(c.data(), "score") }
func (c *Comment) Ups() *int64   { return intAt(c.data(), "ups") }
func (c *Comment) Downs() *int64 { return intAt(c.data(), "downs") }
func (c *Comment) Likes() *bool  { return boolAt(c.data(), "likes") }

func (c *Comment) Distinguished() *string { return stringAt(c.data(), "distinguished") }
