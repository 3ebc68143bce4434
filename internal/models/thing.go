package models

import (
	"github.com/tidwall/gjson"

	"fieldcheck/internal/contract"
)

// RedditObject is the root of the model chain: a {"kind": ..., "data": {...}} envelope.
type RedditObject struct {
	raw gjson.Result
}

func (o *RedditObject) ModelType() contract.TypeID { return TypeRedditObject }

// Kind returns the envelope's kind discriminator (t1, t3, Listing, ...).
func (o *RedditObject) Kind() *string {
	return stringAt(o.raw, "kind")
}

// Raw returns the underlying JSON.
func (o *RedditObject) Raw() string {
	return o.raw.Raw
}

func (o *RedditObject) data() gjson.Result {
	return o.raw.Get("data")
}

// Thing is any Reddit object with an ID.
type Thing struct {
	RedditObject
}

func (t *Thing) ModelType() contract.TypeID { return TypeThing }

// ID returns the base-36 ID without the kind prefix.
func (t *Thing) ID() *string {
	return stringAt(t.data(), "id")
}

// FullName returns "<kind>_<id>", e.g. "t3_92dd8".
func (t *Thing) FullName() *string {
	kind, id := t.Kind(), t.ID()
	if kind == nil || id == nil {
		return nil
	}
	name := *kind + "_" + *id
	return &name
}

// More is a placeholder for comments not included in a listing.
type More struct {
	Thing
}

func (m *More) ModelType() contract.TypeID { return TypeMore }

// Count returns the number of comments hidden behind this placeholder.
func (m *More) Count() *int64 {
	return intAt(m.data(), "count")
}

func (m *More) ParentID() *string {
	return stringAt(m.data(), "parent_id")
}

// Children returns the IDs of the hidden comments.
func (m *More) Children() []string {
	v := m.data().Get("children")
	if !present(v) {
		return nil
	}
	ids := make([]string, 0, len(v.Array()))
	for _, id := range v.Array() {
		ids = append(ids, id.String())
	}
	return ids
}
