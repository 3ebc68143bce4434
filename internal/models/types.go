// Package models decodes Reddit API JSON into model types and declares the
// field contracts each type exposes to the validator.
package models

import (
	"time"

	"github.com/tidwall/gjson"

	"fieldcheck/internal/contract"
)

// Type and capability IDs registered by Register.
const (
	TypeRedditObject  contract.TypeID = "RedditObject"
	TypeThing         contract.TypeID = "Thing"
	TypeAccount       contract.TypeID = "Account"
	TypeSubmission    contract.TypeID = "Submission"
	TypeComment       contract.TypeID = "Comment"
	TypeMore          contract.TypeID = "More"
	TypeListing       contract.TypeID = "Listing"
	TypeOEmbed        contract.TypeID = "OEmbed"
	TypeEmbeddedMedia contract.TypeID = "EmbeddedMedia"

	CapCreated         contract.TypeID = "Created"
	CapVotable         contract.TypeID = "Votable"
	CapDistinguishable contract.TypeID = "Distinguishable"
)

// Reddit "kind" discriminators.
const (
	KindComment    = "t1"
	KindAccount    = "t2"
	KindSubmission = "t3"
	KindMore       = "more"
	KindListing    = "Listing"
)

// Object is satisfied by every RedditObject envelope, including types that
// embed it. Contracts declared on non-leaf types read through interfaces so
// they accept any descendant.
type Object interface {
	contract.Model
	Kind() *string
}

// Identifiable is satisfied by Thing and every type embedding it.
type Identifiable interface {
	Object
	ID() *string
	FullName() *string
}

// Created is implemented by things carrying creation timestamps.
type Created interface {
	contract.Model
	Created() *time.Time
	CreatedUTC() *time.Time
}

// Votable is implemented by things that can be voted on.
type Votable interface {
	contract.Model
	Score() *int64
	Ups() *int64
	Downs() *int64
	// Likes is nil when the authenticated user has not voted.
	Likes() *bool
}

// Distinguishable is implemented by things a moderator or admin can distinguish.
type Distinguishable interface {
	contract.Model
	Distinguished() *string
}

// present reports whether r holds a non-null value.
func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func stringAt(r gjson.Result, path string) *string {
	v := r.Get(path)
	if !present(v) {
		return nil
	}
	s := v.String()
	return &s
}

func intAt(r gjson.Result, path string) *int64 {
	v := r.Get(path)
	if !present(v) {
		return nil
	}
	n := v.Int()
	return &n
}

func boolAt(r gjson.Result, path string) *bool {
	v := r.Get(path)
	if !present(v) {
		return nil
	}
	b := v.Bool()
	return &b
}

// unixAt reads a Reddit epoch-seconds value (sent as a float).
func unixAt(r gjson.Result, path string) *time.Time {
	v := r.Get(path)
	if !present(v) {
		return nil
	}
	sec := v.Float()
	t := time.Unix(int64(sec), 0).UTC()
	return &t
}

// objectAt returns the object at path, treating {} as absent; Reddit sends
// an empty object for unset media fields.
func objectAt(r gjson.Result, path string) (gjson.Result, bool) {
	v := r.Get(path)
	if !present(v) || !v.IsObject() {
		return gjson.Result{}, false
	}
	empty := true
	v.ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return v, !empty
}
