package models

import (
	"github.com/tidwall/gjson"

	"fieldcheck/internal/contract"
)

// OEmbed is an oEmbed descriptor attached to a submission's media.
// It sits outside the RedditObject chain.
type OEmbed struct {
	raw gjson.Result
}

func (o *OEmbed) ModelType() contract.TypeID { return TypeOEmbed }

func (o *OEmbed) Type() *string         { return stringAt(o.raw, "type") }
func (o *OEmbed) Version() *string      { return stringAt(o.raw, "version") }
func (o *OEmbed) ProviderName() *string { return stringAt(o.raw, "provider_name") }
func (o *OEmbed) ProviderURL() *string  { return stringAt(o.raw, "provider_url") }
func (o *OEmbed) HTML() *string         { return stringAt(o.raw, "html") }

func (o *OEmbed) Width() *int64         { return intAt(o.raw, "width") }
func (o *OEmbed) Height() *int64        { return intAt(o.raw, "height") }
func (o *OEmbed) Title() *string        { return stringAt(o.raw, "title") }
func (o *OEmbed) Description() *string  { return stringAt(o.raw, "description") }
func (o *OEmbed) ThumbnailURL() *string { return stringAt(o.raw, "thumbnail_url") }
func (o *OEmbed) AuthorName() *string   { return stringAt(o.raw, "author_name") }
func (o *OEmbed) AuthorURL() *string    { return stringAt(o.raw, "author_url") }

// EmbeddedMedia is the iframe embed Reddit renders for a submission.
type EmbeddedMedia struct {
	raw gjson.Result
}

func (e *EmbeddedMedia) ModelType() contract.TypeID { return TypeEmbeddedMedia }

// Content is the escaped iframe HTML.
func (e *EmbeddedMedia) Content() *string { return stringAt(e.raw, "content") }
func (e *EmbeddedMedia) Width() *int64    { return intAt(e.raw, "width") }
func (e *EmbeddedMedia) Height() *int64   { return intAt(e.raw, "height") }
func (e *EmbeddedMedia) Scrolling() *bool { return boolAt(e.raw, "scrolling") }
