package models

import (
	"errors"

	"fieldcheck/internal/contract"
)

// Register declares every model type and capability with r.
func Register(r *contract.Registry) error {
	var errs []error

	capabilities := []struct {
		id        contract.TypeID
		contracts []contract.Contract
	}{
		{CapCreated, []contract.Contract{
			contract.Field("Created", false, Created.Created),
			contract.Field("CreatedUTC", false, Created.CreatedUTC),
		}},
		{CapVotable, []contract.Contract{
			contract.Field("Score", false, Votable.Score),
			contract.Field("Ups", false, Votable.Ups),
			contract.Field("Downs", false, Votable.Downs),
			contract.Field("Likes", true, Votable.Likes),
		}},
		{CapDistinguishable, []contract.Contract{
			contract.Field("Distinguished", true, Distinguishable.Distinguished),
		}},
	}
	for _, c := range capabilities {
		errs = append(errs, r.RegisterCapability(c.id, c.contracts...))
	}

	for _, decl := range declarations() {
		errs = append(errs, r.RegisterType(decl))
	}

	return errors.Join(errs...)
}

// NewRegistry returns a registry rooted at RedditObject with every model registered.
func NewRegistry(opts ...contract.Option) (*contract.Registry, error) {
	r := contract.NewRegistry(TypeRedditObject, opts...)
	if err := Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func declarations() []contract.TypeDecl {
	return []contract.TypeDecl{
		{
			ID: TypeRedditObject,
			Contracts: []contract.Contract{
				contract.Field("Kind", false, Object.Kind),
			},
		},
		{
			ID:     TypeThing,
			Parent: TypeRedditObject,
			Contracts: []contract.Contract{
				contract.Field("ID", false, Identifiable.ID),
				contract.Field("FullName", false, Identifiable.FullName),
			},
		},
		{
			ID:           TypeAccount,
			Parent:       TypeThing,
			Capabilities: []contract.TypeID{CapCreated},
			Contracts: []contract.Contract{
				contract.Field("Name", false, (*Account).Name),
				contract.Field("LinkKarma", false, (*Account).LinkKarma),
				contract.Field("CommentKarma", false, (*Account).CommentKarma),
				contract.Field("IsGold", false, (*Account).IsGold),
				contract.Field("IsMod", false, (*Account).IsMod),
				contract.Field("HasVerifiedEmail", true, (*Account).HasVerifiedEmail),
			},
		},
		{
			ID:           TypeSubmission,
			Parent:       TypeThing,
			Capabilities: []contract.TypeID{CapCreated, CapVotable, CapDistinguishable},
			Contracts: []contract.Contract{
				contract.Field("Title", false, (*Submission).Title),
				contract.Field("Author", false, (*Submission).Author),
				contract.Field("Subreddit", false, (*Submission).Subreddit),
				contract.Field("SubredditID", false, (*Submission).SubredditID),
				contract.Field("Domain", false, (*Submission).Domain),
				contract.Field("Permalink", false, (*Submission).Permalink),
				contract.FallibleField("URL", false, (*Submission).URL),
				contract.Field("SelfText", false, (*Submission).SelfText),
				contract.Field("IsSelf", false, (*Submission).IsSelf),
				contract.Field("NSFW", false, (*Submission).NSFW),
				contract.Field("NumComments", false, (*Submission).NumComments),
				contract.Field("LinkFlairText", true, (*Submission).LinkFlairText),
				contract.Field("Thumbnail", true, (*Submission).Thumbnail),
				contract.Field("OEmbedMedia", true, (*Submission).OEmbedMedia),
				contract.Field("EmbeddedMedia", true, (*Submission).EmbeddedMedia),
				contract.Field("Comments", true, (*Submission).Comments),
			},
		},
		{
			ID:           TypeComment,
			Parent:       TypeThing,
			Capabilities: []contract.TypeID{CapCreated, CapVotable, CapDistinguishable},
			Contracts: []contract.Contract{
				contract.Field("Body", false, (*Comment).Body),
				contract.Field("Author", false, (*Comment).Author),
				contract.Field("LinkID", false, (*Comment).LinkID),
				contract.Field("ParentID", false, (*Comment).ParentID),
				contract.Field("Subreddit", false, (*Comment).Subreddit),
				contract.FallibleField("Edited", false, (*Comment).Edited),
				contract.Field("Replies", true, (*Comment).Replies),
			},
		},
		{
			ID:     TypeMore,
			Parent: TypeThing,
			Contracts: []contract.Contract{
				contract.Field("Count", false, (*More).Count),
				contract.Field("ParentID", false, (*More).ParentID),
				contract.List("Children", false, (*More).Children),
			},
		},
		{
			ID:     TypeListing,
			Parent: TypeRedditObject,
			Contracts: []contract.Contract{
				contract.FallibleList("Children", false, (*Listing).Children),
				contract.Field("After", true, (*Listing).After),
				contract.Field("Before", true, (*Listing).Before),
				contract.Field("Modhash", true, (*Listing).Modhash),
			},
		},
		{
			ID: TypeOEmbed,
			Contracts: []contract.Contract{
				contract.Field("Type", false, (*OEmbed).Type),
				contract.Field("Version", false, (*OEmbed).Version),
				contract.Field("ProviderName", false, (*OEmbed).ProviderName),
				contract.Field("ProviderURL", false, (*OEmbed).ProviderURL),
				contract.Field("HTML", false, (*OEmbed).HTML),
				contract.Field("Width", true, (*OEmbed).Width),
				contract.Field("Height", true, (*OEmbed).Height),
				contract.Field("Title", true, (*OEmbed).Title),
				contract.Field("Description", true, (*OEmbed).Description),
				contract.Field("ThumbnailURL", true, (*OEmbed).ThumbnailURL),
				contract.Field("AuthorName", true, (*OEmbed).AuthorName),
				contract.Field("AuthorURL", true, (*OEmbed).AuthorURL),
			},
		},
		{
			ID: TypeEmbeddedMedia,
			Contracts: []contract.Contract{
				contract.Field("Content", false, (*EmbeddedMedia).Content),
				contract.Field("Width", false, (*EmbeddedMedia).Width),
				contract.Field("Height", false, (*EmbeddedMedia).Height),
				contract.Field("Scrolling", false, (*EmbeddedMedia).Scrolling),
			},
		},
	}
}
