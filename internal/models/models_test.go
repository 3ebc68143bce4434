package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcheck/internal/contract"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "failed to read fixture %s", name)
	return data
}

func newValidator(t *testing.T) *contract.Validator {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return contract.NewValidator(r)
}

func TestRegister(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, TypeRedditObject, r.Root())
	assert.Len(t, r.Types(), 9)

	t.Run("DuplicateRegistrationFails", func(t *testing.T) {
		assert.Error(t, Register(r))
	})

	t.Run("CommentDiscoveryOrder", func(t *testing.T) {
		var got []string
		for _, c := range r.Discover(TypeComment) {
			got = append(got, c.String())
		}
		assert.Equal(t, []string{
			"Comment.Body()", "Comment.Author()", "Comment.LinkID()", "Comment.ParentID()",
			"Comment.Subreddit()", "Comment.Edited()", "Comment.Replies()",
			"Created.Created()", "Created.CreatedUTC()",
			"Votable.Score()", "Votable.Ups()", "Votable.Downs()", "Votable.Likes()",
			"Distinguishable.Distinguished()",
			"Thing.ID()", "Thing.FullName()",
			"RedditObject.Kind()",
		}, got)
	})

	t.Run("EmbedsAreOutsideTheChain", func(t *testing.T) {
		for _, c := range r.Discover(TypeOEmbed) {
			assert.Equal(t, TypeOEmbed, c.Owner)
		}
	})
}

func TestAccount(t *testing.T) {
	v := newValidator(t)

	t.Run("FixturePasses", func(t *testing.T) {
		account, err := DecodeAccount(loadFixture(t, "account.json"))
		require.NoError(t, err)

		report := v.Validate(account)
		assert.True(t, report.OK(), "unexpected failure: %v", report.Err())

		require.NotNil(t, account.Name())
		assert.Equal(t, "spladug", *account.Name())
		assert.Equal(t, "t2_1w72", *account.FullName())
		assert.Nil(t, account.HasVerifiedEmail())
	})

	t.Run("MissingNameIsViolation", func(t *testing.T) {
		account, err := DecodeAccount([]byte(`{"kind":"t2","data":{"id":"1","link_karma":1,"comment_karma":2,"is_gold":false,"is_mod":false,"created":1,"created_utc":1}}`))
		require.NoError(t, err)

		report := v.Validate(account)
		require.False(t, report.OK())
		assert.Equal(t, contract.OutcomeNullabilityViolation, report.Failure.Kind)
		assert.Equal(t, TypeAccount, report.Failure.Owner)
		assert.Equal(t, "Name", report.Failure.Operation)
	})

	t.Run("NullCreatedIsViolationOnCapability", func(t *testing.T) {
		account, err := DecodeAccount([]byte(`{"kind":"t2","data":{"id":"1","name":"a","link_karma":1,"comment_karma":2,"is_gold":false,"is_mod":false,"created":null,"created_utc":1}}`))
		require.NoError(t, err)

		report := v.Validate(account)
		require.False(t, report.OK())
		assert.Equal(t, CapCreated, report.Failure.Owner)
		assert.Equal(t, "Created", report.Failure.Operation)
	})
}

func TestSubmissionWithComments(t *testing.T) {
	v := newValidator(t)

	submission, err := DecodeCommentsPage(loadFixture(t, "comments_page.json"))
	require.NoError(t, err)

	t.Run("SubmissionPasses", func(t *testing.T) {
		report := v.Validate(submission)
		assert.True(t, report.OK(), "unexpected failure: %v", report.Err())
		assert.Nil(t, submission.OEmbedMedia())
		assert.Nil(t, submission.EmbeddedMedia(), "empty media_embed object is absent")
	})

	t.Run("CommentsListingPasses", func(t *testing.T) {
		comments := submission.Comments()
		require.NotNil(t, comments)
		assert.True(t, v.Validate(comments).OK())
	})

	t.Run("ChildrenPass", func(t *testing.T) {
		children, err := submission.Comments().Children()
		require.NoError(t, err)
		require.Len(t, children, 2)

		comment, ok := children[0].(*Comment)
		require.True(t, ok)
		assert.Nil(t, comment.Replies())
		report := v.Validate(comment)
		assert.True(t, report.OK(), "unexpected failure: %v", report.Err())

		more, ok := children[1].(*More)
		require.True(t, ok)
		assert.Equal(t, []string{"c0b6xy1"}, more.Children())
		assert.True(t, v.Validate(more).OK())
	})
}

func TestFrontPageMedia(t *testing.T) {
	v := newValidator(t)

	listing, err := DecodeListing(loadFixture(t, "frontpage.json"))
	require.NoError(t, err)
	assert.True(t, v.Validate(listing).OK())
	require.NotNil(t, listing.After())
	assert.Equal(t, "t3_2abc3", *listing.After())

	submissions, err := listing.Submissions()
	require.NoError(t, err)
	require.Len(t, submissions, 2)

	video := submissions[0]
	require.NotNil(t, video.OEmbedMedia())
	require.NotNil(t, video.EmbeddedMedia())
	assert.True(t, v.Validate(video.OEmbedMedia()).OK())
	assert.True(t, v.Validate(video.EmbeddedMedia()).OK())

	picture := submissions[1]
	assert.Nil(t, picture.OEmbedMedia())
	require.NotNil(t, picture.Likes())
	assert.True(t, *picture.Likes())
}

func TestExecutionErrors(t *testing.T) {
	v := newValidator(t)

	t.Run("UnparseableURL", func(t *testing.T) {
		m, err := Decode([]byte(`{"kind":"t3","data":{"title":"t","author":"a","subreddit":"s","subreddit_id":"t5_1","domain":"d","permalink":"/p","url":"://broken"}}`))
		require.NoError(t, err)

		report := v.Validate(m)
		require.False(t, report.OK())
		assert.Equal(t, contract.OutcomeExecutionError, report.Failure.Kind)
		assert.Equal(t, "URL", report.Failure.Operation)
		assert.Contains(t, report.Failure.Message, "parsing submission url")
	})

	t.Run("UnexpectedEditedValue", func(t *testing.T) {
		m, err := Decode([]byte(`{"kind":"t1","data":{"body":"b","author":"a","link_id":"t3_1","parent_id":"t3_1","subreddit":"s","edited":"yes"}}`))
		require.NoError(t, err)

		report := v.Validate(m)
		require.False(t, report.OK())
		assert.ErrorIs(t, report.Err(), contract.ErrExecution)
		assert.Equal(t, "Edited", report.Failure.Operation)
	})

	t.Run("UndecodableListingChild", func(t *testing.T) {
		m, err := Decode([]byte(`{"kind":"Listing","data":{"children":[{"kind":"t9","data":{}}]}}`))
		require.NoError(t, err)

		report := v.Validate(m)
		require.False(t, report.OK())
		assert.Equal(t, TypeListing, report.Failure.Owner)
		assert.Equal(t, "Children", report.Failure.Operation)
	})
}

func TestCommentEdited(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantEdited bool
		wantAt     bool
	}{
		{name: "false", raw: `false`},
		{name: "true", raw: `true`, wantEdited: true},
		{name: "timestamp", raw: `1400000000.0`, wantEdited: true, wantAt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(`{"kind":"t1","data":{"edited":` + tt.raw + `}}`))
			require.NoError(t, err)

			state, err := m.(*Comment).Edited()
			require.NoError(t, err)
			require.NotNil(t, state)
			assert.Equal(t, tt.wantEdited, state.Edited)
			assert.Equal(t, tt.wantAt, state.At != nil)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{`},
		{name: "not an object", raw: `[1,2]`},
		{name: "unknown kind", raw: `{"kind":"t5","data":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.Error(t, err)
		})
	}

	t.Run("WrongKindForAccount", func(t *testing.T) {
		_, err := DecodeAccount([]byte(`{"kind":"t1","data":{}}`))
		assert.Error(t, err)
	})

	t.Run("CommentsPageNeedsTwoListings", func(t *testing.T) {
		_, err := DecodeCommentsPage([]byte(`[{"kind":"Listing","data":{"children":[]}}]`))
		assert.Error(t, err)
	})
}
