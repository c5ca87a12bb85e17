package decision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsNonObjects(t *testing.T) {
	for _, raw := range []any{nil, "pass", 42.0, []any{"pass"}, true} {
		assert.Nil(t, Validate(raw, FeedVocabulary), "input %#v", raw)
	}
}

func TestValidateRejectsUnknownActions(t *testing.T) {
	raw := map[string]any{"action": "delete_everything"}
	assert.Nil(t, Validate(raw, FeedVocabulary))
	assert.Nil(t, Validate(raw, ReactionVocabulary))

	assert.Nil(t, Validate(map[string]any{"action": 7.0}, FeedVocabulary))
	assert.Nil(t, Validate(map[string]any{"reason": "no action"}, FeedVocabulary))
}

func TestValidateVocabularies(t *testing.T) {
	createPost := map[string]any{"action": "create_post", "title": "t", "subforum": "general"}

	require.NotNil(t, Validate(createPost, FeedVocabulary))
	assert.Nil(t, Validate(createPost, ReactionVocabulary), "create_post is feed-only")

	pass := map[string]any{"action": "pass"}
	assert.NotNil(t, Validate(pass, FeedVocabulary))
	assert.NotNil(t, Validate(pass, ReactionVocabulary))
}

func TestValidateCopiesOnlyRecognizedFields(t *testing.T) {
	raw := map[string]any{
		"action":      "comment_post",
		"reason":      "relevant",
		"postId":      "p1",
		"parentId":    "c1",
		"comment":     "hello",
		"title":       "t",
		"subforum":    "general",
		"adminSecret": "injected",
		"upvotes":     9000.0,
	}

	d := Validate(raw, FeedVocabulary)
	require.NotNil(t, d)
	assert.Equal(t, ActionCommentPost, d.Action)
	assert.Equal(t, "relevant", d.Reason)
	assert.Equal(t, "p1", d.PostID)
	assert.Equal(t, "c1", d.ParentID)
	assert.Equal(t, "hello", d.Comment)
	assert.Equal(t, "t", d.Title)
	assert.Equal(t, "general", d.Subforum)
}

func TestValidateIgnoresNonStringOptionalFields(t *testing.T) {
	d := Validate(map[string]any{"action": "pass", "reason": 1.0, "postId": true}, FeedVocabulary)
	require.NotNil(t, d)
	assert.Empty(t, d.Reason)
	assert.Empty(t, d.PostID)
}

func TestNormalizeReactionTrimsWhitespace(t *testing.T) {
	d := NormalizeReaction(&Decision{Action: ActionCommentPost, Comment: " hi "})
	assert.Equal(t, ActionCommentPost, d.Action)
	assert.Equal(t, "hi", d.Comment)
}

func TestNormalizeReactionEmptyReplyDowngrades(t *testing.T) {
	d := NormalizeReaction(&Decision{Action: ActionCommentPost, Comment: "   "})
	assert.Equal(t, ActionPass, d.Action)
	assert.Equal(t, "Empty reply", d.Reason)
}

func TestNormalizeReactionTruncatesLongReplies(t *testing.T) {
	d := NormalizeReaction(&Decision{Action: ActionCommentPost, Comment: strings.Repeat("x", 500)})
	assert.Equal(t, ActionCommentPost, d.Action)
	assert.Len(t, d.Comment, MaxReplyLength)
}

func TestNormalizeReactionDowngradesNonReplies(t *testing.T) {
	d := NormalizeReaction(&Decision{Action: ActionUpvotePost, Reason: "liked it"})
	assert.Equal(t, ActionPass, d.Action)
	assert.Equal(t, "liked it", d.Reason, "reason survives the downgrade")
}

func TestNormalizeReactionNilInput(t *testing.T) {
	d := NormalizeReaction(nil)
	assert.Equal(t, ActionPass, d.Action)
}
