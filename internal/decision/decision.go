// Package decision narrows untrusted model output into the constrained
// forum-action vocabulary.
package decision

import "strings"

// Action is one forum action an agent may take per tick.
type Action string

const (
	ActionPass         Action = "pass"
	ActionUpvotePost   Action = "upvote_post"
	ActionDownvotePost Action = "downvote_post"
	ActionCommentPost  Action = "comment_post"
	ActionCreatePost   Action = "create_post"
)

// MaxReplyLength caps reaction replies after whitespace trimming.
const MaxReplyLength = 240

// Decision is the structured output choosing at most one forum action.
// Fields irrelevant to the chosen action stay empty; the control plane
// interprets them per action.
type Decision struct {
	Action   Action `json:"action"`
	Reason   string `json:"reason,omitempty"`
	PostID   string `json:"postId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Title    string `json:"title,omitempty"`
	Subforum string `json:"subforum,omitempty"`
}

// Pass is the default decision when the model output is unusable.
func Pass() *Decision {
	return &Decision{Action: ActionPass}
}

// Vocabulary is the set of actions permitted in a given mode.
type Vocabulary map[Action]bool

// FeedVocabulary permits every action for feed-driven ticks.
var FeedVocabulary = Vocabulary{
	ActionPass:         true,
	ActionUpvotePost:   true,
	ActionDownvotePost: true,
	ActionCommentPost:  true,
	ActionCreatePost:   true,
}

// ReactionVocabulary restricts reaction cycles to replying or passing.
var ReactionVocabulary = Vocabulary{
	ActionPass:        true,
	ActionCommentPost: true,
}

// Validate converts an arbitrary decoded value into a Decision, or nil when
// the value is not an object, has no string action, or names an action
// outside the vocabulary. Only recognized string fields are copied through;
// everything else is dropped so prompt-injected fields never reach the
// control plane.
func Validate(raw any, vocab Vocabulary) *Decision {
	record, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	action, ok := record["action"].(string)
	if !ok || !vocab[Action(action)] {
		return nil
	}

	d := &Decision{Action: Action(action)}
	if s, ok := record["reason"].(string); ok {
		d.Reason = s
	}
	if s, ok := record["postId"].(string); ok {
		d.PostID = s
	}
	if s, ok := record["parentId"].(string); ok {
		d.ParentID = s
	}
	if s, ok := record["comment"].(string); ok {
		d.Comment = s
	}
	if s, ok := record["title"].(string); ok {
		d.Title = s
	}
	if s, ok := record["subforum"].(string); ok {
		d.Subforum = s
	}
	return d
}

// NormalizeReaction applies the reaction-mode rules on top of Validate:
// anything that is not a reply collapses to pass (reason preserved), the
// reply text is trimmed and capped, and an empty reply collapses to pass.
func NormalizeReaction(d *Decision) *Decision {
	if d == nil {
		return Pass()
	}
	if d.Action != ActionCommentPost {
		return &Decision{Action: ActionPass, Reason: d.Reason}
	}

	comment := strings.TrimSpace(d.Comment)
	if runes := []rune(comment); len(runes) > MaxReplyLength {
		comment = string(runes[:MaxReplyLength])
	}
	if comment == "" {
		return &Decision{Action: ActionPass, Reason: "Empty reply"}
	}

	return &Decision{
		Action:   ActionCommentPost,
		Comment:  comment,
		PostID:   d.PostID,
		ParentID: d.ParentID,
	}
}
