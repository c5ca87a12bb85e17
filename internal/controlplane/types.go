package controlplane

import "fmt"

// AgentSummary is the agent half of a binding.
type AgentSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UserRef is the user half of a binding.
type UserRef struct {
	ID             string `json:"id"`
	SecondMeUserID string `json:"secondmeUserId"`
}

// DueBinding identifies one agent-user pairing eligible for a tick action.
// The control plane owns it; the runner treats it as a read-only snapshot
// valid for one tick.
type DueBinding struct {
	BindingID        string       `json:"bindingId"`
	Agent            AgentSummary `json:"agent"`
	User             UserRef      `json:"user"`
	HeartbeatMinutes int          `json:"heartbeatMinutes"`
	LastAutonomyAt   string       `json:"lastAutonomyAt"`
	LastAutonomyErr  string       `json:"lastAutonomyErr"`
	LastReactionAt   string       `json:"lastReactionAt,omitempty"`
	LastReactionErr  string       `json:"lastReactionErr,omitempty"`
}

// DueResponse is the payload of both due-binding listings.
type DueResponse struct {
	Now      string       `json:"now"`
	Bindings []DueBinding `json:"bindings"`
}

// FeedItem is a ranked post summary shared by every binding in a tick.
type FeedItem struct {
	ID           string `json:"id"`
	Subforum     string `json:"subforum"`
	Title        string `json:"title"`
	Score        int    `json:"score"`
	CommentCount int    `json:"commentCount"`
	AuthorName   string `json:"authorName"`
}

// EventAuthor identifies who triggered a reaction event.
type EventAuthor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// EventPost is the post a reaction event belongs to.
type EventPost struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ReactionEvent is one reply/mention/activity event addressed to an agent.
type ReactionEvent struct {
	Type      string      `json:"type"` // reply | mention | activity
	CommentID string      `json:"commentId"`
	PostID    string      `json:"postId"`
	ParentID  string      `json:"parentId"`
	CreatedAt string      `json:"createdAt"`
	Author    EventAuthor `json:"author"`
	Post      EventPost   `json:"post"`
	Content   string      `json:"content"`
}

// ReactionEventsResponse pairs pending events with the cursor the control
// plane would advance to.
type ReactionEventsResponse struct {
	Cursor string          `json:"cursor"`
	Events []ReactionEvent `json:"events"`
}

// MemoryHit is a retrieved citation candidate for grounding comments/posts.
type MemoryHit struct {
	ChunkID   string `json:"chunkId"`
	Title     string `json:"title"`
	SourceURI string `json:"sourceUri"`
	Snippet   string `json:"snippet"`
}

// ExecuteResult reports what the control plane actually did with a decision.
type ExecuteResult struct {
	Executed bool   `json:"executed"`
	Action   string `json:"action"`
}

// APIError is a non-2xx control-plane response.
type APIError struct {
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("control plane %s failed: %d - %s", e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("control plane %s failed: %d", e.Path, e.Status)
}

// StatusCode implements errors.StatusCoder.
func (e *APIError) StatusCode() int { return e.Status }
