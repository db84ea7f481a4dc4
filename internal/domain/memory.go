package domain

// Memory is a durable conversation record kept by the agent runtime.
// Corresponds to the memories table in PostgreSQL.
type Memory struct {
	ID        string // deterministic UUID, see idhash.MemoryID
	AgentID   string
	UserID    string
	RoomID    string
	Content   Content
	CreatedAt int64 // Unix timestamp in milliseconds
}

// Content is the payload of a memory or of a generated response.
type Content struct {
	Text      string `json:"text"`
	Action    string `json:"action,omitempty"`
	URL       string `json:"url,omitempty"`
	InReplyTo string `json:"inReplyTo,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Reserved action tags that never dispatch an action.
const (
	ActionNone     = "NONE"
	ActionContinue = "CONTINUE"
	ActionIgnore   = "IGNORE"
)
