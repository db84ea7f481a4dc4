package domain

import "time"

// Candidate is a normalized post fetched from the timeline API and considered
// for a response. Candidates are immutable once fetched and live for one poll cycle.
type Candidate struct {
	ID             string // platform post id, decimal string wider than int64-safe JSON numbers
	AuthorID       string
	AuthorHandle   string // username without @
	AuthorName     string // display name
	Text           string
	CreatedAt      int64 // Unix timestamp in seconds
	IsReply        bool
	IsRetweet      bool
	ConversationID string
	ParentID       string // empty when the post is not a reply
	PermanentURL   string
	Attachments    []Attachment
}

// Attachment is a media item attached to a post.
type Attachment struct {
	URL string
}

// CreatedTime returns CreatedAt as time.Time.
func (c *Candidate) CreatedTime() time.Time {
	return time.Unix(c.CreatedAt, 0)
}

// Thread is a reply chain ordered from root to leaf.
type Thread []*Candidate

// Leaf returns the last post of the thread, or nil for an empty thread.
func (t Thread) Leaf() *Candidate {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// Photos returns every attachment of every post in the thread, root first.
func (t Thread) Photos() []Attachment {
	var photos []Attachment
	for _, c := range t {
		photos = append(photos, c.Attachments...)
	}
	return photos
}
