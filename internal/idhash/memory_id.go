package idhash

import (
	"fmt"

	"github.com/google/uuid"
)

// namespace scopes every derived id to this agent runtime.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://tokimonster.io/agent"))

// FromString derives a stable UUID (SHA1, version 5) from an arbitrary string.
func FromString(s string) string {
	return uuid.NewSHA1(namespace, []byte(s)).String()
}

// AgentID derives the agent id from the character name.
func AgentID(characterName string) string {
	return FromString(characterName)
}

// MemoryID derives the durable memory id of a platform post as seen by an agent.
// Formula: UUIDv5(platformID + "-" + agentID).
// The same post always maps to the same id, so an existing memory marks the
// post as already processed across restarts.
func MemoryID(platformID, agentID string) string {
	return FromString(platformID + "-" + agentID)
}

// RoomID derives the room id of a conversation as seen by an agent.
func RoomID(conversationID, agentID string) string {
	return FromString(conversationID + "-" + agentID)
}

// UserID derives the runtime user id of a platform account.
func UserID(platformUserID string) string {
	return FromString(platformUserID)
}

// TranscriptKey returns the cache key under which the generation transcript
// for a source post is stored.
func TranscriptKey(platformID string) string {
	return fmt.Sprintf("twitter/tweet_generation_%s.txt", platformID)
}

// CursorKey returns the cursor key for an agent account.
func CursorKey(username string) string {
	return fmt.Sprintf("twitter/%s/latest_checked_tweet_id", username)
}
