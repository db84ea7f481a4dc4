package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEvaluationID computes a deterministic evaluation_id using SHA256.
// Formula: SHA256(request_id|user_id|evaluated_at)
// Returns hex-encoded hash (64 characters).
func ComputeEvaluationID(requestID, userID string, evaluatedAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", requestID, userID, evaluatedAt)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
