package domain

import "time"

// ChunkEnvelope is the message published per flush to a session's live
// stream channel. It is ephemeral: it exists only on the wire and is
// never persisted as a row.
type ChunkEnvelope struct {
	SessionID string    `json:"session_id"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
