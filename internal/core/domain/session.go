package domain

import "time"

// Session is one conversation thread for one user. Turns are append-only and
// owned exclusively by the session; at most one turn is in flight at a time,
// enforced by the orchestrator rather than by callers.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// NextSeq is the sequence number the next turn will receive.
	NextSeq int64 `json:"next_seq"`

	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
