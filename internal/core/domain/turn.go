// Package domain holds the canonical types for turn processing: sessions,
// turns, generation attempts, safety verdicts, and audit records.
package domain

import (
	"time"
)

// Intent is the classified purpose of an utterance. It selects which
// responder handles the turn.
type Intent string

const (
	IntentAcademic  Intent = "academic"
	IntentEmotional Intent = "emotional"
	// IntentFallback is the designated low-confidence intent. It routes to a
	// generic safe responder; classification below threshold is not an error.
	IntentFallback Intent = "fallback"
)

// SafetyStatus summarizes how a finalized turn's outgoing message was cleared.
type SafetyStatus string

const (
	// SafetyApproved means the outgoing message is a reviewer-approved candidate.
	SafetyApproved SafetyStatus = "approved"
	// SafetyFallback means retries were exhausted and the outgoing message is
	// the statically configured safe fallback text.
	SafetyFallback SafetyStatus = "fallback"
	// SafetySkipped means no candidate was ever generated (invalid input);
	// the outgoing message is the fixed retry prompt.
	SafetySkipped SafetyStatus = "skipped"
	// SafetyCancelled means the caller went away mid-turn; the result was
	// discarded and nothing was persisted or returned.
	SafetyCancelled SafetyStatus = "cancelled"
)

// Phase identifies where a turn is in its lifecycle.
type Phase string

const (
	PhaseRouting    Phase = "routing"
	PhaseGenerating Phase = "generating"
	PhaseReviewing  Phase = "reviewing"
	PhaseApproved   Phase = "approved"
	PhaseRetrying   Phase = "retrying"
	PhaseExhausted  Phase = "exhausted"
	PhaseFinalized  Phase = "finalized"
)

// GenerationAttempt records one responder invocation within a turn.
// Immutable once its verdict is recorded.
type GenerationAttempt struct {
	// Index is 1-based within the turn.
	Index      int       `json:"index"`
	Candidate  string    `json:"candidate"`
	Verdict    Verdict   `json:"verdict"`
	StartedAt  time.Time `json:"started_at"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Turn is one request/response cycle within a session. The orchestrator is
// the single writer; callers receive it only after finalization.
type Turn struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`

	// Seq is monotonic within the session.
	Seq int64 `json:"seq"`

	Input  string `json:"input"`
	Intent Intent `json:"intent,omitempty"`

	// Attempts holds every generation attempt in order. For turns that
	// short-circuit on invalid input it is empty; otherwise
	// 1 <= len(Attempts) <= the configured retry cap.
	Attempts []GenerationAttempt `json:"attempts,omitempty"`

	// Outgoing is set iff the turn reached a terminal state.
	Outgoing     string       `json:"outgoing"`
	SafetyStatus SafetyStatus `json:"safety_status"`

	Phase       Phase     `json:"phase"`
	StartedAt   time.Time `json:"started_at"`
	RoutedAt    time.Time `json:"routed_at,omitzero"`
	FinalizedAt time.Time `json:"finalized_at,omitzero"`
}

// Finalized reports whether the turn reached a terminal state.
func (t *Turn) Finalized() bool {
	return t.Phase == PhaseFinalized
}

// LastAttempt returns the most recent generation attempt, or nil when the
// turn never reached GENERATING.
func (t *Turn) LastAttempt() *GenerationAttempt {
	if len(t.Attempts) == 0 {
		return nil
	}
	return &t.Attempts[len(t.Attempts)-1]
}

// Exchange is the persisted projection of a finalized turn: what the user
// said and what the user actually heard. Rejected candidates never appear
// here.
type Exchange struct {
	SessionID string       `json:"session_id"`
	TurnSeq   int64        `json:"turn_seq"`
	Input     string       `json:"input"`
	Outgoing  string       `json:"outgoing"`
	Intent    Intent       `json:"intent,omitempty"`
	Safety    SafetyStatus `json:"safety"`
	CreatedAt time.Time    `json:"created_at"`
}
