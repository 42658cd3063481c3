package domain

import "time"

// AuditEvent distinguishes why an audit record was written.
type AuditEvent string

const (
	// AuditRejection marks a single generation attempt whose verdict was not
	// approved.
	AuditRejection AuditEvent = "rejection"
	// AuditExhaustedRetries marks the terminal event when every attempt was
	// rejected and the static fallback was served.
	AuditExhaustedRetries AuditEvent = "exhausted-retries"
	// AuditCancelled marks a rejection observed on an attempt that completed
	// after the caller had gone away; the result was discarded.
	AuditCancelled AuditEvent = "cancelled"
)

// AuditRecord is one entry in the safety log. Created by the orchestrator for
// every rejected attempt and for terminal fallback/cancellation events; never
// mutated after creation.
type AuditRecord struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	TurnSeq      int64           `json:"turn_seq"`
	AttemptIndex int             `json:"attempt_index"`
	Event        AuditEvent      `json:"event"`
	Reason       RejectionReason `json:"reason,omitempty"`
	Detail       string          `json:"detail,omitempty"`

	// Candidate is the rejected model output, retained for policy tuning.
	// It is never part of any user-visible surface.
	Candidate string `json:"candidate,omitempty"`

	Input     string    `json:"input,omitempty"`
	Responder string    `json:"responder,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
