// Package ports defines the narrow interfaces the orchestrator consumes.
// Responders, reviewers, context stores, and audit sinks are external
// collaborators; the core depends on these contracts, never on concrete
// implementations.
package ports

import (
	"context"

	"github.com/brightling/companiond/internal/core/domain"
)

// ConversationContext is the bounded window of prior exchanges supplied to
// responders and reviewers. Ordered oldest first.
type ConversationContext struct {
	SessionID string
	UserID    string
	Exchanges []domain.Exchange
}

// GenerateRequest carries everything a responder may use for one attempt.
type GenerateRequest struct {
	Text    string
	Intent  domain.Intent
	Context ConversationContext

	// PriorRejection is set on retries so regeneration is informed by the
	// previous verdict rather than a blind repeat. Empty on the first attempt.
	PriorRejection domain.RejectionReason

	// Attempt is the 1-based attempt index.
	Attempt int
}

// Responder produces a candidate response for a classified utterance.
// Implementations are stateless per call and must not touch session state
// directly; all context arrives through the request. Failures are reported as
// *domain.GenerationTimeoutError or *domain.GenerationFailedError.
type Responder interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Reviewer classifies a candidate as approved or rejected with a reason.
// Implementations must be side-effect free with respect to session state and
// must always return a verdict: internal faults map to a rejected
// reviewer-error verdict, never a silent approval.
type Reviewer interface {
	Review(ctx context.Context, candidate string, convCtx ConversationContext) (domain.Verdict, error)
}

// ContextStore is the single accessor for per-session conversation history.
// AppendExchange is called exactly once per finalized turn, after FINALIZED
// is reached. Unavailability is reported as *domain.ContextStoreUnavailable.
type ContextStore interface {
	GetContext(ctx context.Context, sessionID string, window int) ([]domain.Exchange, error)
	AppendExchange(ctx context.Context, ex domain.Exchange) error
}

// AuditSink receives safety audit records. Append-only; consumed by an
// external analytics/parental-console collaborator.
type AuditSink interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}
