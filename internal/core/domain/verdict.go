package domain

// RejectionReason classifies why a candidate failed safety review.
// The taxonomy is closed: reviewers must map any internal failure onto
// ReasonReviewerError rather than inventing new reasons.
type RejectionReason string

const (
	ReasonUnsafeContent   RejectionReason = "unsafe-content"
	ReasonPolicyViolation RejectionReason = "policy-violation"
	ReasonLowConfidence   RejectionReason = "low-confidence"
	ReasonReviewerError   RejectionReason = "reviewer-error"
)

// Verdict is the outcome of a safety review. Immutable once created.
// Reason is set iff the candidate was not approved.
type Verdict struct {
	Approved bool            `json:"approved"`
	Reason   RejectionReason `json:"reason,omitempty"`

	// Detail carries reviewer-specific context for the rejection
	// (matched rule, upstream error text). Never shown to the user.
	Detail string `json:"detail,omitempty"`

	// Synthesized marks verdicts the orchestrator fabricated without a
	// reviewer call, e.g. when a responder timed out.
	Synthesized bool `json:"synthesized,omitempty"`
}

// Approve returns an approving verdict.
func Approve() Verdict {
	return Verdict{Approved: true}
}

// Reject returns a rejecting verdict with the given reason.
func Reject(reason RejectionReason, detail string) Verdict {
	return Verdict{Approved: false, Reason: reason, Detail: detail}
}
