package reviewer

import (
	"context"
	"errors"
	"time"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// FailClosed wraps a reviewer so an undecidable review is never treated as
// approved: errors, panics in the contract sense, and timeouts all map to a
// rejected reviewer-error verdict. The orchestrator can rely on Review always
// returning a usable verdict with a nil error.
type FailClosed struct {
	inner  ports.Reviewer
	budget time.Duration
}

func NewFailClosed(inner ports.Reviewer, budget time.Duration) *FailClosed {
	return &FailClosed{inner: inner, budget: budget}
}

func (f *FailClosed) Review(ctx context.Context, candidate string, convCtx ports.ConversationContext) (domain.Verdict, error) {
	reviewCtx := ctx
	if f.budget > 0 {
		var cancel context.CancelFunc
		reviewCtx, cancel = context.WithTimeout(ctx, f.budget)
		defer cancel()
	}

	type result struct {
		verdict domain.Verdict
		err     error
	}
	done := make(chan result, 1)
	go func() {
		v, err := f.inner.Review(reviewCtx, candidate, convCtx)
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			reason := "reviewer failed: " + res.err.Error()
			if errors.Is(res.err, context.DeadlineExceeded) {
				reason = "reviewer timed out after " + f.budget.String()
			}
			return domain.Reject(domain.ReasonReviewerError, reason), nil
		}
		return res.verdict, nil
	case <-reviewCtx.Done():
		reason := "reviewer timed out after " + f.budget.String()
		if !errors.Is(reviewCtx.Err(), context.DeadlineExceeded) {
			reason = "review interrupted: " + reviewCtx.Err().Error()
		}
		return domain.Reject(domain.ReasonReviewerError, reason), nil
	}
}
