package responder

import (
	"context"
	"errors"
	"time"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// Timed enforces a generation time budget around any responder. Exceeding the
// budget is reported as *domain.GenerationTimeoutError; any other failure is
// normalized to *domain.GenerationFailedError so the orchestrator's retry
// accounting sees exactly two generation error shapes.
type Timed struct {
	inner  ports.Responder
	budget time.Duration
}

func WithTimeout(inner ports.Responder, budget time.Duration) *Timed {
	return &Timed{inner: inner, budget: budget}
}

func (t *Timed) Name() string { return t.inner.Name() }

func (t *Timed) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if t.budget <= 0 {
		return t.normalize(t.inner.Generate(ctx, req))
	}

	genCtx, cancel := context.WithTimeout(ctx, t.budget)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := t.inner.Generate(genCtx, req)
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, context.DeadlineExceeded) {
			return "", &domain.GenerationTimeoutError{Responder: t.inner.Name(), Budget: t.budget}
		}
		return t.normalize(res.text, res.err)
	case <-genCtx.Done():
		// The goroutine may still be running; its result is dropped. The
		// buffered channel lets it exit without leaking.
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return "", &domain.GenerationTimeoutError{Responder: t.inner.Name(), Budget: t.budget}
		}
		return "", genCtx.Err()
	}
}

func (t *Timed) normalize(text string, err error) (string, error) {
	if err == nil {
		return text, nil
	}
	if domain.IsGenerationError(err) {
		return "", err
	}
	return "", &domain.GenerationFailedError{Responder: t.inner.Name(), Err: err}
}
