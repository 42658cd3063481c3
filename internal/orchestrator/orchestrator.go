// Package orchestrator implements the turn-processing core: the state
// machine that routes an utterance, obtains candidate responses, gates each
// one through safety review, retries a bounded number of times with the
// rejection reason fed back, and deterministically falls back to a static
// safe message when review never passes.
//
// Guarantees:
//   - exactly one in-flight turn per session (per-session lease held from
//     ROUTING entry to FINALIZED),
//   - no response reaches the user without passing review or being replaced
//     by the pre-approved fallback,
//   - every rejection produces an audit record with its reason.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
	"github.com/brightling/companiond/internal/responder"
	"github.com/brightling/companiond/internal/router"
	"github.com/brightling/companiond/internal/session"
	"github.com/brightling/companiond/internal/tokens"
)

// Config is the value surface the core consumes; mechanism lives in the
// config package.
type Config struct {
	// MaxRetries caps total generation attempts per turn.
	MaxRetries       int
	ResponderTimeout time.Duration
	ContextWindow    int

	// FallbackMessage is served on exhaustion. Statically configured and
	// pre-approved; it never passes through a responder or reviewer.
	FallbackMessage string
	// RetryPromptMessage is served when input is empty or unusable. Not a
	// safety event.
	RetryPromptMessage string
}

// Orchestrator drives the per-turn state machine. Safe for concurrent use;
// concurrency within a session is serialized by the session registry.
type Orchestrator struct {
	router   *router.Router
	reviewer ports.Reviewer
	store    ports.ContextStore
	audit    ports.AuditSink
	sessions *session.Registry
	budgeter *tokens.Budgeter
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option overrides an orchestrator default.
type Option func(*Orchestrator)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithBudgeter adds token-budget trimming on top of the exchange-count
// context window.
func WithBudgeter(b *tokens.Budgeter) Option {
	return func(o *Orchestrator) { o.budgeter = b }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New builds an Orchestrator. The reviewer should already be fail-closed
// wrapped; the orchestrator treats any verdict it returns as authoritative.
func New(rt *router.Router, rev ports.Reviewer, store ports.ContextStore, audit ports.AuditSink, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		router:   rt,
		reviewer: rev,
		store:    store,
		audit:    audit,
		sessions: session.NewRegistry(),
		cfg:      cfg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("companiond/orchestrator"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sessions exposes the registry for observability surfaces.
func (o *Orchestrator) Sessions() *session.Registry {
	return o.sessions
}

// ProcessTurn is the sole entry point: it processes one recognized utterance
// for a session and returns the finalized turn. Synchronous; the caller gets
// the turn only after FINALIZED. The only error classes are
// *domain.ContextStoreUnavailable (turn aborted, nothing persisted) and the
// caller's own context cancellation (result discarded).
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, userID, text string) (*domain.Turn, error) {
	ctx, span := o.tracer.Start(ctx, "turn.process",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	// Session lease: acquired at ROUTING entry, released at FINALIZED (or
	// abort). Blocks while a prior turn for this session is in flight.
	lease := o.sessions.Acquire(sessionID, userID)
	defer lease.Release()

	turn := &domain.Turn{
		ID:        "turn_" + uuid.New().String(),
		SessionID: sessionID,
		Seq:       lease.Seq,
		Input:     text,
		Phase:     domain.PhaseRouting,
		StartedAt: o.now(),
	}
	span.SetAttributes(attribute.Int64("turn.seq", turn.Seq))

	convCtx, err := o.loadContext(ctx, sessionID, userID)
	if err != nil {
		// The core cannot safely proceed without context and must not
		// fabricate one. Abort without finalizing or persisting.
		o.logger.Error("context store unavailable, aborting turn",
			slog.String("session_id", sessionID),
			slog.Int64("turn_seq", turn.Seq),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	route, err := o.router.Route(text, convCtx)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			// Benign short-circuit: fixed retry prompt, zero attempts, zero
			// audit records, nothing persisted.
			turn.Outgoing = o.cfg.RetryPromptMessage
			turn.SafetyStatus = domain.SafetySkipped
			o.finalize(turn)
			span.SetAttributes(attribute.String("turn.safety", string(turn.SafetyStatus)))
			return turn, nil
		}
		return nil, err
	}
	turn.Intent = route.Intent
	turn.RoutedAt = o.now()
	span.SetAttributes(attribute.String("turn.intent", string(route.Intent)))

	timed := responder.WithTimeout(route.Responder, o.cfg.ResponderTimeout)

	// Attempts must run to completion even if the caller goes away, so they
	// execute under a detached context; cancellation is observed between
	// phases and the result discarded.
	attemptCtx := context.WithoutCancel(ctx)

	var priorRejection domain.RejectionReason
	for index := 1; index <= o.cfg.MaxRetries; index++ {
		turn.Phase = domain.PhaseGenerating
		attempt := o.runAttempt(attemptCtx, timed, ports.GenerateRequest{
			Text:           text,
			Intent:         route.Intent,
			Context:        convCtx,
			PriorRejection: priorRejection,
			Attempt:        index,
		})
		turn.Attempts = append(turn.Attempts, attempt)

		if cancelled := ctx.Err(); cancelled != nil {
			return nil, o.discardCancelled(attemptCtx, turn, route, attempt, cancelled)
		}

		if attempt.Verdict.Approved {
			turn.Phase = domain.PhaseApproved
			turn.Outgoing = attempt.Candidate
			turn.SafetyStatus = domain.SafetyApproved
			break
		}

		o.recordRejection(attemptCtx, turn, route, attempt)

		if index < o.cfg.MaxRetries {
			// RETRYING: carry the rejection reason into the next generation
			// so it is informed, not a blind repeat.
			turn.Phase = domain.PhaseRetrying
			priorRejection = attempt.Verdict.Reason
			continue
		}

		// Exhausted: the user hears the static fallback, and memory reflects
		// what the user actually heard, not the rejected candidates.
		turn.Phase = domain.PhaseExhausted
		turn.Outgoing = o.cfg.FallbackMessage
		turn.SafetyStatus = domain.SafetyFallback
		o.recordExhaustion(attemptCtx, turn, route, attempt)
	}

	o.finalize(turn)
	span.SetAttributes(
		attribute.String("turn.safety", string(turn.SafetyStatus)),
		attribute.Int("turn.attempts", len(turn.Attempts)),
	)

	if err := o.appendExchange(attemptCtx, turn); err != nil {
		return nil, err
	}

	o.logger.Info("turn finalized",
		slog.String("session_id", sessionID),
		slog.Int64("turn_seq", turn.Seq),
		slog.String("intent", string(turn.Intent)),
		slog.String("safety", string(turn.SafetyStatus)),
		slog.Int("attempts", len(turn.Attempts)),
	)

	return turn, nil
}

// runAttempt executes one GENERATING+REVIEWING cycle and returns the
// completed attempt. Responder timeouts and failures become synthesized
// low-confidence rejections without a reviewer call, bounding total latency.
func (o *Orchestrator) runAttempt(ctx context.Context, r ports.Responder, req ports.GenerateRequest) domain.GenerationAttempt {
	ctx, span := o.tracer.Start(ctx, "turn.attempt",
		trace.WithAttributes(attribute.Int("attempt.index", req.Attempt)))
	defer span.End()

	attempt := domain.GenerationAttempt{
		Index:     req.Attempt,
		StartedAt: o.now(),
	}

	candidate, err := r.Generate(ctx, req)
	if err != nil {
		verdict := domain.Reject(domain.ReasonLowConfidence, err.Error())
		verdict.Synthesized = true
		attempt.Verdict = verdict
		attempt.ReviewedAt = o.now()
		span.SetAttributes(attribute.String("attempt.outcome", "generation-error"))
		return attempt
	}
	attempt.Candidate = candidate

	// The reviewer is fail-closed wrapped: it always returns a verdict. A
	// non-nil error here would mean a contract violation, so reject anyway.
	verdict, err := o.reviewer.Review(ctx, candidate, req.Context)
	if err != nil {
		verdict = domain.Reject(domain.ReasonReviewerError, err.Error())
	}
	attempt.Verdict = verdict
	attempt.ReviewedAt = o.now()
	span.SetAttributes(attribute.Bool("attempt.approved", verdict.Approved))
	return attempt
}

func (o *Orchestrator) loadContext(ctx context.Context, sessionID, userID string) (ports.ConversationContext, error) {
	exchanges, err := o.store.GetContext(ctx, sessionID, o.cfg.ContextWindow)
	if err != nil {
		return ports.ConversationContext{}, err
	}
	if o.budgeter != nil {
		exchanges = o.budgeter.Trim(exchanges)
	}
	return ports.ConversationContext{
		SessionID: sessionID,
		UserID:    userID,
		Exchanges: exchanges,
	}, nil
}

func (o *Orchestrator) finalize(turn *domain.Turn) {
	turn.Phase = domain.PhaseFinalized
	turn.FinalizedAt = o.now()
}

// appendExchange persists the finalized turn's exchange, exactly once, only
// after FINALIZED. Invalid-input turns produced no exchange and are skipped.
func (o *Orchestrator) appendExchange(ctx context.Context, turn *domain.Turn) error {
	if turn.SafetyStatus == domain.SafetySkipped {
		return nil
	}
	ex := domain.Exchange{
		SessionID: turn.SessionID,
		TurnSeq:   turn.Seq,
		Input:     turn.Input,
		Outgoing:  turn.Outgoing,
		Intent:    turn.Intent,
		Safety:    turn.SafetyStatus,
		CreatedAt: o.now(),
	}
	if err := o.store.AppendExchange(ctx, ex); err != nil {
		o.logger.Error("failed to persist exchange",
			slog.String("session_id", turn.SessionID),
			slog.Int64("turn_seq", turn.Seq),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// discardCancelled handles caller cancellation observed after an attempt ran
// to completion: nothing is persisted or returned, and a cancellation audit
// record is written only if the discarded attempt had been rejected.
func (o *Orchestrator) discardCancelled(ctx context.Context, turn *domain.Turn, route router.Route, attempt domain.GenerationAttempt, cause error) error {
	turn.SafetyStatus = domain.SafetyCancelled
	o.finalize(turn)

	if !attempt.Verdict.Approved {
		o.writeAudit(ctx, domain.AuditRecord{
			SessionID:    turn.SessionID,
			TurnSeq:      turn.Seq,
			AttemptIndex: attempt.Index,
			Event:        domain.AuditCancelled,
			Reason:       attempt.Verdict.Reason,
			Detail:       attempt.Verdict.Detail,
			Candidate:    attempt.Candidate,
			Input:        turn.Input,
			Responder:    route.Responder.Name(),
		})
	}

	o.logger.Warn("turn cancelled by caller, result discarded",
		slog.String("session_id", turn.SessionID),
		slog.Int64("turn_seq", turn.Seq),
		slog.Int("attempt", attempt.Index),
	)
	return cause
}

func (o *Orchestrator) recordRejection(ctx context.Context, turn *domain.Turn, route router.Route, attempt domain.GenerationAttempt) {
	o.writeAudit(ctx, domain.AuditRecord{
		SessionID:    turn.SessionID,
		TurnSeq:      turn.Seq,
		AttemptIndex: attempt.Index,
		Event:        domain.AuditRejection,
		Reason:       attempt.Verdict.Reason,
		Detail:       attempt.Verdict.Detail,
		Candidate:    attempt.Candidate,
		Input:        turn.Input,
		Responder:    route.Responder.Name(),
	})
	o.logger.Warn("candidate rejected",
		slog.String("session_id", turn.SessionID),
		slog.Int64("turn_seq", turn.Seq),
		slog.Int("attempt", attempt.Index),
		slog.String("reason", string(attempt.Verdict.Reason)),
		slog.String("detail", attempt.Verdict.Detail),
	)
}

func (o *Orchestrator) recordExhaustion(ctx context.Context, turn *domain.Turn, route router.Route, last domain.GenerationAttempt) {
	o.writeAudit(ctx, domain.AuditRecord{
		SessionID:    turn.SessionID,
		TurnSeq:      turn.Seq,
		AttemptIndex: last.Index,
		Event:        domain.AuditExhaustedRetries,
		Reason:       last.Verdict.Reason,
		Detail:       "all attempts rejected; static fallback served",
		Input:        turn.Input,
		Responder:    route.Responder.Name(),
	})
	o.logger.Warn("retries exhausted, serving fallback",
		slog.String("session_id", turn.SessionID),
		slog.Int64("turn_seq", turn.Seq),
		slog.Int("attempts", last.Index),
	)
}

// writeAudit is best effort: the audit sink acks or the failure is logged
// loudly, but a sink outage never changes the user-visible outcome.
func (o *Orchestrator) writeAudit(ctx context.Context, rec domain.AuditRecord) {
	rec.ID = "aud_" + uuid.New().String()
	rec.CreatedAt = o.now()
	if err := o.audit.Record(ctx, rec); err != nil {
		o.logger.Error("failed to write audit record",
			slog.String("session_id", rec.SessionID),
			slog.Int64("turn_seq", rec.TurnSeq),
			slog.String("event", string(rec.Event)),
			slog.String("error", err.Error()),
		)
	}
}
