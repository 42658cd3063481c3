// Package router classifies recognized utterances into intents and selects
// the responder that will handle the turn.
package router

import (
	"strings"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// Route is the result of one classification pass.
type Route struct {
	Intent    domain.Intent
	Responder ports.Responder

	// Score is the winning keyword hit count; below the configured threshold
	// the route falls back to the generic intent.
	Score int
}

// Router performs a single deterministic classification pass over the
// utterance. It never retries and never fails on low confidence: sub-threshold
// scores map to the fallback intent, whose responder is a generic safe one.
type Router struct {
	responders map[domain.Intent]ports.Responder
	academic   []string
	emotional  []string
	threshold  int
}

// Option configures a Router.
type Option func(*Router)

// WithExtraKeywords merges additional vocabulary into the built-in keyword
// sets for the given intent.
func WithExtraKeywords(intent domain.Intent, words []string) Option {
	return func(r *Router) {
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				lowered = append(lowered, w)
			}
		}
		switch intent {
		case domain.IntentAcademic:
			r.academic = append(r.academic, lowered...)
		case domain.IntentEmotional:
			r.emotional = append(r.emotional, lowered...)
		}
	}
}

// WithThreshold sets the minimum winning score required to trust an intent.
func WithThreshold(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.threshold = n
		}
	}
}

// New builds a Router over the closed responder set. Every intent in the set
// must have a responder; the fallback intent is required.
func New(responders map[domain.Intent]ports.Responder, opts ...Option) *Router {
	r := &Router{
		responders: responders,
		academic:   append([]string(nil), academicKeywords...),
		emotional:  append([]string(nil), emotionalKeywords...),
		threshold:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies text and returns the intent plus the responder handling
// it. Empty or whitespace-only input returns domain.ErrInvalidInput before
// any responder is touched. Pure function of text and router state.
func (r *Router) Route(text string, convCtx ports.ConversationContext) (Route, error) {
	if strings.TrimSpace(text) == "" {
		return Route{}, domain.ErrInvalidInput
	}

	lowered := strings.ToLower(text)

	academicScore := scoreKeywords(lowered, r.academic)
	emotionalScore := scoreKeywords(lowered, r.emotional)

	intent := domain.IntentFallback
	score := 0
	switch {
	case academicScore > emotionalScore && academicScore >= r.threshold:
		intent, score = domain.IntentAcademic, academicScore
	case emotionalScore > academicScore && emotionalScore >= r.threshold:
		intent, score = domain.IntentEmotional, emotionalScore
	case academicScore == emotionalScore && academicScore >= r.threshold:
		// Ties favor academic help, matching the router's bias toward
		// answering questions over guessing at feelings.
		intent, score = domain.IntentAcademic, academicScore
	}

	responder, ok := r.responders[intent]
	if !ok {
		responder = r.responders[domain.IntentFallback]
		intent = domain.IntentFallback
	}

	return Route{Intent: intent, Responder: responder, Score: score}, nil
}

func scoreKeywords(text string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	return score
}

// Built-in vocabularies for the two specialized intents. Deliberately small:
// anything ambiguous belongs with the fallback responder, which is safe by
// construction.
var academicKeywords = []string{
	"learn", "homework", "math", "maths", "science", "history", "geography",
	"reading", "writing", "spelling", "question", "why", "how does", "what is",
	"explain", "practice", "quiz", "test", "school", "teacher says", "multiply",
	"divide", "fraction", "planet", "animal", "experiment",
}

var emotionalKeywords = []string{
	"sad", "happy", "angry", "mad", "scared", "afraid", "nervous", "lonely",
	"bored", "excited", "worried", "upset", "cry", "crying", "friend",
	"friends", "family", "mom", "dad", "brother", "sister", "feel", "feeling",
	"miss", "hug",
}
