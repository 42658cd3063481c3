package responder

import (
	"context"

	"github.com/brightling/companiond/internal/core/ports"
)

// Fallback is the generic safe responder for low-confidence intents. It never
// engages with the subject matter, so its candidates are safe by construction.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	return pick(fallbackResponses, req), nil
}

var fallbackResponses = []string{
	"That's interesting! Can you tell me a little more about what you mean?",
	"Hmm, let me think. Could you ask me that in a different way?",
	"I'd love to chat about that. What would you like to talk about most?",
}
