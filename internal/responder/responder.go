// Package responder implements the closed set of responder variants
// {academic, emotional, fallback} behind the ports.Responder capability,
// plus the timeout wrapper the orchestrator applies to every generation call.
//
// Built-in responders generate from small curated response tables. The remote
// responder delegates generation to an HTTP model-serving endpoint.
package responder

import (
	"strings"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// Registry maps each intent to its responder. The router requires an entry
// for the fallback intent.
func Registry() map[domain.Intent]ports.Responder {
	return map[domain.Intent]ports.Responder{
		domain.IntentAcademic:  NewAcademic(),
		domain.IntentEmotional: NewEmotional(),
		domain.IntentFallback:  NewFallback(),
	}
}

// pick selects from variants by attempt index so a retry is a materially
// different candidate, not a repeat. A retry prompted by unsafe content or a
// policy violation jumps straight to the most conservative variant (last).
func pick(variants []string, req ports.GenerateRequest) string {
	if len(variants) == 0 {
		return ""
	}
	switch req.PriorRejection {
	case domain.ReasonUnsafeContent, domain.ReasonPolicyViolation:
		return variants[len(variants)-1]
	}
	idx := req.Attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(variants) {
		idx = len(variants) - 1
	}
	return variants[idx]
}

func containsAny(text string, words ...string) bool {
	lowered := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}
