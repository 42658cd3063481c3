// Package reviewer implements safety review of candidate responses. The
// keyword reviewer screens against a curated vocabulary and privacy patterns;
// FailClosed wraps any reviewer so that errors and timeouts always surface as
// rejections, never approvals.
package reviewer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// Keyword screens candidates against a blocked vocabulary, privacy-leak
// patterns, and a length ceiling. Side-effect free.
type Keyword struct {
	blocked   []string
	patterns  []privacyPattern
	maxLength int
}

type privacyPattern struct {
	name string
	re   *regexp.Regexp
}

// KeywordOption configures the keyword reviewer.
type KeywordOption func(*Keyword)

// WithBlockedWords adds vocabulary to the built-in blocklist.
func WithBlockedWords(words []string) KeywordOption {
	return func(k *Keyword) {
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				k.blocked = append(k.blocked, w)
			}
		}
	}
}

// WithMaxLength overrides the candidate length ceiling in runes.
func WithMaxLength(n int) KeywordOption {
	return func(k *Keyword) {
		if n > 0 {
			k.maxLength = n
		}
	}
}

// NewKeyword builds the keyword reviewer with the built-in child-safety
// vocabulary and privacy patterns.
func NewKeyword(opts ...KeywordOption) *Keyword {
	k := &Keyword{
		blocked:   append([]string(nil), blockedWords...),
		patterns:  privacyPatterns,
		maxLength: 1000,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Review classifies the candidate. It always returns a verdict and a nil
// error; the error return exists to satisfy ports.Reviewer for
// implementations that can fail.
func (k *Keyword) Review(ctx context.Context, candidate string, convCtx ports.ConversationContext) (domain.Verdict, error) {
	lowered := strings.ToLower(candidate)

	for _, word := range k.blocked {
		if strings.Contains(lowered, word) {
			return domain.Reject(domain.ReasonUnsafeContent, fmt.Sprintf("blocked word: %s", word)), nil
		}
	}

	for _, p := range k.patterns {
		if p.re.MatchString(candidate) {
			return domain.Reject(domain.ReasonPolicyViolation, fmt.Sprintf("privacy pattern: %s", p.name)), nil
		}
	}

	if len([]rune(candidate)) > k.maxLength {
		return domain.Reject(domain.ReasonLowConfidence, fmt.Sprintf("candidate exceeds %d characters", k.maxLength)), nil
	}

	return domain.Approve(), nil
}

// Vocabulary the reviewer refuses to pass through to children. Matching is
// substring-based over the lowercased candidate, like the patterns the
// original policy list used.
var blockedWords = []string{
	// Violence
	"kill", "murder", "weapon", "gun", "knife", "blood", "fight",
	// Age-inappropriate
	"adult content", "gambling", "dating",
	// Dangerous behavior
	"suicide", "self-harm", "drugs", "alcohol", "smoking", "cigarette",
	// Credential / identity probing
	"password", "credit card", "social security",
	// Despair framing
	"hopeless", "worthless", "revenge", "hate you",
}

var privacyPatterns = []privacyPattern{
	{name: "phone-number", re: regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
	{name: "email-address", re: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	{name: "street-address", re: regexp.MustCompile(`(?i)\b\d+\s+[a-z]+\s+(street|st|avenue|ave|road|rd|lane|ln|drive|dr)\b`)},
}
