package reviewer

import (
	"context"
	"strings"
	"testing"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

func TestKeyword_Review_ApprovesSafeCandidate(t *testing.T) {
	k := NewKeyword()

	verdict, err := k.Review(context.Background(), "Let's practice fractions together! What part is tricky?", ports.ConversationContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Approved {
		t.Errorf("safe candidate rejected: %+v", verdict)
	}
}

func TestKeyword_Review_BlockedWords(t *testing.T) {
	k := NewKeyword()

	tests := []struct {
		name      string
		candidate string
	}{
		{"violence", "A sword is a kind of weapon used long ago."},
		{"self-harm", "Some people think about suicide when they are sad."},
		{"credentials", "Just tell me your password and I can help."},
		{"despair", "Sometimes things feel hopeless."},
		{"case-insensitive", "THAT WEAPON IS DANGEROUS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := k.Review(context.Background(), tt.candidate, ports.ConversationContext{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Approved {
				t.Fatalf("expected rejection for %q", tt.candidate)
			}
			if verdict.Reason != domain.ReasonUnsafeContent {
				t.Errorf("expected unsafe-content, got %q", verdict.Reason)
			}
			if verdict.Detail == "" {
				t.Error("rejection should name the matched rule")
			}
		})
	}
}

func TestKeyword_Review_PrivacyPatterns(t *testing.T) {
	k := NewKeyword()

	tests := []struct {
		name      string
		candidate string
	}{
		{"phone number", "You can call me at 555-123-4567 anytime."},
		{"email address", "Write to helper@example.com for more."},
		{"street address", "I live at 42 Maple Street, come visit!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := k.Review(context.Background(), tt.candidate, ports.ConversationContext{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Approved {
				t.Fatalf("expected rejection for %q", tt.candidate)
			}
			if verdict.Reason != domain.ReasonPolicyViolation {
				t.Errorf("expected policy-violation, got %q", verdict.Reason)
			}
		})
	}
}

func TestKeyword_Review_OverlongCandidate(t *testing.T) {
	k := NewKeyword()

	long := strings.Repeat("a nice story about clouds ", 50)
	if len([]rune(long)) <= 1000 {
		t.Fatalf("test candidate too short: %d runes", len([]rune(long)))
	}

	verdict, err := k.Review(context.Background(), long, ports.ConversationContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.Approved {
		t.Fatal("expected rejection for overlong candidate")
	}
	if verdict.Reason != domain.ReasonLowConfidence {
		t.Errorf("expected low-confidence, got %q", verdict.Reason)
	}
}

func TestKeyword_Review_CustomBlocklistAndLength(t *testing.T) {
	k := NewKeyword(
		WithBlockedWords([]string{"Broccoli"}),
		WithMaxLength(20),
	)

	verdict, _ := k.Review(context.Background(), "have some broccoli", ports.ConversationContext{})
	if verdict.Approved {
		t.Error("custom blocked word should reject")
	}

	verdict, _ = k.Review(context.Background(), "this sentence is definitely longer than twenty runes", ports.ConversationContext{})
	if verdict.Approved {
		t.Error("custom length ceiling should reject")
	}
	if verdict.Reason != domain.ReasonLowConfidence {
		t.Errorf("expected low-confidence, got %q", verdict.Reason)
	}
}
