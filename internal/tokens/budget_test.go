package tokens

import (
	"strings"
	"testing"

	"github.com/brightling/companiond/internal/core/domain"
)

// fixedCounter charges one token per word, making budgets easy to reason
// about in tests.
type fixedCounter struct{}

func (fixedCounter) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func exchangeOfWords(seq int64, words int) domain.Exchange {
	return domain.Exchange{
		TurnSeq: seq,
		Input:   strings.TrimSpace(strings.Repeat("word ", words)),
	}
}

func TestBudgeter_Trim_DropsOldestFirst(t *testing.T) {
	b := NewBudgeterWithCounter(10, fixedCounter{})

	exchanges := []domain.Exchange{
		exchangeOfWords(1, 6),
		exchangeOfWords(2, 4),
		exchangeOfWords(3, 4),
	}

	got := b.Trim(exchanges)
	if len(got) != 2 {
		t.Fatalf("expected 2 exchanges after trim, got %d", len(got))
	}
	if got[0].TurnSeq != 2 || got[1].TurnSeq != 3 {
		t.Errorf("expected oldest dropped, kept seqs %d,%d", got[0].TurnSeq, got[1].TurnSeq)
	}
}

func TestBudgeter_Trim_WithinBudgetUnchanged(t *testing.T) {
	b := NewBudgeterWithCounter(100, fixedCounter{})

	exchanges := []domain.Exchange{exchangeOfWords(1, 5), exchangeOfWords(2, 5)}
	got := b.Trim(exchanges)
	if len(got) != 2 {
		t.Errorf("expected no trimming within budget, got %d exchanges", len(got))
	}
}

func TestBudgeter_Trim_AlwaysKeepsNewest(t *testing.T) {
	b := NewBudgeterWithCounter(3, fixedCounter{})

	exchanges := []domain.Exchange{
		exchangeOfWords(1, 10),
		exchangeOfWords(2, 10),
	}
	got := b.Trim(exchanges)
	if len(got) != 1 {
		t.Fatalf("expected only the newest exchange, got %d", len(got))
	}
	if got[0].TurnSeq != 2 {
		t.Errorf("the newest exchange must survive even over budget, got seq %d", got[0].TurnSeq)
	}
}

func TestBudgeter_Trim_ZeroBudgetDisabled(t *testing.T) {
	b := NewBudgeterWithCounter(0, fixedCounter{})

	exchanges := []domain.Exchange{exchangeOfWords(1, 100)}
	got := b.Trim(exchanges)
	if len(got) != 1 {
		t.Errorf("zero budget disables trimming, got %d exchanges", len(got))
	}
}

func TestBudgeter_Trim_EmptyInput(t *testing.T) {
	b := NewBudgeterWithCounter(10, fixedCounter{})
	if got := b.Trim(nil); len(got) != 0 {
		t.Errorf("expected nil passthrough, got %d", len(got))
	}
}

func TestEstimator_Count(t *testing.T) {
	e := NewEstimator()

	n, err := e.Count("twelve chars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 12 chars / 4 = 3 tokens, got %d", n)
	}
}

func TestTiktokenCounter_Count(t *testing.T) {
	c, err := NewTiktokenCounter()
	if err != nil {
		t.Skipf("tiktoken vocabularies unavailable: %v", err)
	}

	n, err := c.Count("Hello, how are you today?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Error("expected a nonzero token count")
	}
}
