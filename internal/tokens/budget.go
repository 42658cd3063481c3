// Package tokens bounds conversation context by token count. The orchestrator
// already windows context by exchange count; a token budget additionally
// protects responders with tight context limits from a few very long turns.
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/brightling/companiond/internal/core/domain"
)

// Counter counts tokens in a piece of text.
type Counter interface {
	Count(text string) (int, error)
}

// TiktokenCounter counts with the cl100k_base encoding, which tracks the
// model families the remote responder fronts closely enough for budgeting.
type TiktokenCounter struct {
	mu    sync.Mutex
	codec tokenizer.Codec
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{codec: codec}, nil
}

func (c *TiktokenCounter) Count(text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Estimator approximates token counts by character length. Fallback when the
// tiktoken vocabularies cannot be loaded.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4).
	CharsPerToken float64
}

func NewEstimator() *Estimator {
	return &Estimator{CharsPerToken: 4.0}
}

func (e *Estimator) Count(text string) (int, error) {
	return int(float64(len(text)) / e.CharsPerToken), nil
}

// Budgeter trims a context window to a token budget.
type Budgeter struct {
	counter Counter
	budget  int
}

// NewBudgeter builds a Budgeter. A budget of 0 disables trimming. When the
// tiktoken encoding is unavailable the Budgeter falls back to estimation.
func NewBudgeter(budget int) *Budgeter {
	var counter Counter
	if tk, err := NewTiktokenCounter(); err == nil {
		counter = tk
	} else {
		counter = NewEstimator()
	}
	return &Budgeter{counter: counter, budget: budget}
}

// NewBudgeterWithCounter builds a Budgeter over an explicit counter.
func NewBudgeterWithCounter(budget int, counter Counter) *Budgeter {
	return &Budgeter{counter: counter, budget: budget}
}

// Trim drops the oldest exchanges until the remainder fits the budget.
// Exchanges are kept whole; the newest exchange is always retained even if it
// alone exceeds the budget, so responders never lose the immediately prior
// turn.
func (b *Budgeter) Trim(exchanges []domain.Exchange) []domain.Exchange {
	if b.budget <= 0 || len(exchanges) == 0 {
		return exchanges
	}

	total := 0
	costs := make([]int, len(exchanges))
	for i, ex := range exchanges {
		n, err := b.counter.Count(ex.Input + "\n" + ex.Outgoing)
		if err != nil {
			n, _ = NewEstimator().Count(ex.Input + ex.Outgoing)
		}
		costs[i] = n
		total += n
	}

	start := 0
	for total > b.budget && start < len(exchanges)-1 {
		total -= costs[start]
		start++
	}
	return exchanges[start:]
}
