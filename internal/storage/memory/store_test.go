package memory

import (
	"context"
	"testing"

	"github.com/brightling/companiond/internal/core/domain"
)

func TestStore_GetContext_Window(t *testing.T) {
	store := New()

	for i := 1; i <= 4; i++ {
		err := store.AppendExchange(context.Background(), domain.Exchange{
			SessionID: "sess-1", TurnSeq: int64(i), Input: "in", Outgoing: "out",
			Safety: domain.SafetyApproved,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	exchanges, err := store.GetContext(context.Background(), "sess-1", 2)
	if err != nil {
		t.Fatalf("get context: %v", err)
	}
	if len(exchanges) != 2 {
		t.Fatalf("expected window of 2, got %d", len(exchanges))
	}
	if exchanges[0].TurnSeq != 3 || exchanges[1].TurnSeq != 4 {
		t.Errorf("expected seqs 3,4 oldest first, got %d,%d", exchanges[0].TurnSeq, exchanges[1].TurnSeq)
	}

	if got, _ := store.GetContext(context.Background(), "sess-1", 0); len(got) != 0 {
		t.Errorf("zero window should return nothing, got %d", len(got))
	}
	if got, _ := store.GetContext(context.Background(), "unknown", 5); len(got) != 0 {
		t.Errorf("unknown session should return nothing, got %d", len(got))
	}
}

func TestStore_History_NewestFirst(t *testing.T) {
	store := New()

	for i := 1; i <= 3; i++ {
		store.AppendExchange(context.Background(), domain.Exchange{
			SessionID: "sess-1", TurnSeq: int64(i), Safety: domain.SafetyApproved,
		})
	}

	history, err := store.History(context.Background(), "sess-1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].TurnSeq != 3 || history[1].TurnSeq != 2 {
		t.Errorf("expected newest first, got %d,%d", history[0].TurnSeq, history[1].TurnSeq)
	}
}

func TestStore_Stats(t *testing.T) {
	store := New()

	store.AppendExchange(context.Background(), domain.Exchange{SessionID: "a", TurnSeq: 1, Safety: domain.SafetyApproved})
	store.AppendExchange(context.Background(), domain.Exchange{SessionID: "a", TurnSeq: 2, Safety: domain.SafetyApproved})
	store.AppendExchange(context.Background(), domain.Exchange{SessionID: "b", TurnSeq: 1, Safety: domain.SafetyApproved})
	store.Record(context.Background(), domain.AuditRecord{SessionID: "a", Event: domain.AuditRejection, Reason: domain.ReasonUnsafeContent})

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Sessions != 2 || stats.Exchanges != 3 || stats.Violations != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ByReason[string(domain.ReasonUnsafeContent)] != 1 {
		t.Errorf("unexpected reason counts: %+v", stats.ByReason)
	}
}

func TestStore_Search_CaseInsensitive(t *testing.T) {
	store := New()

	store.AppendExchange(context.Background(), domain.Exchange{
		SessionID: "a", TurnSeq: 1, Input: "Tell me about DINOSAURS", Outgoing: "sure", Safety: domain.SafetyApproved,
	})

	results, err := store.Search(context.Background(), "dinosaurs", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected case-insensitive match, got %d results", len(results))
	}
}
