package responder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
	"github.com/brightling/companiond/internal/testutil"
)

func TestRemote_Generate(t *testing.T) {
	var received generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Candidate: "Here's a gentle answer."})
	}))
	defer srv.Close()

	remote := NewRemote("emotional-remote", srv.URL)

	got, err := remote.Generate(context.Background(), ports.GenerateRequest{
		Text:           "I'm sad today",
		Intent:         domain.IntentEmotional,
		Attempt:        2,
		PriorRejection: domain.ReasonUnsafeContent,
		Context: ports.ConversationContext{
			Exchanges: []domain.Exchange{
				{Input: "hello", Outgoing: "hi there!"},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Here's a gentle answer." {
		t.Errorf("got %q", got)
	}

	// The retry feedback and context window travel on the wire.
	if received.Attempt != 2 {
		t.Errorf("expected attempt 2, got %d", received.Attempt)
	}
	if received.PriorRejection != string(domain.ReasonUnsafeContent) {
		t.Errorf("expected prior rejection on the wire, got %q", received.PriorRejection)
	}
	if len(received.Context) != 1 || received.Context[0].Input != "hello" {
		t.Errorf("expected context exchange on the wire, got %+v", received.Context)
	}
}

func TestRemote_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	remote := NewRemote("academic-remote", srv.URL)

	_, err := remote.Generate(context.Background(), ports.GenerateRequest{Text: "hi", Attempt: 1})
	var failed *domain.GenerationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected GenerationFailedError, got %T: %v", err, err)
	}
	if failed.Responder != "academic-remote" {
		t.Errorf("failure should name the responder, got %q", failed.Responder)
	}
}

func TestRemote_Generate_EmptyCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer srv.Close()

	remote := NewRemote("academic-remote", srv.URL)

	_, err := remote.Generate(context.Background(), ports.GenerateRequest{Text: "hi", Attempt: 1})
	var failed *domain.GenerationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected GenerationFailedError on empty candidate, got %T: %v", err, err)
	}
}

func TestRemote_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	remote := NewRemote("academic-remote", srv.URL, WithTimeoutBudget(20*time.Millisecond))

	_, err := remote.Generate(context.Background(), ports.GenerateRequest{Text: "hi", Attempt: 1})
	var timeout *domain.GenerationTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected GenerationTimeoutError, got %T: %v", err, err)
	}
	if timeout.Budget != 20*time.Millisecond {
		t.Errorf("timeout should carry the budget, got %v", timeout.Budget)
	}
}

func TestRemote_Generate_Replay(t *testing.T) {
	r := testutil.NewVCRRecorder(t, "remote_generate")

	remote := NewRemote("emotional-remote", "http://model.internal:8001",
		WithHTTPClient(testutil.VCRHTTPClient(r)))

	got, err := remote.Generate(context.Background(), ports.GenerateRequest{
		Text:    "I'm sad today",
		Intent:  domain.IntentEmotional,
		Attempt: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "" {
		t.Error("expected a recorded candidate")
	}
}
