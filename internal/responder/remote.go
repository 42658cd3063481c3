package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// RemoteOption configures a Remote responder.
type RemoteOption func(*Remote)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		r.httpClient = client
	}
}

// WithTimeoutBudget sets the per-call generation budget reported in timeout
// errors and applied to the request context.
func WithTimeoutBudget(budget time.Duration) RemoteOption {
	return func(r *Remote) {
		r.budget = budget
	}
}

// Remote delegates generation to an HTTP model-serving endpoint. The wire
// format is a single JSON POST to {base}/v1/generate; prior rejection reasons
// travel with the request so the model can regenerate with feedback.
type Remote struct {
	name       string
	baseURL    string
	budget     time.Duration
	httpClient *http.Client
}

// NewRemote creates an HTTP-backed responder for the given intent name.
func NewRemote(name, baseURL string, opts ...RemoteOption) *Remote {
	r := &Remote{
		name:       name,
		baseURL:    baseURL,
		budget:     10 * time.Second,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remote) Name() string { return r.name }

type generateRequest struct {
	Text           string            `json:"text"`
	Intent         string            `json:"intent"`
	Attempt        int               `json:"attempt"`
	PriorRejection string            `json:"prior_rejection,omitempty"`
	Context        []contextExchange `json:"context,omitempty"`
}

type contextExchange struct {
	Input    string `json:"input"`
	Outgoing string `json:"outgoing"`
}

type generateResponse struct {
	Candidate string `json:"candidate"`
}

func (r *Remote) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	body := generateRequest{
		Text:           req.Text,
		Intent:         string(req.Intent),
		Attempt:        req.Attempt,
		PriorRejection: string(req.PriorRejection),
	}
	for _, ex := range req.Context.Exchanges {
		body.Context = append(body.Context, contextExchange{Input: ex.Input, Outgoing: ex.Outgoing})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &domain.GenerationFailedError{Responder: r.name, Err: err}
	}

	callCtx := ctx
	if r.budget > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.budget)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, r.baseURL+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &domain.GenerationFailedError{Responder: r.name, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &domain.GenerationTimeoutError{Responder: r.name, Budget: r.budget}
		}
		return "", &domain.GenerationFailedError{Responder: r.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &domain.GenerationFailedError{
			Responder: r.name,
			Err:       fmt.Errorf("model server returned %d: %s", resp.StatusCode, string(data)),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.GenerationFailedError{Responder: r.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Candidate == "" {
		return "", &domain.GenerationFailedError{Responder: r.name, Err: errors.New("model server returned empty candidate")}
	}

	return out.Candidate, nil
}
