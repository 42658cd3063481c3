// Package storage defines the combined store contract the service wires up:
// the context store and audit sink the orchestrator consumes, plus the
// read-only queries behind the admin surface.
package storage

import (
	"context"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/core/ports"
)

// Stats summarizes stored activity for the admin surface.
type Stats struct {
	Sessions   int64            `json:"sessions"`
	Exchanges  int64            `json:"exchanges"`
	Violations int64            `json:"violations"`
	ByReason   map[string]int64 `json:"by_reason"`
}

// AdminStore serves the observability endpoints. All queries are read-only.
type AdminStore interface {
	History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error)
	RecentViolations(ctx context.Context, limit int) ([]domain.AuditRecord, error)
	Stats(ctx context.Context) (Stats, error)
	Search(ctx context.Context, keyword string, limit int) ([]domain.Exchange, error)
}

// Store is the full persistence surface: context reads/appends and audit
// writes for the orchestrator, admin queries for the HTTP layer.
type Store interface {
	ports.ContextStore
	ports.AuditSink
	AdminStore
	Close() error
}
