// Package memory implements storage.Store with in-process maps. Used by
// tests and storage.type=memory deployments where persistence across restarts
// is not needed.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/storage"
)

// Store keeps exchanges and audit records in memory, keyed by session.
type Store struct {
	mu        sync.RWMutex
	exchanges map[string][]domain.Exchange
	audit     []domain.AuditRecord
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		exchanges: make(map[string][]domain.Exchange),
	}
}

func (s *Store) GetContext(ctx context.Context, sessionID string, window int) ([]domain.Exchange, error) {
	if window <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.exchanges[sessionID]
	if len(history) > window {
		history = history[len(history)-window:]
	}
	out := make([]domain.Exchange, len(history))
	copy(out, history)
	return out, nil
}

func (s *Store) AppendExchange(ctx context.Context, ex domain.Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges[ex.SessionID] = append(s.exchanges[ex.SessionID], ex)
	return nil
}

func (s *Store) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = "aud_" + uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, rec)
	return nil
}

func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.exchanges[sessionID]
	out := make([]domain.Exchange, 0, limit)
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (s *Store) RecentViolations(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditRecord, 0, limit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := storage.Stats{ByReason: make(map[string]int64)}
	stats.Sessions = int64(len(s.exchanges))
	for _, history := range s.exchanges {
		stats.Exchanges += int64(len(history))
	}
	for _, rec := range s.audit {
		stats.ByReason[string(rec.Reason)]++
		stats.Violations++
	}
	return stats, nil
}

func (s *Store) Search(ctx context.Context, keyword string, limit int) ([]domain.Exchange, error) {
	lowered := strings.ToLower(keyword)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Exchange
	for _, history := range s.exchanges {
		for _, ex := range history {
			if strings.Contains(strings.ToLower(ex.Input), lowered) ||
				strings.Contains(strings.ToLower(ex.Outgoing), lowered) {
				matches = append(matches, ex)
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) Close() error { return nil }

// AuditRecords returns a copy of everything recorded, oldest first. Test
// helper.
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditRecord, len(s.audit))
	copy(out, s.audit)
	return out
}
