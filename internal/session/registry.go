// Package session provides per-session concurrency control for turn
// processing: a registry of session records and the mutual-exclusion lease
// that serializes turns within a session while leaving independent sessions
// free to make progress.
package session

import (
	"sync"
	"time"

	"github.com/brightling/companiond/internal/core/domain"
)

// Registry tracks live session records and their locks. Sessions are created
// on first utterance and never deleted by the core; archival belongs to an
// external collaborator.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	// turnMu serializes turn processing for one session. Acquired at ROUTING
	// entry and held until FINALIZED, so a second caller blocks rather than
	// interleaving state machines over the same history.
	turnMu sync.Mutex

	// mu guards the record fields below; turnMu holders mutate them too, but
	// read-only observers (stats) must not have to wait out a model call.
	mu     sync.Mutex
	record domain.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Lease is exclusive ownership of one session's turn processing. Release
// must be called exactly once, when the turn reaches FINALIZED or aborts.
type Lease struct {
	// Session is a snapshot of the record at acquisition time.
	Session domain.Session

	// Seq is the sequence number assigned to this turn.
	Seq int64

	entry    *entry
	registry *Registry
	released bool
}

// Acquire blocks until the session's in-flight turn (if any) finalizes, then
// assigns the next turn sequence number. The session record is created on
// first use.
func (r *Registry) Acquire(sessionID, userID string) *Lease {
	e := r.ensure(sessionID, userID)

	e.turnMu.Lock()

	e.mu.Lock()
	seq := e.record.NextSeq
	e.record.NextSeq++
	e.record.LastActiveAt = r.now()
	snapshot := e.record
	e.mu.Unlock()

	return &Lease{Session: snapshot, Seq: seq, entry: e, registry: r}
}

// Release ends the lease. Safe to call only once.
func (l *Lease) Release() {
	if l.released {
		return
	}
	l.released = true
	l.entry.turnMu.Unlock()
}

func (r *Registry) ensure(sessionID, userID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[sessionID]; ok {
		return e
	}
	e := &entry{
		record: domain.Session{
			ID:           sessionID,
			UserID:       userID,
			NextSeq:      1,
			CreatedAt:    r.now(),
			LastActiveAt: r.now(),
		},
	}
	r.sessions[sessionID] = e
	return e
}

// Snapshot returns a copy of the session record, or false if the session has
// never spoken.
func (r *Registry) Snapshot(sessionID string) (domain.Session, bool) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return domain.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record, true
}

// Len reports how many sessions the registry has seen.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
