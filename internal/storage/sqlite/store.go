// Package sqlite implements storage.Store on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/storage"
)

// Store persists exchanges and safety audit records in SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			turn_seq INTEGER NOT NULL,
			input TEXT NOT NULL,
			outgoing TEXT NOT NULL,
			intent TEXT,
			safety TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(session_id, turn_seq)
		)`,
		`CREATE TABLE IF NOT EXISTS safety_log (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			turn_seq INTEGER NOT NULL,
			attempt_index INTEGER NOT NULL,
			event TEXT NOT NULL,
			reason TEXT,
			detail TEXT,
			candidate TEXT,
			input TEXT,
			responder TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, turn_seq)`,
		`CREATE INDEX IF NOT EXISTS idx_safety_log_session ON safety_log(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_safety_log_created ON safety_log(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// GetContext returns the most recent window exchanges for the session,
// ordered oldest first. Failures surface as *domain.ContextStoreUnavailable.
func (s *Store) GetContext(ctx context.Context, sessionID string, window int) ([]domain.Exchange, error) {
	if window <= 0 {
		return nil, nil
	}

	query := `SELECT session_id, turn_seq, input, outgoing, intent, safety, created_at
	          FROM exchanges WHERE session_id = ?
	          ORDER BY turn_seq DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, window)
	if err != nil {
		return nil, &domain.ContextStoreUnavailable{Op: "get-context", Err: err}
	}
	defer rows.Close()

	exchanges, err := scanExchanges(rows)
	if err != nil {
		return nil, &domain.ContextStoreUnavailable{Op: "get-context", Err: err}
	}

	// Reverse into chronological order.
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return exchanges, nil
}

// AppendExchange stores one finalized turn's exchange. Called exactly once
// per turn, after finalization.
func (s *Store) AppendExchange(ctx context.Context, ex domain.Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	query := `INSERT INTO exchanges (id, session_id, turn_seq, input, outgoing, intent, safety, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		"ex_"+uuid.New().String(), ex.SessionID, ex.TurnSeq, ex.Input, ex.Outgoing,
		string(ex.Intent), string(ex.Safety), ex.CreatedAt)
	if err != nil {
		return &domain.ContextStoreUnavailable{Op: "append-exchange", Err: err}
	}

	return nil
}

// Record appends one audit record to the safety log.
func (s *Store) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = "aud_" + uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `INSERT INTO safety_log (id, session_id, turn_seq, attempt_index, event, reason, detail, candidate, input, responder, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.SessionID, rec.TurnSeq, rec.AttemptIndex, string(rec.Event),
		string(rec.Reason), rec.Detail, rec.Candidate, rec.Input, rec.Responder, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// History returns the most recent limit exchanges for a session, newest first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]domain.Exchange, error) {
	query := `SELECT session_id, turn_seq, input, outgoing, intent, safety, created_at
	          FROM exchanges WHERE session_id = ?
	          ORDER BY turn_seq DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanExchanges(rows)
}

// RecentViolations returns the newest audit records, newest first.
func (s *Store) RecentViolations(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	query := `SELECT id, session_id, turn_seq, attempt_index, event, reason, detail, candidate, input, responder, created_at
	          FROM safety_log ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query safety log: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var event, reason string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.TurnSeq, &rec.AttemptIndex,
			&event, &reason, &rec.Detail, &rec.Candidate, &rec.Input, &rec.Responder, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Event = domain.AuditEvent(event)
		rec.Reason = domain.RejectionReason(reason)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Stats aggregates stored activity.
func (s *Store) Stats(ctx context.Context) (storage.Stats, error) {
	stats := storage.Stats{ByReason: make(map[string]int64)}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT session_id), COUNT(*) FROM exchanges`)
	if err := row.Scan(&stats.Sessions, &stats.Exchanges); err != nil {
		return storage.Stats{}, fmt.Errorf("failed to aggregate exchanges: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT reason, COUNT(*) FROM safety_log GROUP BY reason`)
	if err != nil {
		return storage.Stats{}, fmt.Errorf("failed to aggregate safety log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var count int64
		if err := rows.Scan(&reason, &count); err != nil {
			return storage.Stats{}, fmt.Errorf("failed to scan reason count: %w", err)
		}
		stats.ByReason[reason] = count
		stats.Violations += count
	}

	return stats, rows.Err()
}

// Search finds exchanges whose input or outgoing text contains keyword,
// newest first.
func (s *Store) Search(ctx context.Context, keyword string, limit int) ([]domain.Exchange, error) {
	pattern := "%" + keyword + "%"
	query := `SELECT session_id, turn_seq, input, outgoing, intent, safety, created_at
	          FROM exchanges
	          WHERE input LIKE ? OR outgoing LIKE ?
	          ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search exchanges: %w", err)
	}
	defer rows.Close()

	return scanExchanges(rows)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanExchanges(rows *sql.Rows) ([]domain.Exchange, error) {
	var exchanges []domain.Exchange
	for rows.Next() {
		var ex domain.Exchange
		var intent, safety string
		if err := rows.Scan(&ex.SessionID, &ex.TurnSeq, &ex.Input, &ex.Outgoing,
			&intent, &safety, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		ex.Intent = domain.Intent(intent)
		ex.Safety = domain.SafetyStatus(safety)
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}
