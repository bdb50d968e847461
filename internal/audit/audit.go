// Package audit persists a per-workspace trail of tool dispatches, gate
// verdicts, and approval decisions to sqlite. The trail is observability
// only: in-memory state (undo records, pending approvals) is never restored
// from it.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"codebox/internal/logging"
)

// Entry is one audited event.
type Entry struct {
	ID         int64
	SessionID  string
	Timestamp  time.Time
	Event      string // dispatch | gate | approval
	ToolName   string
	Detail     string // command text, gate reason, or decision
	Success    bool
	DurationMs int64
}

// Event kinds.
const (
	EventDispatch = "dispatch"
	EventGate     = "gate"
	EventApproval = "approval"
)

// Store manages the audit database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewStore creates or opens the audit store under the workspace state dir.
func NewStore(stateDir string) (*Store, error) {
	dbPath := filepath.Join(stateDir, "audit.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		event TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		detail TEXT,
		success INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_log(session_id);
	CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_log(event);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one entry. Audit failures are logged, never propagated:
// a broken trail must not fail the tool call it describes.
func (s *Store) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO audit_log (session_id, timestamp, event, tool_name, detail, success, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Timestamp, e.Event, e.ToolName, e.Detail, boolToInt(e.Success), e.DurationMs,
	)
	if err != nil {
		logging.AuditError("failed to record audit entry: %v", err)
	}
}

// RecentBySession returns up to limit entries for a session, newest first.
func (s *Store) RecentBySession(sessionID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, session_id, timestamp, event, tool_name, detail, success, duration_ms
		 FROM audit_log WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var success int
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.Event, &e.ToolName, &e.Detail, &success, &e.DurationMs); err != nil {
			return nil, err
		}
		e.Success = success != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByEvent returns how many entries of one event kind exist.
func (s *Store) CountByEvent(event string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_log WHERE event = ?`, event).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
