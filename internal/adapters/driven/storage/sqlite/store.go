package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TranscriptStore = (*Store)(nil)

// Store is a SQLite-backed transcript archive. It is append-only from the
// application's point of view: sessions and turns are written as they
// complete and read back only for the user's own records.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite transcript store at the specified data
// directory. If dataDir is empty, defaults to ~/.paperchat/data/transcripts.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".paperchat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "transcripts.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSession records a session's creation. Saving the same session twice
// is a no-op, so callers do not need to track whether archiving was already
// switched on.
func (s *Store) SaveSession(ctx context.Context, info domain.SessionInfo) error {
	createdAt := info.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, info.ID, createdAt)

	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// SaveTurn appends one completed turn with its cited sources.
func (s *Store) SaveTurn(
	ctx context.Context,
	sessionID string,
	turn domain.ChatTurn,
	sources []domain.SourceRef,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Archiving may have been switched on after the session was created,
	// so the session row might not exist yet.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sessionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}

	var position int
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM turns WHERE session_id = ?", sessionID)
	if err := row.Scan(&position); err != nil {
		return fmt.Errorf("getting next position: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, position, question, answer, asked_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, position, turn.Question, turn.Answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}

	turnID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting turn id: %w", err)
	}

	for _, src := range sources {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turn_sources (turn_id, source, page)
			VALUES (?, ?, ?)
		`, turnID, src.Source, src.Page); err != nil {
			return fmt.Errorf("saving turn source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListTurns returns the archived turns of a session in order.
func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question, answer
		FROM turns WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.ChatTurn
		if err := rows.Scan(&turn.Question, &turn.Answer); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// TurnSources returns the sources cited by each archived turn of a session,
// keyed by turn position. Used by the history command to show citations.
func (s *Store) TurnSources(ctx context.Context, sessionID string) (map[int][]domain.SourceRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.position, ts.source, ts.page
		FROM turn_sources ts
		JOIN turns t ON t.id = ts.turn_id
		WHERE t.session_id = ?
		ORDER BY t.position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turn sources: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]domain.SourceRef)
	for rows.Next() {
		var position int
		var ref domain.SourceRef
		if err := rows.Scan(&position, &ref.Source, &ref.Page); err != nil {
			return nil, fmt.Errorf("scanning turn source: %w", err)
		}
		result[position] = append(result[position], ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turn sources: %w", err)
	}

	return result, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_transcripts.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
