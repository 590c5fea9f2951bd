package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/sales-copilot/internal/memory"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Session is the stored header of one conversation
type Session struct {
	ID        string
	Title     string
	Model     string
	TurnCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// UpsertSession creates the session or updates its title, model and updated_at
func (s *SQLiteStore) UpsertSession(ctx context.Context, session Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, title, model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=CASE WHEN excluded.title = '' THEN sessions.title ELSE excluded.title END,
			model=CASE WHEN excluded.model = '' THEN sessions.model ELSE excluded.model END,
			updated_at=excluded.updated_at`,
		session.ID,
		session.Title,
		session.Model,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (Session, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT s.id, s.title, s.model, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		 FROM sessions s
		 WHERE s.id = ?`,
		id,
	)
	var session Session
	err := row.Scan(&session.ID, &session.Title, &session.Model, &session.CreatedAt, &session.UpdatedAt, &session.TurnCount)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return session, true, nil
}

// ListSessions returns sessions, most recently updated first
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT s.id, s.title, s.model, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		 FROM sessions s
		 ORDER BY s.updated_at DESC, s.id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Session, 0)
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.Title, &session.Model, &session.CreatedAt, &session.UpdatedAt, &session.TurnCount); err != nil {
			return nil, err
		}
		ret = append(ret, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// AppendTurns stores turns of an existing session in one transaction
func (s *SQLiteStore) AppendTurns(ctx context.Context, sessionID string, turns []memory.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, turn := range turns {
		invocation := ""
		if turn.Invocation != nil {
			raw, err := json.Marshal(turn.Invocation)
			if err != nil {
				return fmt.Errorf("marshal invocation of turn %s: %w", turn.ID, err)
			}
			invocation = string(raw)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO turns (id, session_id, seq, kind, text, invocation_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			turn.ID,
			sessionID,
			turn.Seq,
			string(turn.Kind),
			turn.Text,
			invocation,
			turn.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert turn %d: %w", turn.Seq, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadTurns returns the turns of a session ordered by seq
func (s *SQLiteStore) LoadTurns(ctx context.Context, sessionID string) ([]memory.Turn, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, seq, kind, text, invocation_json, created_at
		 FROM turns
		 WHERE session_id = ?
		 ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]memory.Turn, 0)
	for rows.Next() {
		var turn memory.Turn
		var kind, invocation string
		if err := rows.Scan(&turn.ID, &turn.Seq, &kind, &turn.Text, &invocation, &turn.CreatedAt); err != nil {
			return nil, err
		}
		turn.Kind = memory.Kind(kind)
		if invocation != "" {
			var inv memory.ToolInvocation
			if err := json.Unmarshal([]byte(invocation), &inv); err != nil {
				return nil, fmt.Errorf("decode invocation of turn %s: %w", turn.ID, err)
			}
			turn.Invocation = &inv
		}
		ret = append(ret, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ClearSession removes the turns of a session but keeps the session
func (s *SQLiteStore) ClearSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), sessionID)
	return err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}
