package memory

import (
	"context"
	"fmt"

	"github.com/joss/domem/internal/db"
)

const sessionColumns = "id, project_path, user_name, started_at, ended_at, archived"

// CreateSession starts a session. An empty userName falls back to the
// store's default user.
func (s *Store) CreateSession(ctx context.Context, sessionID, projectPath, userName string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if userName == "" {
		userName = s.userName
	}

	_, err := s.db.Execute(ctx, s.sql(`
		INSERT INTO sessions (id, project_path, user_name, started_at, archived)
		VALUES (%[1]s, %[1]s, %[1]s, %[1]s, 0)`),
		sessionID, projectPath, nullIfEmpty(userName), s.unix())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// EndSession sets the end timestamp. Ending an already-ended (or unknown)
// session changes nothing.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.db.Execute(ctx, s.sql(`
		UPDATE sessions
		SET ended_at = %[1]s
		WHERE id = %[1]s AND ended_at IS NULL`),
		s.unix(), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// ArchiveSession marks a session archived, ending it first if needed.
// An existing end timestamp is kept.
func (s *Store) ArchiveSession(ctx context.Context, sessionID string) error {
	res, err := s.db.Execute(ctx, s.sql(`
		UPDATE sessions
		SET ended_at = COALESCE(ended_at, %[1]s), archived = 1
		WHERE id = %[1]s`),
		s.unix(), sessionID)
	if err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	if res.RowsAffected == 0 {
		return db.NewNotFoundError("session", sessionID)
	}
	return nil
}

// GetSession returns nil when the session does not exist.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	row, err := s.db.FetchOne(ctx, s.sql(`
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = %[1]s`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	sess := sessionFromRow(row)
	return &sess, nil
}

// GetRecentSessions lists non-archived sessions, newest first, optionally
// restricted to one user.
func (s *Store) GetRecentSessions(ctx context.Context, limit int, userName string) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows []db.Row
		err  error
	)
	if userName != "" {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT `+sessionColumns+`
			FROM sessions
			WHERE archived = 0 AND user_name = %[1]s
			ORDER BY started_at DESC
			LIMIT %[1]s`), userName, limit)
	} else {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT `+sessionColumns+`
			FROM sessions
			WHERE archived = 0
			ORDER BY started_at DESC
			LIMIT %[1]s`), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return mapRows(rows, sessionFromRow), nil
}

// GetTeamSessions lists non-archived sessions of every user on a project.
func (s *Store) GetTeamSessions(ctx context.Context, projectPath string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.FetchAll(ctx, s.sql(`
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE project_path = %[1]s AND archived = 0
		ORDER BY started_at DESC
		LIMIT %[1]s`), projectPath, limit)
	if err != nil {
		return nil, fmt.Errorf("team sessions: %w", err)
	}
	return mapRows(rows, sessionFromRow), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
