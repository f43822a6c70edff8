package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joss/domem/internal/db"
)

const observationColumns = "id, session_id, type, content, file_path, agent_name, created_at"

// AddObservation records an observation and returns its id.
func (s *Store) AddObservation(ctx context.Context, in ObservationInput) (int64, error) {
	if in.SessionID == "" {
		return 0, fmt.Errorf("observation needs a session id")
	}

	res, err := s.db.Execute(ctx, s.sql(`
		INSERT INTO observations (session_id, type, content, file_path, agent_name, created_at)
		VALUES (%[1]s, %[1]s, %[1]s, %[1]s, %[1]s, %[1]s)`),
		in.SessionID, in.Type, in.Content, nullIfEmpty(in.FilePath), nullIfEmpty(in.AgentName), s.unix())
	if err != nil {
		return 0, fmt.Errorf("add observation: %w", err)
	}
	return s.insertID(res), nil
}

// GetObservations lists observations newest first. Empty sessionID or
// obsType means no filter on that column.
func (s *Store) GetObservations(ctx context.Context, sessionID, obsType string) ([]Observation, error) {
	var (
		where []string
		args  []any
	)
	if sessionID != "" {
		where = append(where, "session_id = %[1]s")
		args = append(args, sessionID)
	}
	if obsType != "" {
		where = append(where, "type = %[1]s")
		args = append(args, obsType)
	}

	query := "SELECT " + observationColumns + " FROM observations"
	if len(where) > 0 {
		query = s.sql(query + " WHERE " + strings.Join(where, " AND "))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get observations: %w", err)
	}
	return mapRows(rows, observationFromRow), nil
}

// SearchObservations runs a relevance-ranked full-text search. A blank
// query matches nothing.
func (s *Store) SearchObservations(ctx context.Context, query string) ([]Observation, error) {
	if strings.TrimSpace(query) == "" {
		return []Observation{}, nil
	}

	var (
		rows []db.Row
		err  error
	)
	if s.db.SupportsNativeFullText() {
		fts, ok := s.db.(db.FullTextSearcher)
		if !ok {
			return nil, errNoSearcher(s.db)
		}
		rows, err = fts.SearchObservations(ctx, query, SearchLimit)
	} else if utf8.RuneCountInString(query) < minTrigram {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT id, session_id, type, content, file_path, agent_name, created_at
			FROM observations
			WHERE content LIKE %[1]s ESCAPE '\'
			ORDER BY created_at DESC, id DESC
			LIMIT %[1]s`), likePattern(query), SearchLimit)
	} else {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT o.id, o.session_id, o.type, o.content, o.file_path, o.agent_name, o.created_at
			FROM observations_fts
			JOIN observations o ON observations_fts.rowid = o.id
			WHERE observations_fts MATCH %[1]s
			ORDER BY rank
			LIMIT %[1]s`), phraseQuery(query), SearchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search observations: %w", err)
	}
	return mapRows(rows, observationFromRow), nil
}

// GetTeamObservations lists recent observations on a project across all
// users, each carrying its session's user name.
func (s *Store) GetTeamObservations(ctx context.Context, projectPath string, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.FetchAll(ctx, s.sql(`
		SELECT o.id, o.session_id, o.type, o.content, o.file_path, o.agent_name, o.created_at,
		       s.user_name
		FROM observations o
		JOIN sessions s ON o.session_id = s.id
		WHERE s.project_path = %[1]s AND s.archived = 0
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT %[1]s`), projectPath, limit)
	if err != nil {
		return nil, fmt.Errorf("team observations: %w", err)
	}
	return mapRows(rows, observationFromRow), nil
}

// minTrigram is the shortest query the trigram index can answer. Shorter
// queries fall back to a LIKE scan.
const minTrigram = 3

// likePattern matches q anywhere, with LIKE wildcards in q taken literally.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// phraseQuery quotes q as a single FTS5 phrase so its operators and
// punctuation are matched literally.
func phraseQuery(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}

func errNoSearcher(a db.Adapter) error {
	return fmt.Errorf("%s adapter reports native full-text search but does not implement it", a.Backend())
}
