package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joss/domem/internal/db"
)

const summaryColumns = "id, session_id, request, investigation, result, created_at"

// AddSummary records an end-of-session summary and returns its id.
func (s *Store) AddSummary(ctx context.Context, sessionID, request, investigation, result string) (int64, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("summary needs a session id")
	}

	res, err := s.db.Execute(ctx, s.sql(`
		INSERT INTO session_summaries (session_id, request, investigation, result, created_at)
		VALUES (%[1]s, %[1]s, %[1]s, %[1]s, %[1]s)`),
		sessionID, request, investigation, result, s.unix())
	if err != nil {
		return 0, fmt.Errorf("add summary: %w", err)
	}
	return s.insertID(res), nil
}

// GetSummaries lists summaries newest first, for one session or all.
func (s *Store) GetSummaries(ctx context.Context, sessionID string) ([]Summary, error) {
	var (
		rows []db.Row
		err  error
	)
	if sessionID != "" {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT `+summaryColumns+`
			FROM session_summaries
			WHERE session_id = %[1]s
			ORDER BY created_at DESC, id DESC`), sessionID)
	} else {
		rows, err = s.db.FetchAll(ctx, `
			SELECT `+summaryColumns+`
			FROM session_summaries
			ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("get summaries: %w", err)
	}
	return mapRows(rows, summaryFromRow), nil
}

// SearchSummaries runs a relevance-ranked full-text search over request,
// investigation and result. A blank query matches nothing.
func (s *Store) SearchSummaries(ctx context.Context, query string) ([]Summary, error) {
	if strings.TrimSpace(query) == "" {
		return []Summary{}, nil
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
		rows, err = fts.SearchSummaries(ctx, query, SearchLimit)
	} else if utf8.RuneCountInString(query) < minTrigram {
		pattern := likePattern(query)
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT id, session_id, request, investigation, result, created_at
			FROM session_summaries
			WHERE request LIKE %[1]s ESCAPE '\'
			   OR investigation LIKE %[1]s ESCAPE '\'
			   OR result LIKE %[1]s ESCAPE '\'
			ORDER BY created_at DESC, id DESC
			LIMIT %[1]s`), pattern, pattern, pattern, SearchLimit)
	} else {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT ss.id, ss.session_id, ss.request, ss.investigation, ss.result, ss.created_at
			FROM summaries_fts
			JOIN session_summaries ss ON summaries_fts.rowid = ss.id
			WHERE summaries_fts MATCH %[1]s
			ORDER BY rank
			LIMIT %[1]s`), phraseQuery(query), SearchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search summaries: %w", err)
	}
	return mapRows(rows, summaryFromRow), nil
}

// GetTeamSummaries lists summaries written on a project in the last days
// days, across all users.
func (s *Store) GetTeamSummaries(ctx context.Context, projectPath string, days int) ([]Summary, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := s.db.FetchAll(ctx, s.sql(`
		SELECT ss.id, ss.session_id, ss.request, ss.investigation, ss.result, ss.created_at,
		       s.user_name
		FROM session_summaries ss
		JOIN sessions s ON ss.session_id = s.id
		WHERE s.project_path = %[1]s
		  AND s.archived = 0
		  AND ss.created_at >= %[1]s
		ORDER BY ss.created_at DESC, ss.id DESC`), projectPath, s.cutoff(days))
	if err != nil {
		return nil, fmt.Errorf("team summaries: %w", err)
	}
	return mapRows(rows, summaryFromRow), nil
}
