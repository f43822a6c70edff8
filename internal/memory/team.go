package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joss/domem/internal/db"
)

const (
	teamWindowDays   = 7
	teamContextLimit = 20
	teamPerUser      = 5
	teamContentRunes = 80
)

func (s *Store) cutoff(days int) int64 {
	return s.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
}

// GetTeamActivity counts sessions and observations per user on a project
// for sessions started within the last days days. Sessions without a user
// are not counted.
func (s *Store) GetTeamActivity(ctx context.Context, projectPath string, days int) ([]TeamActivity, error) {
	if days <= 0 {
		days = teamWindowDays
	}
	rows, err := s.db.FetchAll(ctx, s.sql(`
		SELECT
			s.user_name,
			COUNT(DISTINCT s.id) AS session_count,
			COUNT(o.id) AS observation_count
		FROM sessions s
		LEFT JOIN observations o ON s.id = o.session_id
		WHERE s.project_path = %[1]s
		  AND s.started_at >= %[1]s
		  AND s.user_name IS NOT NULL
		  AND s.user_name != ''
		GROUP BY s.user_name
		ORDER BY session_count DESC, s.user_name`), projectPath, s.cutoff(days))
	if err != nil {
		return nil, fmt.Errorf("team activity: %w", err)
	}
	return mapRows(rows, func(r db.Row) TeamActivity {
		return TeamActivity{
			UserName:         r.String("user_name"),
			SessionCount:     r.Int("session_count"),
			ObservationCount: r.Int("observation_count"),
		}
	}), nil
}

// GetTeamContext renders what other users did on a project in the last
// week: the newest observations grouped by user, a few per user. It
// returns "" when there is nothing to show.
func (s *Store) GetTeamContext(ctx context.Context, projectPath, excludeUser string) (string, error) {
	query := `
		SELECT o.type, o.content, o.file_path, o.agent_name, o.created_at, s.user_name
		FROM observations o
		JOIN sessions s ON o.session_id = s.id
		WHERE s.project_path = %[1]s
		  AND s.archived = 0
		  AND s.user_name IS NOT NULL
		  AND s.user_name != ''
		  %[2]s
		  AND o.created_at >= %[1]s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT %[3]d`

	ph := s.db.Placeholder()
	args := []any{projectPath}
	exclude := ""
	if excludeUser != "" {
		exclude = "AND s.user_name != " + ph
		args = append(args, excludeUser)
	}
	args = append(args, s.cutoff(teamWindowDays))

	rows, err := s.db.FetchAll(ctx, fmt.Sprintf(query, ph, exclude, teamContextLimit), args...)
	if err != nil {
		return "", fmt.Errorf("team context: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	// group by user in order of first appearance
	var users []string
	byUser := make(map[string][]Observation)
	for _, r := range rows {
		o := observationFromRow(r)
		if _, seen := byUser[o.UserName]; !seen {
			users = append(users, o.UserName)
		}
		byUser[o.UserName] = append(byUser[o.UserName], o)
	}

	lines := []string{"## Team Activity (Last 7 Days)"}
	for _, u := range users {
		lines = append(lines, "\n### "+u)
		obs := byUser[u]
		if len(obs) > teamPerUser {
			obs = obs[:teamPerUser]
		}
		for _, o := range obs {
			lines = append(lines, observationLine(o, teamContentRunes))
		}
	}
	return strings.Join(lines, "\n"), nil
}
