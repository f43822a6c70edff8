package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joss/domem/internal/db"
	domstrings "github.com/joss/domem/internal/strings"
	"github.com/joss/domem/internal/tokens"
)

// NoSessions is returned instead of a digest when the project has no
// sessions. It is informational, not an error.
const NoSessions = "No previous sessions found for this project."

// Disclosure levels.
const (
	LevelBrief    = 1
	LevelDetailed = 2
	LevelFull     = 3
)

// levelSpec is how much each level shows.
type levelSpec struct {
	sessions     int
	observations int // 0 means counts only
	truncate     int // rune limit for observation content, 0 means none
	summaries    int
}

var levels = map[int]levelSpec{
	LevelBrief:    {sessions: 3},
	LevelDetailed: {sessions: 3, observations: 5, truncate: 100},
	LevelFull:     {sessions: 10, observations: 20, summaries: 5},
}

// Digest is a rendered context summary.
type Digest struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// ClampLevel maps any level onto LevelBrief..LevelFull.
func ClampLevel(level int) int {
	if level < LevelBrief {
		return LevelBrief
	}
	if level > LevelFull {
		return LevelFull
	}
	return level
}

// GetContextSummary renders prior work on a project for session restore.
// See ContextDigest.
func (s *Store) GetContextSummary(ctx context.Context, projectPath, userName string, level int) (string, error) {
	d, err := s.ContextDigest(ctx, projectPath, userName, level)
	if err != nil {
		return "", err
	}
	return d.Text, nil
}

// ContextDigest renders the most recent non-archived sessions of a project,
// newest first, optionally for one user only. Higher levels include more
// sessions and more detail per session; level 3 with a user also appends
// what the rest of the team did in the last week.
func (s *Store) ContextDigest(ctx context.Context, projectPath, userName string, level int) (Digest, error) {
	level = ClampLevel(level)
	spec := levels[level]

	sessions, err := s.projectSessions(ctx, projectPath, userName, spec.sessions)
	if err != nil {
		return Digest{}, err
	}
	if len(sessions) == 0 {
		return s.digest(level, NoSessions), nil
	}

	lines := []string{"## Recent Sessions"}
	for _, sess := range sessions {
		header := "\n### Session: " + domstrings.Prefix(sess.ID, 8) + "..."
		if sess.UserName != "" {
			header += " by " + sess.UserName
		}
		lines = append(lines, header, "Time: "+timeWindow(sess))

		if spec.observations == 0 {
			counts, err := s.sessionCounts(ctx, sess.ID)
			if err != nil {
				return Digest{}, err
			}
			lines = append(lines, counts)
			continue
		}

		obs, err := s.recentObservations(ctx, sess.ID, spec.observations)
		if err != nil {
			return Digest{}, err
		}
		if len(obs) > 0 {
			lines = append(lines, "\nObservations:")
			for _, o := range obs {
				lines = append(lines, observationLine(o, spec.truncate))
			}
		}

		if spec.summaries > 0 {
			sums, err := s.recentSummaries(ctx, sess.ID, spec.summaries)
			if err != nil {
				return Digest{}, err
			}
			if len(sums) > 0 {
				lines = append(lines, "\nSummaries:")
				for _, sm := range sums {
					lines = append(lines,
						"- Request: "+sm.Request,
						"  Investigation: "+sm.Investigation,
						"  Result: "+sm.Result)
				}
			}
		}
	}

	if level >= LevelFull && userName != "" {
		team, err := s.GetTeamContext(ctx, projectPath, userName)
		if err != nil {
			return Digest{}, err
		}
		if team != "" {
			lines = append(lines, "\n"+team)
		}
	}

	return s.digest(level, strings.Join(lines, "\n")), nil
}

func (s *Store) digest(level int, text string) Digest {
	return Digest{Level: level, Text: text, Tokens: tokens.Count(text)}
}

func (s *Store) projectSessions(ctx context.Context, projectPath, userName string, limit int) ([]Session, error) {
	var (
		rows []db.Row
		err  error
	)
	if userName != "" {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT `+sessionColumns+`
			FROM sessions
			WHERE project_path = %[1]s AND archived = 0 AND user_name = %[1]s
			ORDER BY started_at DESC
			LIMIT %[1]s`), projectPath, userName, limit)
	} else {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT `+sessionColumns+`
			FROM sessions
			WHERE project_path = %[1]s AND archived = 0
			ORDER BY started_at DESC
			LIMIT %[1]s`), projectPath, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("context sessions: %w", err)
	}
	return mapRows(rows, sessionFromRow), nil
}

func (s *Store) sessionCounts(ctx context.Context, sessionID string) (string, error) {
	sums, err := s.db.FetchOne(ctx, s.sql(
		"SELECT COUNT(*) AS cnt FROM session_summaries WHERE session_id = %[1]s"), sessionID)
	if err != nil {
		return "", fmt.Errorf("count summaries: %w", err)
	}
	obs, err := s.db.FetchOne(ctx, s.sql(
		"SELECT COUNT(*) AS cnt FROM observations WHERE session_id = %[1]s"), sessionID)
	if err != nil {
		return "", fmt.Errorf("count observations: %w", err)
	}
	return fmt.Sprintf("Summaries: %d, Observations: %d", sums.Int64("cnt"), obs.Int64("cnt")), nil
}

func (s *Store) recentObservations(ctx context.Context, sessionID string, limit int) ([]Observation, error) {
	rows, err := s.db.FetchAll(ctx, s.sql(`
		SELECT `+observationColumns+`
		FROM observations
		WHERE session_id = %[1]s
		ORDER BY created_at DESC, id DESC
		LIMIT %[1]s`), sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("context observations: %w", err)
	}
	return mapRows(rows, observationFromRow), nil
}

func (s *Store) recentSummaries(ctx context.Context, sessionID string, limit int) ([]Summary, error) {
	rows, err := s.db.FetchAll(ctx, s.sql(`
		SELECT `+summaryColumns+`
		FROM session_summaries
		WHERE session_id = %[1]s
		ORDER BY created_at DESC, id DESC
		LIMIT %[1]s`), sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("context summaries: %w", err)
	}
	return mapRows(rows, summaryFromRow), nil
}

// observationLine renders "- [type] content (file)". Delegations show the
// agent instead of a file. max > 0 truncates content to max runes.
func observationLine(o Observation, max int) string {
	content := o.Content
	if max > 0 {
		content = domstrings.Clip(content, max)
	}
	line := "- [" + o.Type + "] " + content
	switch {
	case o.FilePath != "":
		line += " (" + o.FilePath + ")"
	case o.AgentName != "":
		line += " (agent: " + o.AgentName + ")"
	}
	return line
}

func timeWindow(sess Session) string {
	start := time.Unix(sess.StartedAt, 0).Local().Format("2006-01-02 15:04")
	end := "ongoing"
	if sess.EndedAt != nil {
		end = time.Unix(*sess.EndedAt, 0).Local().Format("15:04")
	}
	return start + " - " + end
}
