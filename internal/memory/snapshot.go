package memory

import (
	"context"
	"fmt"
)

// Snapshot is every row of the four memory tables.
type Snapshot struct {
	Sessions     []Session     `json:"sessions"`
	Observations []Observation `json:"observations"`
	Summaries    []Summary     `json:"summaries"`
	Plans        []Plan        `json:"plans"`
}

// RestoreStats counts what Restore wrote and what it skipped.
type RestoreStats struct {
	Sessions     int `json:"sessions"`
	Observations int `json:"observations"`
	Summaries    int `json:"summaries"`
	Plans        int `json:"plans"`
	Skipped      int `json:"skipped"`
}

// Snapshot reads every session (archived included), observation, summary
// and plan in insertion order.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	sessions, err := s.db.FetchAll(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY started_at, id")
	if err != nil {
		return nil, fmt.Errorf("snapshot sessions: %w", err)
	}
	obs, err := s.db.FetchAll(ctx, "SELECT "+observationColumns+" FROM observations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("snapshot observations: %w", err)
	}
	sums, err := s.db.FetchAll(ctx, "SELECT "+summaryColumns+" FROM session_summaries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("snapshot summaries: %w", err)
	}
	plans, err := s.db.FetchAll(ctx, "SELECT "+planColumns+" FROM plans ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("snapshot plans: %w", err)
	}

	return &Snapshot{
		Sessions:     mapRows(sessions, sessionFromRow),
		Observations: mapRows(obs, observationFromRow),
		Summaries:    mapRows(sums, summaryFromRow),
		Plans:        mapRows(plans, planFromRow),
	}, nil
}

// Restore writes snap in one transaction.
//
// With replace, all four tables are emptied first and rows keep their ids.
// Otherwise snap is merged: sessions whose id already exists are skipped
// together with their observations, summaries and plans, and the remaining
// rows get fresh ids. Timestamps are kept either way.
func (s *Store) Restore(ctx context.Context, snap *Snapshot, replace bool) (stats RestoreStats, err error) {
	if err := s.db.Begin(ctx); err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			_ = s.db.Rollback()
		}
	}()

	skip := make(map[string]bool)
	if replace {
		// children before parents for the foreign keys
		for _, table := range []string{"observations", "session_summaries", "plans", "sessions"} {
			if _, err := s.db.Execute(ctx, "DELETE FROM "+table); err != nil {
				return stats, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	} else {
		rows, err := s.db.FetchAll(ctx, "SELECT id FROM sessions")
		if err != nil {
			return stats, fmt.Errorf("existing sessions: %w", err)
		}
		for _, r := range rows {
			skip[r.String("id")] = true
		}
	}

	for _, sess := range snap.Sessions {
		if skip[sess.ID] {
			stats.Skipped++
			continue
		}
		var ended any
		if sess.EndedAt != nil {
			ended = *sess.EndedAt
		}
		if _, err := s.db.Execute(ctx, s.sql(`
			INSERT INTO sessions (id, project_path, user_name, started_at, ended_at, archived)
			VALUES (%[1]s, %[1]s, %[1]s, %[1]s, %[1]s, %[1]s)`),
			sess.ID, sess.ProjectPath, nullIfEmpty(sess.UserName), sess.StartedAt, ended, boolInt(sess.Archived)); err != nil {
			return stats, fmt.Errorf("restore session %s: %w", sess.ID, err)
		}
		stats.Sessions++
	}

	for _, o := range snap.Observations {
		if skip[o.SessionID] {
			stats.Skipped++
			continue
		}
		cols, vals, args := withID(replace, o.ID,
			"session_id, type, content, file_path, agent_name, created_at",
			o.SessionID, o.Type, o.Content, nullIfEmpty(o.FilePath), nullIfEmpty(o.AgentName), o.CreatedAt)
		if _, err := s.db.Execute(ctx, s.insert("observations", cols, vals), args...); err != nil {
			return stats, fmt.Errorf("restore observation %d: %w", o.ID, err)
		}
		stats.Observations++
	}

	for _, sm := range snap.Summaries {
		if skip[sm.SessionID] {
			stats.Skipped++
			continue
		}
		cols, vals, args := withID(replace, sm.ID,
			"session_id, request, investigation, result, created_at",
			sm.SessionID, sm.Request, sm.Investigation, sm.Result, sm.CreatedAt)
		if _, err := s.db.Execute(ctx, s.insert("session_summaries", cols, vals), args...); err != nil {
			return stats, fmt.Errorf("restore summary %d: %w", sm.ID, err)
		}
		stats.Summaries++
	}

	for _, p := range snap.Plans {
		if skip[p.SessionID] {
			stats.Skipped++
			continue
		}
		cols, vals, args := withID(replace, p.ID,
			"session_id, title, file_path, content, status, created_at, updated_at",
			p.SessionID, p.Title, nullIfEmpty(p.FilePath), p.Content, p.Status, p.CreatedAt, p.UpdatedAt)
		if _, err := s.db.Execute(ctx, s.insert("plans", cols, vals), args...); err != nil {
			return stats, fmt.Errorf("restore plan %d: %w", p.ID, err)
		}
		stats.Plans++
	}

	if err := s.db.Commit(); err != nil {
		return stats, fmt.Errorf("commit restore: %w", err)
	}
	return stats, nil
}

// withID prepends the id column when ids are kept.
func withID(keep bool, id int64, cols string, args ...any) (string, int, []any) {
	if keep {
		return "id, " + cols, len(args) + 1, append([]any{id}, args...)
	}
	return cols, len(args), args
}

// insert builds an INSERT with n placeholders.
func (s *Store) insert(table, cols string, n int) string {
	ph := s.db.Placeholder()
	marks := ph
	for i := 1; i < n; i++ {
		marks += ", " + ph
	}
	return "INSERT INTO " + table + " (" + cols + ") VALUES (" + marks + ")"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
