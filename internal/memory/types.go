package memory

import (
	"github.com/joss/domem/internal/db"
)

// Session is one development session of an agent in a project.
type Session struct {
	ID          string `json:"id"`
	ProjectPath string `json:"project_path"`
	UserName    string `json:"user_name,omitempty"`
	StartedAt   int64  `json:"started_at"`
	EndedAt     *int64 `json:"ended_at"`
	Archived    bool   `json:"archived"`
}

// Ended reports whether the session has an end timestamp.
func (s Session) Ended() bool {
	return s.EndedAt != nil
}

// Observation types used by the hooks. The vocabulary is open.
const (
	ObsDecision     = "decision"
	ObsBugfix       = "bugfix"
	ObsFeature      = "feature"
	ObsDelegation   = "delegation"
	ObsConversation = "conversation"
)

// Observation is an immutable record of tool use within a session.
// FilePath and AgentName are independent: delegations name the agent,
// most other types name a file.
type Observation struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	FilePath  string `json:"file_path,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	CreatedAt int64  `json:"created_at"`

	// UserName is filled by team queries only.
	UserName string `json:"user_name,omitempty"`
}

// ObservationInput holds the caller-supplied fields of a new observation.
type ObservationInput struct {
	SessionID string
	Type      string
	Content   string
	FilePath  string
	AgentName string
}

// Summary is an end-of-session report.
type Summary struct {
	ID            int64  `json:"id"`
	SessionID     string `json:"session_id"`
	Request       string `json:"request"`
	Investigation string `json:"investigation"`
	Result        string `json:"result"`
	CreatedAt     int64  `json:"created_at"`

	// UserName is filled by team queries only.
	UserName string `json:"user_name,omitempty"`
}

// Plan statuses.
const (
	PlanDraft     = "draft"
	PlanApproved  = "approved"
	PlanCompleted = "completed"
)

// PlanStatuses is the allowed status set.
var PlanStatuses = []string{PlanDraft, PlanApproved, PlanCompleted}

// Plan is a structured plan document. Only Status changes after creation.
type Plan struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	FilePath  string `json:"file_path,omitempty"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// TeamActivity counts one user's recent work on a project.
type TeamActivity struct {
	UserName         string `json:"user_name"`
	SessionCount     int    `json:"session_count"`
	ObservationCount int    `json:"observation_count"`
}

func sessionFromRow(r db.Row) Session {
	s := Session{
		ID:          r.String("id"),
		ProjectPath: r.String("project_path"),
		UserName:    r.String("user_name"),
		StartedAt:   r.Int64("started_at"),
		Archived:    r.Bool("archived"),
	}
	if v, ok := r.NullInt64("ended_at"); ok {
		s.EndedAt = &v
	}
	return s
}

func observationFromRow(r db.Row) Observation {
	return Observation{
		ID:        r.Int64("id"),
		SessionID: r.String("session_id"),
		Type:      r.String("type"),
		Content:   r.String("content"),
		FilePath:  r.String("file_path"),
		AgentName: r.String("agent_name"),
		CreatedAt: r.Int64("created_at"),
		UserName:  r.String("user_name"),
	}
}

func summaryFromRow(r db.Row) Summary {
	return Summary{
		ID:            r.Int64("id"),
		SessionID:     r.String("session_id"),
		Request:       r.String("request"),
		Investigation: r.String("investigation"),
		Result:        r.String("result"),
		CreatedAt:     r.Int64("created_at"),
		UserName:      r.String("user_name"),
	}
}

func planFromRow(r db.Row) Plan {
	return Plan{
		ID:        r.Int64("id"),
		SessionID: r.String("session_id"),
		Title:     r.String("title"),
		FilePath:  r.String("file_path"),
		Content:   r.String("content"),
		Status:    r.String("status"),
		CreatedAt: r.Int64("created_at"),
		UpdatedAt: r.Int64("updated_at"),
	}
}

func mapRows[T any](rows []db.Row, fn func(db.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}
