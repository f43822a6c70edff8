package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/joss/domem/internal/memory"
	domstrings "github.com/joss/domem/internal/strings"
)

// Renderer formats memory records for the terminal.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

func (r *Renderer) title(sb *strings.Builder, title string, width int) {
	if r.pretty {
		sb.WriteString(color.CyanString(title) + "\n")
		sb.WriteString(strings.Repeat("─", width) + "\n")
	} else {
		sb.WriteString(title + "\n")
	}
}

// Sessions formats a list of sessions.
func (r *Renderer) Sessions(sessions []memory.Session) string {
	if len(sessions) == 0 {
		return "No sessions found"
	}

	var sb strings.Builder
	r.title(&sb, "Sessions", 60)

	for _, s := range sessions {
		end := "ongoing"
		if s.EndedAt != nil {
			end = FormatTime(*s.EndedAt)
		}
		user := s.UserName
		if user == "" {
			user = "-"
		}
		if r.pretty {
			state := color.GreenString("●")
			if s.Ended() {
				state = color.HiBlackString("○")
			}
			fmt.Fprintf(&sb, "%s %s %s → %s  %s  %s\n",
				state, s.ID, color.HiBlackString(FormatTime(s.StartedAt)), end, user, s.ProjectPath)
		} else {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t%s\n", s.ID, FormatTime(s.StartedAt), end, user, s.ProjectPath)
		}
	}

	return sb.String()
}

// Session formats one session in detail.
func (r *Renderer) Session(s *memory.Session) string {
	if s == nil {
		return "Session not found"
	}

	var sb strings.Builder
	r.title(&sb, "Session "+s.ID, 40)

	end := "ongoing"
	if s.EndedAt != nil {
		end = FormatTime(*s.EndedAt)
	}
	fmt.Fprintf(&sb, "  Project:  %s\n", s.ProjectPath)
	fmt.Fprintf(&sb, "  User:     %s\n", s.UserName)
	fmt.Fprintf(&sb, "  Started:  %s\n", FormatTime(s.StartedAt))
	fmt.Fprintf(&sb, "  Ended:    %s\n", end)
	fmt.Fprintf(&sb, "  Archived: %s\n", BoolIcon(s.Archived))
	return sb.String()
}

// Observations formats observations, newest first as given.
func (r *Renderer) Observations(obs []memory.Observation) string {
	if len(obs) == 0 {
		return "No observations found"
	}

	var sb strings.Builder
	r.title(&sb, "Observations", 60)

	for _, o := range obs {
		ref := ""
		switch {
		case o.FilePath != "":
			ref = " (" + o.FilePath + ")"
		case o.AgentName != "":
			ref = " (agent: " + o.AgentName + ")"
		}
		who := ""
		if o.UserName != "" {
			who = " " + o.UserName
		}
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s%s [%s] %s%s\n",
				color.HiBlackString(FormatTime(o.CreatedAt)),
				color.HiBlackString(fmt.Sprintf("#%d", o.ID)),
				who,
				color.YellowString(o.Type),
				domstrings.Truncate(o.Content, 100),
				color.HiBlackString(ref))
		} else {
			fmt.Fprintf(&sb, "[%s] #%d%s [%s] %s%s\n",
				FormatTime(o.CreatedAt), o.ID, who, o.Type, o.Content, ref)
		}
	}

	return sb.String()
}

// Summaries formats session summaries.
func (r *Renderer) Summaries(sums []memory.Summary) string {
	if len(sums) == 0 {
		return "No summaries found"
	}

	var sb strings.Builder
	r.title(&sb, "Summaries", 60)

	for _, s := range sums {
		head := fmt.Sprintf("#%d %s %s", s.ID, s.SessionID, FormatTime(s.CreatedAt))
		if s.UserName != "" {
			head += " by " + s.UserName
		}
		if r.pretty {
			head = color.HiBlackString(head)
		}
		sb.WriteString(head + "\n")
		fmt.Fprintf(&sb, "  Request:       %s\n", s.Request)
		fmt.Fprintf(&sb, "  Investigation: %s\n", s.Investigation)
		fmt.Fprintf(&sb, "  Result:        %s\n", s.Result)
	}

	return sb.String()
}

// Plans formats a plan listing.
func (r *Renderer) Plans(plans []memory.Plan) string {
	if len(plans) == 0 {
		return "No plans found"
	}

	var sb strings.Builder
	r.title(&sb, "Plans", 60)

	for _, p := range plans {
		status := StatusIcon(p.Status) + " " + p.Status
		if r.pretty {
			switch p.Status {
			case memory.PlanApproved:
				status = color.YellowString(status)
			case memory.PlanCompleted:
				status = color.GreenString(status)
			}
		}
		fmt.Fprintf(&sb, "#%d %-12s %s  %s\n", p.ID, status, p.Title, FormatTime(p.UpdatedAt))
	}

	return sb.String()
}

// Plan formats one plan with its content.
func (r *Renderer) Plan(p *memory.Plan) string {
	if p == nil {
		return "Plan not found"
	}

	var sb strings.Builder
	r.title(&sb, fmt.Sprintf("Plan #%d: %s", p.ID, p.Title), 40)
	fmt.Fprintf(&sb, "  Status:  %s %s\n", StatusIcon(p.Status), p.Status)
	fmt.Fprintf(&sb, "  Session: %s\n", p.SessionID)
	if p.FilePath != "" {
		fmt.Fprintf(&sb, "  File:    %s\n", p.FilePath)
	}
	fmt.Fprintf(&sb, "  Created: %s\n", FormatTime(p.CreatedAt))
	fmt.Fprintf(&sb, "  Updated: %s\n", FormatTime(p.UpdatedAt))
	if p.Content != "" {
		sb.WriteString("\n" + p.Content + "\n")
	}
	return sb.String()
}

// Activity formats per-user team activity.
func (r *Renderer) Activity(act []memory.TeamActivity, days int) string {
	if len(act) == 0 {
		return fmt.Sprintf("No team activity in the last %d days", days)
	}

	var sb strings.Builder
	r.title(&sb, fmt.Sprintf("Team Activity (last %d days)", days), 40)

	for _, a := range act {
		name := a.UserName
		if r.pretty {
			name = color.CyanString(name)
		}
		fmt.Fprintf(&sb, "  %s: %d sessions, %d observations\n", name, a.SessionCount, a.ObservationCount)
	}
	return sb.String()
}

// Status formats the storage status.
func (r *Renderer) Status(backend, location string, version, latest int) string {
	var sb strings.Builder

	if r.pretty {
		r.title(&sb, "Memory Status", 40)
		fmt.Fprintf(&sb, "  Backend:  %s\n", backend)
		fmt.Fprintf(&sb, "  Location: %s\n", location)
		schema := color.GreenString("v%d", version)
		if version < latest {
			schema = color.YellowString("v%d (v%d available)", version, latest)
		}
		fmt.Fprintf(&sb, "  Schema:   %s\n", schema)
	} else {
		fmt.Fprintf(&sb, "backend=%s location=%s schema=%d latest=%d\n", backend, location, version, latest)
	}

	return sb.String()
}
