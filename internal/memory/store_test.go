package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/db/sqlite"
)

// clock advances one second per reading so every write gets a distinct,
// increasing timestamp.
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	a := sqlite.New(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, a.RunMigrations(context.Background()))
	t.Cleanup(func() { _ = a.Close() })

	opts = append([]Option{WithClock(newClock().now)}, opts...)
	return New(a, opts...)
}

func TestScenarioObservationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))
	id, err := s.AddObservation(ctx, ObservationInput{SessionID: "s1", Type: "feature", Content: "added login page"})
	require.NoError(t, err)
	assert.Positive(t, id)

	obs, err := s.GetObservations(ctx, "s1", "")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, id, obs[0].ID)
	assert.Equal(t, "added login page", obs[0].Content)
	assert.Equal(t, "feature", obs[0].Type)
	assert.Empty(t, obs[0].FilePath)
}

func TestScenarioPlanApproval(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))

	id, err := s.CreatePlan(ctx, "s1", "Auth Plan", ".do/plans/auth.md", "# Auth")
	require.NoError(t, err)

	p, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, PlanDraft, p.Status)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	require.NoError(t, s.UpdatePlanStatus(ctx, id, PlanApproved))

	p, err = s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PlanApproved, p.Status)
	assert.Greater(t, p.UpdatedAt, p.CreatedAt)
}

func TestPlanStatusChangesWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return frozen }))
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))

	id, err := s.CreatePlan(ctx, "s1", "Auth Plan", "", "# Auth")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePlanStatus(ctx, id, PlanApproved))
	approved, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, frozen.Unix(), approved.CreatedAt)
	assert.Greater(t, approved.UpdatedAt, approved.CreatedAt)

	require.NoError(t, s.UpdatePlanStatus(ctx, id, PlanCompleted))
	completed, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PlanCompleted, completed.Status)
	assert.Greater(t, completed.UpdatedAt, approved.UpdatedAt)
}

func TestScenarioTeamObservations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, "sa", "/team", "alice"))
	require.NoError(t, s.CreateSession(ctx, "sb", "/team", "bob"))
	require.NoError(t, s.CreateSession(ctx, "sx", "/other", "carol"))
	_, err := s.AddObservation(ctx, ObservationInput{SessionID: "sa", Type: "feature", Content: "alice work"})
	require.NoError(t, err)
	_, err = s.AddObservation(ctx, ObservationInput{SessionID: "sb", Type: "bugfix", Content: "bob work"})
	require.NoError(t, err)
	_, err = s.AddObservation(ctx, ObservationInput{SessionID: "sx", Type: "bugfix", Content: "elsewhere"})
	require.NoError(t, err)

	obs, err := s.GetTeamObservations(ctx, "/team", 0)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	byUser := map[string]string{}
	for _, o := range obs {
		byUser[o.UserName] = o.Content
	}
	assert.Equal(t, map[string]string{"alice": "alice work", "bob": "bob work"}, byUser)
	assert.Equal(t, "bob", obs[0].UserName, "newest first")
}

func TestEndSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))

	require.NoError(t, s.EndSession(ctx, "s1"))
	first, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.True(t, first.Ended())

	require.NoError(t, s.EndSession(ctx, "s1"))
	second, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, *first.EndedAt, *second.EndedAt)

	// unknown sessions are a no-op, not an error
	assert.NoError(t, s.EndSession(ctx, "missing"))
}

func TestArchiveSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "open", "/p", ""))
	require.NoError(t, s.CreateSession(ctx, "ended", "/p", ""))
	require.NoError(t, s.EndSession(ctx, "ended"))
	ended, err := s.GetSession(ctx, "ended")
	require.NoError(t, err)

	require.NoError(t, s.ArchiveSession(ctx, "open"))
	require.NoError(t, s.ArchiveSession(ctx, "ended"))

	open, err := s.GetSession(ctx, "open")
	require.NoError(t, err)
	assert.True(t, open.Archived)
	assert.True(t, open.Ended())

	again, err := s.GetSession(ctx, "ended")
	require.NoError(t, err)
	assert.True(t, again.Archived)
	assert.Equal(t, *ended.EndedAt, *again.EndedAt, "archive never moves an existing end time")

	err = s.ArchiveSession(ctx, "missing")
	assert.True(t, db.IsNotFound(err))

	recent, err := s.GetRecentSessions(ctx, 10, "")
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestGetSessionMissing(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.GetSession(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCreateSessionDefaultUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithUserName("dana"))

	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))
	require.NoError(t, s.CreateSession(ctx, "s2", "/p", "erin"))

	s1, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "dana", s1.UserName)
	assert.False(t, s1.Archived)

	s2, err := s.GetSession(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "erin", s2.UserName)
}

func TestGetRecentSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "a1", "/p", "alice"))
	require.NoError(t, s.CreateSession(ctx, "b1", "/q", "bob"))
	require.NoError(t, s.CreateSession(ctx, "a2", "/q", "alice"))

	all, err := s.GetRecentSessions(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a2", all[0].ID)
	assert.Equal(t, "a1", all[2].ID)

	alice, err := s.GetRecentSessions(ctx, 1, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "a2", alice[0].ID)

	team, err := s.GetTeamSessions(ctx, "/q", 0)
	require.NoError(t, err)
	assert.Len(t, team, 2)
}

func TestObservationFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))
	require.NoError(t, s.CreateSession(ctx, "s2", "/p", ""))

	add := func(sid, typ, content string) {
		_, err := s.AddObservation(ctx, ObservationInput{SessionID: sid, Type: typ, Content: content})
		require.NoError(t, err)
	}
	add("s1", "feature", "one")
	add("s1", "bugfix", "two")
	add("s2", "feature", "three")

	all, err := s.GetObservations(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "three", all[0].Content)

	features, err := s.GetObservations(ctx, "", "feature")
	require.NoError(t, err)
	assert.Len(t, features, 2)

	s1Bugs, err := s.GetObservations(ctx, "s1", "bugfix")
	require.NoError(t, err)
	require.Len(t, s1Bugs, 1)
	assert.Equal(t, "two", s1Bugs[0].Content)
}

func TestObservationRequiresExistingSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddObservation(context.Background(), ObservationInput{SessionID: "ghost", Type: "feature", Content: "x"})
	assert.Error(t, err)

	_, err = s.AddObservation(context.Background(), ObservationInput{Type: "feature"})
	assert.ErrorContains(t, err, "session id")
}

func TestDelegationKeepsAgentSeparate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))

	_, err := s.AddObservation(ctx, ObservationInput{
		SessionID: "s1", Type: ObsDelegation, Content: "auth endpoints", AgentName: "expert-backend",
	})
	require.NoError(t, err)

	obs, err := s.GetObservations(ctx, "s1", ObsDelegation)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "expert-backend", obs[0].AgentName)
	assert.Empty(t, obs[0].FilePath)
}

func TestSearchObservations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))

	login, err := s.AddObservation(ctx, ObservationInput{SessionID: "s1", Type: "feature", Content: "added login page"})
	require.NoError(t, err)
	_, err = s.AddObservation(ctx, ObservationInput{SessionID: "s1", Type: "bugfix", Content: "fixed cache eviction"})
	require.NoError(t, err)

	for _, q := range []string{"login", "added login", "login page", "ogin", "login pa", "d login", "LOGIN", "gi"} {
		res, err := s.SearchObservations(ctx, q)
		require.NoError(t, err, q)
		require.Len(t, res, 1, q)
		assert.Equal(t, login, res[0].ID, q)
	}

	// the type tag is not indexed
	res, err := s.SearchObservations(ctx, "feature")
	require.NoError(t, err)
	assert.Empty(t, res)

	// LIKE wildcards in short queries are literal
	for _, q := range []string{"%", "_"} {
		res, err := s.SearchObservations(ctx, q)
		require.NoError(t, err, q)
		assert.Empty(t, res, q)
	}

	// FTS5 operators and quotes are matched literally, never parsed
	for _, q := range []string{`say "hi"`, "login OR cache", "NEAR("} {
		_, err := s.SearchObservations(ctx, q)
		assert.NoError(t, err, q)
	}

	res, err = s.SearchObservations(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", "alice"))
	require.NoError(t, s.CreateSession(ctx, "s2", "/p", "bob"))

	first, err := s.AddSummary(ctx, "s1", "add oauth", "read the middleware", "token refresh works")
	require.NoError(t, err)
	_, err = s.AddSummary(ctx, "s2", "speed up build", "profiled the linker", "cached artifacts")
	require.NoError(t, err)

	s1, err := s.GetSummaries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "add oauth", s1[0].Request)

	all, err := s.GetSummaries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	for _, q := range []string{"middleware", "iddlew", "refresh wo", "oa"} {
		found, err := s.SearchSummaries(ctx, q)
		require.NoError(t, err, q)
		require.Len(t, found, 1, q)
		assert.Equal(t, first, found[0].ID, q)
	}

	team, err := s.GetTeamSummaries(ctx, "/p", 7)
	require.NoError(t, err)
	require.Len(t, team, 2)
	assert.Equal(t, "bob", team[0].UserName)

	empty, err := s.SearchSummaries(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInvalidPlanStatusLeavesPlanUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))
	id, err := s.CreatePlan(ctx, "s1", "Plan", "", "body")
	require.NoError(t, err)

	err = s.UpdatePlanStatus(ctx, id, "shipped")
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrInvalidStatus)
	assert.Contains(t, err.Error(), `"shipped"`)
	assert.Contains(t, err.Error(), "draft, approved, completed")

	p, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PlanDraft, p.Status)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	assert.True(t, db.IsNotFound(s.UpdatePlanStatus(ctx, id+100, PlanCompleted)))
}

func TestGetPlans(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s1", "/p", ""))

	a, err := s.CreatePlan(ctx, "s1", "A", "", "")
	require.NoError(t, err)
	b, err := s.CreatePlan(ctx, "s1", "B", "", "")
	require.NoError(t, err)
	require.NoError(t, s.UpdatePlanStatus(ctx, a, PlanApproved))

	all, err := s.GetPlans(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0].ID, "most recently updated first")
	assert.Equal(t, b, all[1].ID)

	drafts, err := s.GetPlans(ctx, PlanDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "B", drafts[0].Title)

	missing, err := s.GetPlan(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTeamActivity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "a1", "/p", "alice"))
	require.NoError(t, s.CreateSession(ctx, "a2", "/p", "alice"))
	require.NoError(t, s.CreateSession(ctx, "b1", "/p", "bob"))
	require.NoError(t, s.CreateSession(ctx, "anon", "/p", ""))
	for _, sid := range []string{"a1", "a1", "b1", "anon"} {
		_, err := s.AddObservation(ctx, ObservationInput{SessionID: sid, Type: "feature", Content: "x"})
		require.NoError(t, err)
	}

	act, err := s.GetTeamActivity(ctx, "/p", 7)
	require.NoError(t, err)
	require.Len(t, act, 2)
	assert.Equal(t, TeamActivity{UserName: "alice", SessionCount: 2, ObservationCount: 2}, act[0])
	assert.Equal(t, TeamActivity{UserName: "bob", SessionCount: 1, ObservationCount: 1}, act[1])
}
