package memory

import (
	"context"
	"strings"

	"github.com/joss/domem/internal/db"
)

// fakeAdapter records every statement and answers from canned rows. Its
// placeholder differs from both real backends so tests can spot
// hard-coded markers.
type fakeAdapter struct {
	native     bool
	queries    []string
	args       [][]any
	searches   []string
	sessionRow db.Row
}

func (f *fakeAdapter) record(query string, args []any) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
}

func (f *fakeAdapter) FetchOne(_ context.Context, query string, args ...any) (db.Row, error) {
	f.record(query, args)
	return db.Row{"cnt": int64(0)}, nil
}

func (f *fakeAdapter) FetchAll(_ context.Context, query string, args ...any) ([]db.Row, error) {
	f.record(query, args)
	if f.sessionRow != nil && strings.Contains(query, "FROM sessions") {
		return []db.Row{f.sessionRow}, nil
	}
	return nil, nil
}

func (f *fakeAdapter) Execute(_ context.Context, query string, args ...any) (db.Result, error) {
	f.record(query, args)
	return db.Result{RowsAffected: 1, LastInsertID: 7}, nil
}

func (f *fakeAdapter) ExecuteMany(_ context.Context, query string, argSets [][]any) error {
	for _, a := range argSets {
		f.record(query, a)
	}
	return nil
}

func (f *fakeAdapter) Begin(context.Context) error { return nil }
func (f *fakeAdapter) Commit() error { return nil }
func (f *fakeAdapter) Rollback() error { return nil }
func (f *fakeAdapter) Connect(context.Context) error { return nil }
func (f *fakeAdapter) Close() error { return nil }
func (f *fakeAdapter) RunMigrations(context.Context) error { return nil }
func (f *fakeAdapter) CurrentVersion(context.Context) (int, error) { return 3, nil }
func (f *fakeAdapter) Placeholder() string { return "$p" }
func (f *fakeAdapter) LastInsertID() int64 { return 7 }
func (f *fakeAdapter) SupportsNativeFullText() bool { return f.native }
func (f *fakeAdapter) Backend() string { return "fake" }

// searchingAdapter also implements db.FullTextSearcher.
type searchingAdapter struct {
	fakeAdapter
}

func (f *searchingAdapter) SearchObservations(_ context.Context, query string, limit int) ([]db.Row, error) {
	f.searches = append(f.searches, "observations:"+query)
	return []db.Row{{"id": int64(1), "content": query}}, nil
}

func (f *searchingAdapter) SearchSummaries(_ context.Context, query string, limit int) ([]db.Row, error) {
	f.searches = append(f.searches, "summaries:"+query)
	return []db.Row{{"id": int64(2), "request": query}}, nil
}
