package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSkipsCommentsAndBlanks(t *testing.T) {
	script := `
-- Migration 001: core tables

CREATE TABLE a (id INT);  -- trailing
/* block
   comment; with terminator */
CREATE TABLE b (id INT);
;
-- only a comment;
`
	stmts := Split(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", stmts[0])
	assert.Equal(t, "CREATE TABLE b (id INT)", stmts[1])
}

func TestSplitRespectsQuotes(t *testing.T) {
	stmts := Split(`INSERT INTO t VALUES ('a;b', 'it''s; fine'); SELECT "x;y" FROM ` + "`we;ird`" + `;`)
	require.Len(t, stmts, 2)
	assert.Equal(t, `INSERT INTO t VALUES ('a;b', 'it''s; fine')`, stmts[0])
	assert.Equal(t, "SELECT \"x;y\" FROM `we;ird`", stmts[1])
}

func TestSplitKeepsTriggerBodies(t *testing.T) {
	script := `
CREATE TRIGGER IF NOT EXISTS obs_au AFTER UPDATE ON observations BEGIN
    INSERT INTO observations_fts(observations_fts, rowid, content) VALUES ('delete', old.id, old.content);
    INSERT INTO observations_fts(rowid, content) VALUES (new.id, new.content);
END;
CREATE INDEX IF NOT EXISTS idx ON observations(id);
`
	stmts := Split(script)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "BEGIN")
	assert.Contains(t, stmts[0], "new.content);")
	assert.True(t, len(stmts[0]) > 0 && stmts[0][len(stmts[0])-3:] == "END")
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx ON observations(id)", stmts[1])
}

func TestSplitTriggerWithCase(t *testing.T) {
	script := `CREATE TRIGGER t1 AFTER INSERT ON a BEGIN
  UPDATE a SET v = CASE WHEN new.v IS NULL THEN 0 ELSE new.v END WHERE id = new.id;
END;
SELECT 1;`
	stmts := Split(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT 1", stmts[1])
}

func TestIsDDL(t *testing.T) {
	assert.True(t, IsDDL("CREATE TABLE x (id INT)"))
	assert.True(t, IsDDL("  alter table x add column y int"))
	assert.True(t, IsDDL("DROP INDEX i"))
	assert.False(t, IsDDL("INSERT INTO migrations VALUES (1, 2)"))
	assert.False(t, IsDDL("UPDATE x SET y = 1"))
	assert.False(t, IsDDL(""))
}
