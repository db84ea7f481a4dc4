package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header comment; with a semicolon
CREATE TABLE a (x String DEFAULT 'a;b');
INSERT INTO a VALUES ('it''s; fine'); -- trailing
;
CREATE TABLE b (y Int32)`

	stmts := splitStatements(script)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (x String DEFAULT 'a;b')", stmts[0])
	assert.Equal(t, "INSERT INTO a VALUES ('it''s; fine')", stmts[1])
	assert.Equal(t, "CREATE TABLE b (y Int32)", stmts[2])
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_second.sql": {Data: []byte("SELECT 2;")},
		"pg/001_first.sql":  {Data: []byte("SELECT 1;")},
		"pg/003_empty.sql":  {Data: []byte("  \n")},
		"pg/README.md":      {Data: []byte("notes")},
	}

	got, err := load(fsys, "pg")
	require.NoError(t, err)
	assert.Equal(t, []migration{
		{Version: "001_first", SQL: "SELECT 1;"},
		{Version: "002_second", SQL: "SELECT 2;"},
	}, got)
}

func TestLoad_Embedded(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.NotEmpty(t, pg)

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Len(t, splitStatements(ch[0].SQL), 1)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:pw@localhost:9000/tokimonster")
	require.NoError(t, err)
	assert.Equal(t, "tokimonster", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("clickhouse://localhost:9000/bad`name")
	assert.Error(t, err)
}
