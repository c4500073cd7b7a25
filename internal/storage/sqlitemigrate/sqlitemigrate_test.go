package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyRecordsEachFileOnce(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	migrations := fstest.MapFS{
		"002_second.sql": {Data: []byte("-- +migrate Up\nALTER TABLE items ADD COLUMN note TEXT;\n-- +migrate Down\nSELECT 1;")},
		"001_first.sql":  {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
		"README.md":      {Data: []byte("ignored")},
	}

	require.NoError(t, Apply(ctx, db, migrations, ""))
	require.NoError(t, Apply(ctx, db, migrations, "."))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	_, err := db.Exec("INSERT INTO items (id, note) VALUES (1, 'x')")
	assert.NoError(t, err)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nA\n", UpSection("-- +migrate Up\nA\n-- +migrate Down\nB"))
	assert.Equal(t, "\nA", UpSection("-- +migrate Up\nA"))
	assert.Equal(t, "A", UpSection("A"))
}
