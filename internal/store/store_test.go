package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bake.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bake.db")
	for range 3 {
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"bake_runs", "samples"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s after reopening", table)
	}
	assert.Equal(t, len(migrations), userVersion(t, s.db))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/bake.db")
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.DB().Ping())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.want))
		})
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	assert.Subset(t, tableColumns(t, s.db, "bake_runs"),
		[]string{"id", "seq", "scene_name", "scene_hash", "fps", "frame_step", "entities", "samples_hash", "engine_version"})
	assert.Subset(t, tableColumns(t, s.db, "samples"),
		[]string{"run_id", "frame", "entity", "path", "idx", "value"})
}

func TestConstraint_SampleNeedsRun(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec(`INSERT INTO samples (run_id, frame, entity, path, idx, value) VALUES ('missing', 1, 'e', 'p', 0, 0)`)
	assert.Error(t, err, "sample without a run violates the foreign key")
}

func TestConstraint_SeqUnique(t *testing.T) {
	s := createTestStore(t)
	insert := `INSERT INTO bake_runs (id, seq, scene_name, scene_hash, fps, frame_start, frame_end, frame_step, entities, samples_hash, engine_version)
		VALUES (?, 1, 'demo', 'h', 24, 1, 2, 1, '[]', 'h', 'test')`
	_, err := s.db.Exec(insert, "a")
	require.NoError(t, err)
	_, err = s.db.Exec(insert, "b")
	assert.Error(t, err)
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bake.db")

	// Schema without migrations stands in for a database baked before v1.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.Equal(t, 0, userVersion(t, db))
	require.NotContains(t, tableIndexes(t, db, "samples"), "idx_samples_entity")
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, len(migrations), userVersion(t, s.db))
	assert.Contains(t, tableIndexes(t, s.db, "samples"), "idx_samples_entity")
}

func TestMigration_NewerDatabaseUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bake.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 99, userVersion(t, s.db))
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryNames(t, db, `SELECT name FROM pragma_table_info(?)`, table)
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryNames(t, db, `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?`, table)
}

func queryNames(t *testing.T, db *sql.DB, query string, arg any) []string {
	t.Helper()
	rows, err := db.Query(query, arg)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
