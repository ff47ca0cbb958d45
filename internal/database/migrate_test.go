package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header
CREATE TABLE a (id INT);

-- only a comment;
CREATE INDEX idx_a ON a (id);
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", stmts[1])
}

func TestSplitStatements_SemicolonInComment(t *testing.T) {
	script := `-- accounts; role is CUSTOMER or MANAGER
CREATE TABLE u (
    id INT,
    -- CUSTOMER; MANAGER
    role VARCHAR(16)
);
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 1)
	assert.Equal(t, "CREATE TABLE u (\n    id INT,\n    role VARCHAR(16)\n)", stmts[0])
}

func TestLoadMigrations_SplitIntoValidStatements(t *testing.T) {
	migs, err := LoadMigrations()
	require.NoError(t, err)
	for _, m := range migs {
		for _, stmt := range splitStatements(m.SQL) {
			assert.Regexp(t, `^(?i)(CREATE|ALTER|INSERT|DROP)\s`, stmt, m.Name)
		}
	}
}

func TestLoadMigrations_Ordered(t *testing.T) {
	migs, err := LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	for i := 1; i < len(migs); i++ {
		assert.Less(t, migs[i-1].Version, migs[i].Version)
	}
	assert.Equal(t, "create_users", migs[0].Name)
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	db, err := Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "m.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	m := NewMigrator(db, zaptest.NewLogger(t))

	n, err := m.Up(ctx)
	require.NoError(t, err)
	migs, _ := LoadMigrations()
	assert.Equal(t, len(migs), n)

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users','movies','sessions','tickets','refresh_tokens')").Scan(&count))
	assert.Equal(t, 5, count)
}
