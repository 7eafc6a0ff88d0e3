package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{DSN: "file:custom.db"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db", dsn)

	dsn, err = buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", dsn)

	dsn, err = buildSQLiteDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", dsn)

	path := filepath.Join(t.TempDir(), "data", "assetdesk.sqlite")
	dsn, err = buildSQLiteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")
	require.DirExists(t, filepath.Dir(path))
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "assetdesk",
		Password: "secret",
		Name:     "assetdesk",
		Host:     "db.internal",
		Port:     5433,
	})
	require.NoError(t, err)
	require.Equal(t, "host=db.internal port=5433 user=assetdesk dbname=assetdesk password=secret sslmode=disable", dsn)

	// Explicit options override the sslmode default and come out sorted.
	dsn, err = buildPostgresDSN(Config{
		User: "u",
		Name: "d",
		Options: map[string]string{
			"sslmode":         "require",
			"connect_timeout": "5",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=u dbname=d connect_timeout=5 sslmode=require", dsn)

	_, err = buildPostgresDSN(Config{User: "u"})
	require.Error(t, err)
}

func TestBuildPostgresDSNPrefersOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://u:p@host/db"})
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@host/db", dsn)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "root",
		Password: "pw",
		Name:     "assetdesk",
	})
	require.NoError(t, err)
	require.Equal(t, "root:pw@tcp(localhost:3306)/assetdesk?charset=utf8mb4&parseTime=True&loc=UTC", dsn)

	dsn, err = buildMySQLDSN(Config{User: "root", Name: "assetdesk", Host: "db", Port: 3307})
	require.NoError(t, err)
	require.Equal(t, "root@tcp(db:3307)/assetdesk?charset=utf8mb4&parseTime=True&loc=UTC", dsn)

	_, err = buildMySQLDSN(Config{Name: "assetdesk"})
	require.Error(t, err)
}
