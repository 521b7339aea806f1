package db

import (
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN_Write(t *testing.T) {
	dsn := buildDSN("/tmp/test.sqlite", "write")

	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.True(t, strings.HasPrefix(dsn, "/tmp/test.sqlite?"))
}

func TestBuildDSN_Read(t *testing.T) {
	dsn := buildDSN("/tmp/test.sqlite", "read")

	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.NotContains(t, dsn, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "invalid", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLitePair_MigratesKVTable(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO kv_entries (k, v) VALUES (?, ?)`, "a", []byte("1"))
	require.NoError(t, err)

	var v []byte
	require.NoError(t, readDB.QueryRow(`SELECT v FROM kv_entries WHERE k = ?`, "a").Scan(&v))
	assert.Equal(t, []byte("1"), v)
}

func TestOpenSQLitePair_WritePoolIsSingleConnection(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)
	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
}
