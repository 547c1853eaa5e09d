package main

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/heartsync/internal/config"

	_ "modernc.org/sqlite"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"run", "once", "migrate"}, names)
}

func TestMigrate_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "heartsync.db")
	t.Setenv("LOGIN_EMAIL", "athlete@example.com")
	t.Setenv("LOGIN_PASSWORD", "hunter2")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	require.NoError(t, db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'heart_rate'`,
	).Scan(&name))
	assert.Equal(t, "heart_rate", name)
}

func TestMigrate_MissingLogin(t *testing.T) {
	t.Setenv("LOGIN_EMAIL", "")
	t.Setenv("LOGIN_PASSWORD", "")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	err := root.ExecuteContext(context.Background())

	assert.ErrorIs(t, err, config.ErrConfigMissing)
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, &config.Config{LogFormat: "json", LogLevel: slog.LevelInfo})
	logger.Debug("hidden")
	logger.Info("shown", "cycle_id", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json handler expected, got %q", out)
	assert.Contains(t, out, `"cycle_id":"abc"`)

	buf.Reset()
	logger = newLogger(&buf, &config.Config{LogFormat: "text", LogLevel: slog.LevelDebug})
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
