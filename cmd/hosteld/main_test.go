package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  dsn: \"file:" + filepath.Join(dir, "hostel.db") + "\"\n  log_level: silent\n" +
		"logger:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMigrateThenReconcile(t *testing.T) {
	path := writeConfig(t)

	for _, args := range [][]string{
		{"migrate", "--config", path},
		{"reconcile", "--dry-run", "--config", path},
		{"reconcile", "--config", path},
	} {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		assert.NoError(t, cmd.Execute(), args)
	}
}

func TestRoot_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, cmd.Execute())
}
