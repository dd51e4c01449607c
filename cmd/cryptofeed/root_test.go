package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "serve", "state", "snapshot"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("dry-run"))
}

func TestStateCmd_FileBackend(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "posted.json")
	require.NoError(t, os.WriteFile(state, []byte(`{"published":["a","b"],"last_daily_summary":"2026-10-13"}`), 0o644))

	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("STATE_BACKEND", "file")
	t.Setenv("STATE_FILE", state)
	t.Setenv("GIT_SYNC", "false")
	t.Setenv("DEDUP_CAPACITY", "500")
	t.Setenv("TOPICS_FILE", "")
	t.Setenv("DAILY_HOUR", "21")
	t.Setenv("TIMEZONE", "UTC")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"state"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "published ids:  2 (capacity 500)")
	assert.Contains(t, out.String(), "last daily:     2026-10-13")
}
