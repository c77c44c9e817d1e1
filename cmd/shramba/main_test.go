package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/shramba/internal/config"
)

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "inv.sqlite3")

	var out bytes.Buffer
	cmd := newRootCmd(&config.Config{LogLevel: "info"}, &out)
	cmd.SetArgs([]string{"init", "--db", dbPath})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, dbPath)
	info, err := os.Stat(filepath.Join(dir, "data", "images"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, out.String(), dbPath)

	// Running it again is harmless.
	cmd = newRootCmd(&config.Config{LogLevel: "info"}, &out)
	cmd.SetArgs([]string{"init", "-d", dbPath, "-i", filepath.Join(dir, "photos")})
	require.NoError(t, cmd.Execute())
	assert.DirExists(t, filepath.Join(dir, "photos"))
}

func TestRootRejectsArguments(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&config.Config{}, &out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
