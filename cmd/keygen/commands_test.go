package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantgate/internal/keys"
)

func runKeygen(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateRotateAndRetire(t *testing.T) {
	dir := t.TempDir()

	_, err := runKeygen(t, "generate", "--dir", dir, "--kid", "k1", "--bits", "2048")
	require.NoError(t, err)
	_, err = runKeygen(t, "generate", "--dir", dir, "--kid", "k2", "--bits", "2048")
	require.NoError(t, err)

	km, err := keys.ReadKeymap(filepath.Join(dir, "keymap.json"))
	require.NoError(t, err)
	active, err := km.ActiveID()
	require.NoError(t, err)
	assert.Equal(t, "k2", active)
	assert.Equal(t, []string{"k1", "k2"}, km.IDs())

	out, err := runKeygen(t, "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "* k2")
	assert.Contains(t, out, "  k1")

	_, err = runKeygen(t, "retire", "--dir", dir, "--kid", "k2")
	assert.Error(t, err, "active key must not be retired")

	_, err = runKeygen(t, "retire", "--dir", dir, "--kid", "k1")
	require.NoError(t, err)
	km, err = keys.ReadKeymap(filepath.Join(dir, "keymap.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, km.IDs())
}

func TestGenerateDefaultsToULID(t *testing.T) {
	dir := t.TempDir()
	out, err := runKeygen(t, "generate", "--dir", dir, "--bits", "2048")
	require.NoError(t, err)

	km, err := keys.ReadKeymap(filepath.Join(dir, "keymap.json"))
	require.NoError(t, err)
	active, err := km.ActiveID()
	require.NoError(t, err)
	assert.Len(t, active, 26)
	assert.Equal(t, strings.ToLower(active), active)
	assert.Contains(t, out, active)
}

func TestRetireRequiresKID(t *testing.T) {
	_, err := runKeygen(t, "retire", "--dir", t.TempDir())
	assert.ErrorContains(t, err, "--kid is required")
}
