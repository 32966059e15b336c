package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ledger-data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger-data", "tx.csv"), []byte("id,seq\n"), 0o644))

	hash, err := CommitTree(dir, "export 2025-02-01", "folio", "folio@localhost")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "export 2025-02-01")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "folio <folio@localhost>")
}

func TestCommitTreeNothingStaged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := CommitTree(dir, "empty", "folio", "folio@localhost")
	require.Error(t, err, "committing an empty tree should fail")
}
