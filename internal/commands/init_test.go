package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-dev/folio/internal/audit"
	"github.com/folio-dev/folio/internal/store"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "folio-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "folio")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/folio")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runFolio(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	_, err := runFolio(t, dir, "init")
	require.NoError(t, err)

	for _, name := range []string{"folio.yaml", "ledger.db", ".gitignore"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should exist", name)
	}

	st, err := store.Open(filepath.Join(dir, "ledger.db"), store.RejectMissing)
	require.NoError(t, err)
	defer st.Close()
	empty, err := st.Empty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestInit_BaseCurrency(t *testing.T) {
	dir := t.TempDir()
	_, err := runFolio(t, dir, "init", "--base-currency", "EUR")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "folio.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_currency: EUR")
}

func TestInit_RefusesExistingWorkspace(t *testing.T) {
	dir := t.TempDir()
	_, err := runFolio(t, dir, "init")
	require.NoError(t, err)

	out, err := runFolio(t, dir, "init")
	require.Error(t, err)
	assert.Contains(t, out, "already initialized")
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runFolio(t, dir, "init")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	contents := string(data)

	for _, pattern := range []string{"ledger.db", "ledger.db-wal", "ledger.db-shm", "logs/"} {
		assert.Contains(t, contents, pattern)
	}
}

func TestInit_GitRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := runFolio(t, dir, "init", "--git")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")
}

func TestInit_AuditEntry(t *testing.T) {
	dir := t.TempDir()
	_, err := runFolio(t, dir, "init")
	require.NoError(t, err)

	entries, err := audit.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "init", entries[0].Action)
}
