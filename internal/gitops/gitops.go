// Package gitops shells out to git for version control of the exported
// text tree. The text tree is the portable, diffable artifact; committing
// it after each export gives the ledger history outside the binary store.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// CommitTree stages the workspace and creates a commit as the configured
// author. The identity is passed per invocation, so commits work on machines
// with no global git configuration. Returns the short commit hash.
func CommitTree(dir, message, authorName, authorEmail string) (string, error) {
	if err := run(dir, authorName, authorEmail, "add", "-A"); err != nil {
		return "", err
	}
	if err := run(dir, authorName, authorEmail, "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}

	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func run(dir, name, email string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+name,
		"GIT_AUTHOR_EMAIL="+email,
		"GIT_COMMITTER_NAME="+name,
		"GIT_COMMITTER_EMAIL="+email,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %s: %w", args[0], out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
