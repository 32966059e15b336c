package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/folio-dev/folio/internal/audit"
	"github.com/folio-dev/folio/internal/config"
	"github.com/folio-dev/folio/internal/gitops"
	"github.com/folio-dev/folio/internal/store"
)

func newInitCommand(workspaceDir *string) *cobra.Command {
	var baseCurrency string
	var git bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new folio workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(*workspaceDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(dir, baseCurrency, git)
		},
	}

	cmd.Flags().StringVar(&baseCurrency, "base-currency", "USD", "reporting currency")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository in the workspace")

	return cmd
}

func runInit(dir, baseCurrency string, git bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	cfgPath := filepath.Join(dir, configFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("workspace already initialized: %s exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Ledger.BaseCurrency = baseCurrency
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	st, err := store.Create(filepath.Join(dir, cfg.Ledger.DBPath), store.CreateMissing)
	if err != nil {
		return err
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("closing new ledger: %w", err)
	}

	// The binary database never belongs in version control; its text tree
	// export does.
	gitignore := cfg.Ledger.DBPath + "\n" + cfg.Ledger.DBPath + "-wal\n" + cfg.Ledger.DBPath + "-shm\nlogs/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if git && !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return err
		}
	}

	if err := audit.Append(dir, []audit.Entry{{
		Timestamp: time.Now(),
		Action:    "init",
		Details:   "workspace created",
	}}); err != nil {
		return err
	}

	fmt.Printf("Initialized folio workspace at %s\n", dir)
	return nil
}
