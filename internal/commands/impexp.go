package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/folio-dev/folio/internal/audit"
	"github.com/folio-dev/folio/internal/gitops"
	"github.com/folio-dev/folio/internal/impexp"
	"github.com/folio-dev/folio/internal/schema"
)

func newExportCommand(workspaceDir *string) *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger database as a text tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(*workspaceDir, commit)
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "git-commit the text tree after export")

	return cmd
}

func runExport(workspaceDir string, commit bool) error {
	ws, err := openWorkspace(workspaceDir)
	if err != nil {
		return err
	}

	st, err := ws.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := ws.exportDir()
	if err := impexp.Export(st, dir); err != nil {
		return err
	}
	ws.log.Info().Str("dir", dir).Msg("ledger exported")

	details := "exported to " + dir
	if commit || ws.cfg.Git.AutoCommit {
		if !gitops.IsRepo(ws.root) {
			return fmt.Errorf("workspace is not a git repository (run 'folio init --git')")
		}
		hash, err := gitops.CommitTree(ws.root, "folio export "+time.Now().UTC().Format(time.RFC3339),
			ws.cfg.Git.AuthorName, ws.cfg.Git.AuthorEmail)
		if err != nil {
			return err
		}
		details += ", commit " + hash
		ws.log.Info().Str("commit", hash).Msg("text tree committed")
	}

	if err := audit.Append(ws.root, []audit.Entry{{
		Timestamp: time.Now(),
		Action:    "export",
		Details:   details,
	}}); err != nil {
		return err
	}

	fmt.Printf("Exported ledger to %s\n", dir)
	return nil
}

func newImportCommand(workspaceDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [tree-dir]",
		Short: "Build a fresh ledger database from a text tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			return runImport(*workspaceDir, dir)
		},
	}
	return cmd
}

func runImport(workspaceDir, dir string) error {
	ws, err := openWorkspace(workspaceDir)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = ws.exportDir()
	}

	report, err := impexp.Import(dir, ws.dbPath())
	if err != nil {
		ws.log.Error().Str("state", string(report.State)).Err(err).Msg("import aborted")
		return err
	}

	if err := audit.Append(ws.root, []audit.Entry{{
		Timestamp: time.Now(),
		Action:    "import",
		Details: fmt.Sprintf("imported %s (%d transactions)",
			dir, report.Rows[schema.TableTransaction]),
	}}); err != nil {
		return err
	}

	ws.log.Info().
		Int("instruments", report.Rows[schema.TableInstrument]).
		Int("accounts", report.Rows[schema.TableAccount]).
		Int("transactions", report.Rows[schema.TableTransaction]).
		Msg("ledger imported")

	fmt.Printf("Imported %d transactions from %s\n", report.Rows[schema.TableTransaction], dir)
	return nil
}
