package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/folio-dev/folio/internal/config"
	"github.com/folio-dev/folio/internal/logging"
	"github.com/folio-dev/folio/internal/store"
)

// configFile is the workspace configuration file name.
const configFile = "folio.yaml"

// workspace bundles everything a command needs: the resolved root, the
// loaded configuration, and a logger.
type workspace struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// openWorkspace resolves dir and loads its configuration.
func openWorkspace(dir string) (*workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, configFile))
	if err != nil {
		return nil, fmt.Errorf("not a folio workspace (run 'folio init'): %w", err)
	}

	return &workspace{
		root: root,
		cfg:  cfg,
		log:  logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}),
	}, nil
}

func (w *workspace) dbPath() string {
	return w.resolve(w.cfg.Ledger.DBPath)
}

func (w *workspace) exportDir() string {
	return w.resolve(w.cfg.Ledger.ExportDir)
}

func (w *workspace) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.root, path)
}

func (w *workspace) policy() store.CreatePolicy {
	if w.cfg.Ledger.AutoCreate {
		return store.CreateMissing
	}
	return store.RejectMissing
}

// openStore opens the workspace's ledger database.
func (w *workspace) openStore() (*store.Store, error) {
	return store.Open(w.dbPath(), w.policy())
}
