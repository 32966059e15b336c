package impexp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/folio-dev/folio/internal/codec"
	"github.com/folio-dev/folio/internal/schema"
	"github.com/folio-dev/folio/internal/store"
)

// Export writes the whole store as a text tree at dir. The tree is built in
// a temporary sibling directory and renamed into place, replacing any
// previous export only on full success.
func Export(st *store.Store, dir string) error {
	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clearing scratch dir: %w", err)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	manifest, err := schema.Current().Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tmp, ManifestFile), manifest, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	for _, table := range schema.Tables() {
		rows, err := tableRows(st, table.Name)
		if err != nil {
			return err
		}
		data, err := codec.Encode(table, rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(tmp, table.Name+".csv"), data, 0o644); err != nil {
			return fmt.Errorf("writing table %s: %w", table.Name, err)
		}
	}

	return publish(tmp, dir)
}

func tableRows(st *store.Store, table string) ([][]string, error) {
	switch table {
	case schema.TableInstrument:
		instruments, err := st.Instruments()
		if err != nil {
			return nil, err
		}
		rows := make([][]string, len(instruments))
		for i, ins := range instruments {
			rows[i] = codec.MarshalInstrument(ins)
		}
		return rows, nil

	case schema.TableAccount:
		accounts, err := st.Accounts()
		if err != nil {
			return nil, err
		}
		rows := make([][]string, len(accounts))
		for i, a := range accounts {
			rows[i] = codec.MarshalAccount(a)
		}
		return rows, nil

	case schema.TableTransaction:
		txs, err := st.Transactions(store.Filter{})
		if err != nil {
			return nil, err
		}
		rows := make([][]string, len(txs))
		for i, tx := range txs {
			rows[i] = codec.MarshalTransaction(tx)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

// publish replaces dst with src. A previous dst is moved aside first so
// every step is a single rename; between the two renames there is a brief
// window with no tree at dst. A crash inside that window leaves the
// complete previous export at dst+".old", never a partial tree at dst.
func publish(src, dst string) error {
	old := dst + ".old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("clearing previous export: %w", err)
	}

	replaced := false
	if _, err := os.Stat(dst); err == nil {
		if err := os.Rename(dst, old); err != nil {
			return fmt.Errorf("moving previous export aside: %w", err)
		}
		replaced = true
	}

	if err := os.Rename(src, dst); err != nil {
		if replaced {
			// Best effort: put the previous export back.
			os.Rename(old, dst)
		}
		return fmt.Errorf("publishing export: %w", err)
	}

	if replaced {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("removing previous export: %w", err)
		}
	}
	return nil
}
