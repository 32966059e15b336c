package impexp

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/folio-dev/folio/internal/codec"
	"github.com/folio-dev/folio/internal/model"
	"github.com/folio-dev/folio/internal/schema"
	"github.com/folio-dev/folio/internal/store"
)

// decoded holds a fully decoded text tree, ready to populate a store.
type decoded struct {
	instruments  []model.Instrument
	accounts     []model.Account
	transactions []model.Transaction
}

// Import reads the text tree at dir and builds a fresh ledger at dbPath.
// The destination must be absent or an empty ledger; import never merges.
// Any failure aborts the whole run and leaves no partial store behind.
func Import(dir, dbPath string) (*Report, error) {
	report := &Report{State: StateIdle, Rows: make(map[string]int)}

	report.State = StateValidating
	if err := checkDestination(dbPath); err != nil {
		report.State = StateAborted
		return report, err
	}
	if err := checkManifest(dir); err != nil {
		report.State = StateAborted
		return report, err
	}

	report.State = StateDecoding
	tree, err := decodeTree(dir)
	if err != nil {
		report.State = StateAborted
		return report, err
	}

	report.State = StatePopulating
	scratch := dbPath + ".tmp"
	if err := populate(scratch, tree); err != nil {
		removeStoreFiles(scratch)
		report.State = StateAborted
		return report, err
	}

	if err := os.Rename(scratch, dbPath); err != nil {
		removeStoreFiles(scratch)
		report.State = StateAborted
		return report, fmt.Errorf("publishing imported ledger: %w", err)
	}

	report.State = StateCommitted
	report.Rows[schema.TableInstrument] = len(tree.instruments)
	report.Rows[schema.TableAccount] = len(tree.accounts)
	report.Rows[schema.TableTransaction] = len(tree.transactions)
	return report, nil
}

// checkDestination refuses to import into anything but an absent file or an
// empty ledger.
func checkDestination(dbPath string) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil
	}

	st, err := store.Open(dbPath, store.RejectMissing)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationNotEmpty, err)
	}
	defer st.Close()

	empty, err := st.Empty()
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("%w: %s", ErrDestinationNotEmpty, dbPath)
	}
	return nil
}

func checkManifest(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	manifest, err := schema.DecodeManifest(data)
	if err != nil {
		return err
	}
	if diff := manifest.Diff(); diff != "" {
		return &codec.SchemaMismatchError{Detail: diff}
	}
	return nil
}

// decodeTree decodes every table fully before anything is written, so a
// malformed row on any line aborts before the first append.
func decodeTree(dir string) (*decoded, error) {
	tree := &decoded{}

	for _, table := range schema.Tables() {
		data, err := os.ReadFile(filepath.Join(dir, table.Name+".csv"))
		if err != nil {
			return nil, fmt.Errorf("reading table %s: %w", table.Name, err)
		}
		rows, err := codec.Decode(table, data)
		if err != nil {
			return nil, err
		}

		for i, row := range rows {
			if err := appendRow(tree, table.Name, row); err != nil {
				return nil, &codec.ParseError{Table: table.Name, Line: i + 2, Err: err}
			}
		}
	}
	return tree, nil
}

func appendRow(tree *decoded, table string, row []string) error {
	switch table {
	case schema.TableInstrument:
		ins, err := codec.UnmarshalInstrument(row)
		if err != nil {
			return err
		}
		tree.instruments = append(tree.instruments, ins)
	case schema.TableAccount:
		a, err := codec.UnmarshalAccount(row)
		if err != nil {
			return err
		}
		tree.accounts = append(tree.accounts, a)
	case schema.TableTransaction:
		tx, err := codec.UnmarshalTransaction(row)
		if err != nil {
			return err
		}
		tree.transactions = append(tree.transactions, tx)
	}
	return nil
}

// populate builds a fresh store at scratch from the decoded tree.
// Instruments and accounts go first so transaction appends pass referential
// validation. Transactions replay in insertion-sequence order, reproducing
// the original append order: every prefix then passes the same
// append-boundary checks it passed when first recorded, and the ledger's
// total order survives the round trip.
func populate(scratch string, tree *decoded) error {
	removeStoreFiles(scratch)

	st, err := store.Create(scratch, store.RejectMissing)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, ins := range tree.instruments {
		if err := st.AddInstrument(ins); err != nil {
			return err
		}
	}
	for _, a := range tree.accounts {
		if err := st.AddAccount(a); err != nil {
			return err
		}
	}

	slices.SortFunc(tree.transactions, func(a, b model.Transaction) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	for _, tx := range tree.transactions {
		if _, err := st.Append(tx); err != nil {
			return err
		}
	}
	return st.Close()
}

// removeStoreFiles deletes a SQLite database and its WAL sidecars.
func removeStoreFiles(path string) {
	os.Remove(path)
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
}
