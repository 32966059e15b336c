package impexp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-dev/folio/internal/codec"
	"github.com/folio-dev/folio/internal/model"
	"github.com/folio-dev/folio/internal/schema"
	"github.com/folio-dev/folio/internal/store"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// seedStore builds a small ledger with a few transactions across two
// accounts and returns it open.
func seedStore(t *testing.T, path string) *store.Store {
	t.Helper()

	st, err := store.Create(path, store.CreateMissing)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		{AccountID: "ib-main", InstrumentID: "AAPL", Side: model.SideBuy,
			Quantity: dec("10"), UnitPrice: dec("185.5"), Currency: "USD", Fee: dec("1"), Timestamp: base},
		{AccountID: "ib-main", InstrumentID: "AAPL", Side: model.SideSell,
			Quantity: dec("4"), UnitPrice: dec("190"), Currency: "USD", Fee: decimal.Zero, Timestamp: base.Add(24 * time.Hour)},
		{AccountID: "degiro", InstrumentID: "VWRL", Side: model.SideBuy,
			Quantity: dec("2.5"), UnitPrice: dec("101.2"), Currency: "EUR", Fee: dec("0.5"), Timestamp: base.Add(48 * time.Hour)},
		{AccountID: "ib-main", InstrumentID: "AAPL", Side: model.SideDividend,
			Quantity: dec("6"), UnitPrice: dec("0.25"), Currency: "USD", Fee: decimal.Zero, Timestamp: base.Add(72 * time.Hour)},
	}
	for _, tx := range txs {
		_, err := st.Append(tx)
		require.NoError(t, err)
	}
	return st
}

func TestExportWritesTreeAndManifest(t *testing.T) {
	root := t.TempDir()
	st := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")

	require.NoError(t, Export(st, dir))

	for _, name := range []string{ManifestFile, "instrument.csv", "account.csv", "tx.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	manifest, err := schema.DecodeManifest(data)
	require.NoError(t, err)
	assert.Empty(t, manifest.Diff())

	// Scratch and backup directories must not survive a successful export.
	_, err = os.Stat(dir + ".tmp")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir + ".old")
	assert.True(t, os.IsNotExist(err))
}

func TestExportIsDeterministic(t *testing.T) {
	root := t.TempDir()
	st := seedStore(t, filepath.Join(root, "ledger.db"))

	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	require.NoError(t, Export(st, dirA))
	require.NoError(t, Export(st, dirB))

	for _, table := range schema.Tables() {
		a, err := os.ReadFile(filepath.Join(dirA, table.Name+".csv"))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, table.Name+".csv"))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), table.Name)
	}
}

func TestExportReplacesPreviousTree(t *testing.T) {
	root := t.TempDir()
	st := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")

	require.NoError(t, Export(st, dir))
	before, err := os.ReadFile(filepath.Join(dir, "tx.csv"))
	require.NoError(t, err)

	_, err = st.Append(model.Transaction{
		AccountID: "ib-main", InstrumentID: "AAPL", Side: model.SideBuy,
		Quantity: dec("1"), UnitPrice: dec("200"), Currency: "USD",
		Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, Export(st, dir))
	after, err := os.ReadFile(filepath.Join(dir, "tx.csv"))
	require.NoError(t, err)
	assert.NotEqual(t, string(before), string(after))

	_, err = os.Stat(dir + ".old")
	assert.True(t, os.IsNotExist(err))
}

func TestImportRoundTrip(t *testing.T) {
	root := t.TempDir()
	src := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")
	require.NoError(t, Export(src, dir))

	dbPath := filepath.Join(root, "restored.db")
	report, err := Import(dir, dbPath)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, report.State)
	assert.Equal(t, 4, report.Rows[schema.TableTransaction])
	assert.Equal(t, 2, report.Rows[schema.TableAccount])
	assert.Equal(t, 2, report.Rows[schema.TableInstrument])

	restored, err := store.Open(dbPath, store.RejectMissing)
	require.NoError(t, err)
	defer restored.Close()

	want, err := src.Transactions(store.Filter{})
	require.NoError(t, err)
	got, err := restored.Transactions(store.Filter{})
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Seq, got[i].Seq, "insertion order survives the round trip")
		assert.True(t, want[i].Quantity.Equal(got[i].Quantity))
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice))
		assert.True(t, want[i].Fee.Equal(got[i].Fee))
		assert.Equal(t, want[i].Timestamp, got[i].Timestamp)
	}

	wantAccounts, err := src.Accounts()
	require.NoError(t, err)
	gotAccounts, err := restored.Accounts()
	require.NoError(t, err)
	assert.Equal(t, wantAccounts, gotAccounts)

	wantInstruments, err := src.Instruments()
	require.NoError(t, err)
	gotInstruments, err := restored.Instruments()
	require.NoError(t, err)
	assert.Equal(t, wantInstruments, gotInstruments)
}

func TestReExportAfterImportIsByteIdentical(t *testing.T) {
	root := t.TempDir()
	src := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")
	require.NoError(t, Export(src, dir))

	dbPath := filepath.Join(root, "restored.db")
	_, err := Import(dir, dbPath)
	require.NoError(t, err)

	restored, err := store.Open(dbPath, store.RejectMissing)
	require.NoError(t, err)
	defer restored.Close()

	second := filepath.Join(root, "tree2")
	require.NoError(t, Export(restored, second))

	for _, table := range schema.Tables() {
		a, err := os.ReadFile(filepath.Join(dir, table.Name+".csv"))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second, table.Name+".csv"))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), table.Name)
	}
}

func TestImportRefusesNonEmptyDestination(t *testing.T) {
	root := t.TempDir()
	src := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")
	require.NoError(t, Export(src, dir))

	// The destination already holds a transaction.
	destPath := filepath.Join(root, "dest.db")
	dest := seedStore(t, destPath)
	require.NoError(t, dest.Close())

	report, err := Import(dir, destPath)
	require.ErrorIs(t, err, ErrDestinationNotEmpty)
	assert.Equal(t, StateAborted, report.State)

	// The destination must be untouched.
	reopened, err := store.Open(destPath, store.RejectMissing)
	require.NoError(t, err)
	defer reopened.Close()
	txs, err := reopened.Transactions(store.Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 4)
}

func TestImportIntoEmptyLedger(t *testing.T) {
	root := t.TempDir()
	src := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")
	require.NoError(t, Export(src, dir))

	destPath := filepath.Join(root, "dest.db")
	empty, err := store.Create(destPath, store.RejectMissing)
	require.NoError(t, err)
	require.NoError(t, empty.Close())

	report, err := Import(dir, destPath)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, report.State)
}

func TestImportMalformedRowLeavesNothingBehind(t *testing.T) {
	root := t.TempDir()
	src := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")
	require.NoError(t, Export(src, dir))

	txFile := filepath.Join(dir, "tx.csv")
	data, err := os.ReadFile(txFile)
	require.NoError(t, err)
	corrupted := strings.Replace(string(data), "buy", "hold", 1)
	require.NoError(t, os.WriteFile(txFile, []byte(corrupted), 0o644))

	dbPath := filepath.Join(root, "restored.db")
	report, err := Import(dir, dbPath)
	require.Error(t, err)
	assert.Equal(t, StateAborted, report.State)

	var parseErr *codec.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, schema.TableTransaction, parseErr.Table)

	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err), "no partial ledger may be published")
	_, err = os.Stat(dbPath + ".tmp")
	assert.True(t, os.IsNotExist(err), "scratch store must be cleaned up")
}

func TestImportSchemaMismatch(t *testing.T) {
	root := t.TempDir()
	src := seedStore(t, filepath.Join(root, "ledger.db"))
	dir := filepath.Join(root, "tree")
	require.NoError(t, Export(src, dir))

	manifestPath := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "version: 1", "version: 99", 1)
	require.NoError(t, os.WriteFile(manifestPath, []byte(tampered), 0o644))

	report, err := Import(dir, filepath.Join(root, "restored.db"))
	require.Error(t, err)
	assert.Equal(t, StateAborted, report.State)

	var mismatch *codec.SchemaMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestImportMissingManifest(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "tree")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	report, err := Import(dir, filepath.Join(root, "restored.db"))
	require.Error(t, err)
	assert.Equal(t, StateAborted, report.State)
}
