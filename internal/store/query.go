package store

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folio-dev/folio/internal/model"
)

// Filter narrows a transaction scan. Zero values match everything.
type Filter struct {
	AccountID    string
	InstrumentID string
	Side         model.Side
}

// Transactions returns the ledger's transactions ordered by timestamp, then
// by insertion sequence. The tie-break is total and stable; the position
// engine depends on it.
func (s *Store) Transactions(filter Filter) ([]model.Transaction, error) {
	query := `SELECT id, seq, account_id, instrument_id, side, quantity, unit_price, currency, fee, ts
	          FROM tx WHERE 1=1`
	var args []any
	if filter.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, filter.AccountID)
	}
	if filter.InstrumentID != "" {
		query += ` AND instrument_id = ?`
		args = append(args, filter.InstrumentID)
	}
	if filter.Side != "" {
		query += ` AND side = ?`
		args = append(args, string(filter.Side))
	}
	query += ` ORDER BY ts, seq`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &StorageError{Op: "scan transactions", Err: err}
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "scan transactions", Err: err}
	}
	return txs, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var tx model.Transaction
	var side, quantity, unitPrice, fee, ts string

	if err := rows.Scan(&tx.ID, &tx.Seq, &tx.AccountID, &tx.InstrumentID,
		&side, &quantity, &unitPrice, &tx.Currency, &fee, &ts); err != nil {
		return model.Transaction{}, &StorageError{Op: "scan transaction row", Err: err}
	}

	var err error
	tx.Side = model.Side(side)
	if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return model.Transaction{}, &StorageError{Op: "decode quantity", Err: err}
	}
	if tx.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return model.Transaction{}, &StorageError{Op: "decode unit_price", Err: err}
	}
	if tx.Fee, err = decimal.NewFromString(fee); err != nil {
		return model.Transaction{}, &StorageError{Op: "decode fee", Err: err}
	}
	if tx.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
		return model.Transaction{}, &StorageError{Op: "decode ts", Err: err}
	}
	tx.Timestamp = tx.Timestamp.UTC()
	return tx, nil
}

// Instruments returns all instruments ordered by ID.
func (s *Store) Instruments() ([]model.Instrument, error) {
	rows, err := s.db.Query(`SELECT id, name, currency FROM instrument ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "scan instruments", Err: err}
	}
	defer rows.Close()

	var out []model.Instrument
	for rows.Next() {
		var ins model.Instrument
		if err := rows.Scan(&ins.ID, &ins.Name, &ins.Currency); err != nil {
			return nil, &StorageError{Op: "scan instrument row", Err: err}
		}
		out = append(out, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "scan instruments", Err: err}
	}
	return out, nil
}

// Accounts returns all accounts ordered by ID.
func (s *Store) Accounts() ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT id, broker, currency FROM account ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "scan accounts", Err: err}
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Broker, &a.Currency); err != nil {
			return nil, &StorageError{Op: "scan account row", Err: err}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "scan accounts", Err: err}
	}
	return out, nil
}

// Revision returns the store's commit counter, 0 for a fresh ledger. Every
// successful append bumps it, including one that fills a sequence gap below
// the current maximum, which makes it a safe cache key for derived state.
func (s *Store) Revision() (int64, error) {
	var rev int64
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'revision'`).Scan(&rev); err != nil {
		return 0, &StorageError{Op: "read revision", Err: err}
	}
	return rev, nil
}

// Empty reports whether the ledger holds no transactions, instruments, or
// accounts. Import refuses to touch a non-empty store.
func (s *Store) Empty() (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM tx) + (SELECT COUNT(*) FROM instrument) + (SELECT COUNT(*) FROM account)`,
	).Scan(&n)
	if err != nil {
		return false, &StorageError{Op: "count rows", Err: err}
	}
	return n == 0, nil
}
