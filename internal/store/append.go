package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folio-dev/folio/internal/id"
	"github.com/folio-dev/folio/internal/model"
)

// Append validates tx and commits it to the ledger. The whole operation is
// atomic: on any error the store is left exactly as it was. When tx.ID is
// empty a fresh ID is assigned; when tx.Seq is zero the next insertion
// sequence is assigned. A sell of more units than held at its point in the
// ledger order is rejected with a model.OverdraftError. Returns the
// committed transaction ID.
func (s *Store) Append(tx model.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = id.New()
	}
	if err := s.validate(tx); err != nil {
		return "", err
	}

	dbtx, err := s.db.Begin()
	if err != nil {
		return "", &StorageError{Op: "begin append", Err: err}
	}
	defer dbtx.Rollback()

	if err := s.checkUnique(dbtx, tx); err != nil {
		return "", err
	}
	if err := s.resolveRefs(dbtx, &tx); err != nil {
		return "", err
	}
	if tx.Seq == 0 {
		if tx.Seq, err = nextSeq(dbtx); err != nil {
			return "", err
		}
	}
	if tx.Side == model.SideSell {
		if err := checkOverdraft(dbtx, tx); err != nil {
			return "", err
		}
	}

	_, err = dbtx.Exec(
		`INSERT INTO tx (id, seq, account_id, instrument_id, side, quantity, unit_price, currency, fee, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Seq, tx.AccountID, tx.InstrumentID, string(tx.Side),
		tx.Quantity.String(), tx.UnitPrice.String(), tx.Currency, tx.Fee.String(),
		tx.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", &StorageError{Op: "insert transaction", Err: err}
	}

	// The revision counter moves on every commit, even one that fills a
	// sequence gap below the current maximum.
	if _, err := dbtx.Exec(`UPDATE meta SET value = value + 1 WHERE key = 'revision'`); err != nil {
		return "", &StorageError{Op: "bump revision", Err: err}
	}

	if err := dbtx.Commit(); err != nil {
		return "", &StorageError{Op: "commit append", Err: err}
	}
	return tx.ID, nil
}

// validate applies the append-boundary checks that need no database state.
func (s *Store) validate(tx model.Transaction) error {
	if err := id.Validate(tx.ID); err != nil {
		return &ValidationError{TxID: tx.ID, Field: "id", Err: err}
	}
	if !tx.Side.Valid() {
		return &ValidationError{TxID: tx.ID, Field: "side", Err: fmt.Errorf("unknown side %q", tx.Side)}
	}
	if tx.AccountID == "" {
		return &ValidationError{TxID: tx.ID, Field: "account_id", Err: ErrUnknownAccount}
	}
	if tx.InstrumentID == "" {
		return &ValidationError{TxID: tx.ID, Field: "instrument_id", Err: ErrUnknownInstrument}
	}
	if !model.KnownCurrency(tx.Currency) {
		return &ValidationError{TxID: tx.ID, Field: "currency", Err: fmt.Errorf("%w: %q", ErrUnknownCurrency, tx.Currency)}
	}
	if tx.Side == model.SideBuy || tx.Side == model.SideSell {
		if !tx.Quantity.IsPositive() {
			return &ValidationError{TxID: tx.ID, Field: "quantity", Err: ErrZeroQuantity}
		}
	}
	if tx.Quantity.IsNegative() {
		return &ValidationError{TxID: tx.ID, Field: "quantity", Err: fmt.Errorf("quantity must not be negative")}
	}
	if tx.UnitPrice.IsNegative() || tx.Fee.IsNegative() {
		return &ValidationError{TxID: tx.ID, Field: "unit_price", Err: ErrNegativeAmount}
	}
	if tx.Timestamp.IsZero() {
		return &ValidationError{TxID: tx.ID, Field: "ts", Err: fmt.Errorf("timestamp is required")}
	}
	if tx.Seq < 0 {
		return &ValidationError{TxID: tx.ID, Field: "seq", Err: fmt.Errorf("seq must not be negative")}
	}
	return nil
}

func (s *Store) checkUnique(dbtx *sql.Tx, tx model.Transaction) error {
	var n int
	if err := dbtx.QueryRow(`SELECT COUNT(*) FROM tx WHERE id = ?`, tx.ID).Scan(&n); err != nil {
		return &StorageError{Op: "check duplicate id", Err: err}
	}
	if n > 0 {
		return &ValidationError{TxID: tx.ID, Field: "id", Err: ErrDuplicateID}
	}
	if tx.Seq != 0 {
		if err := dbtx.QueryRow(`SELECT COUNT(*) FROM tx WHERE seq = ?`, tx.Seq).Scan(&n); err != nil {
			return &StorageError{Op: "check duplicate seq", Err: err}
		}
		if n > 0 {
			return &ValidationError{TxID: tx.ID, Field: "seq", Err: ErrDuplicateSeq}
		}
	}
	return nil
}

// resolveRefs ensures the referenced account and instrument exist, creating
// them per the store's policy. Auto-created entities inherit the
// transaction's currency; display attributes can be set later.
func (s *Store) resolveRefs(dbtx *sql.Tx, tx *model.Transaction) error {
	ok, err := rowExists(dbtx, `SELECT COUNT(*) FROM account WHERE id = ?`, tx.AccountID)
	if err != nil {
		return err
	}
	if !ok {
		if s.policy == RejectMissing {
			return &ValidationError{TxID: tx.ID, Field: "account_id",
				Err: fmt.Errorf("%w: %q", ErrUnknownAccount, tx.AccountID)}
		}
		if _, err := dbtx.Exec(`INSERT INTO account (id, broker, currency) VALUES (?, '', ?)`,
			tx.AccountID, tx.Currency); err != nil {
			return &StorageError{Op: "create account", Err: err}
		}
	}

	ok, err = rowExists(dbtx, `SELECT COUNT(*) FROM instrument WHERE id = ?`, tx.InstrumentID)
	if err != nil {
		return err
	}
	if !ok {
		if s.policy == RejectMissing {
			return &ValidationError{TxID: tx.ID, Field: "instrument_id",
				Err: fmt.Errorf("%w: %q", ErrUnknownInstrument, tx.InstrumentID)}
		}
		if _, err := dbtx.Exec(`INSERT INTO instrument (id, name, currency) VALUES (?, ?, ?)`,
			tx.InstrumentID, tx.InstrumentID, tx.Currency); err != nil {
			return &StorageError{Op: "create instrument", Err: err}
		}
	}
	return nil
}

func rowExists(dbtx *sql.Tx, query, key string) (bool, error) {
	var n int
	if err := dbtx.QueryRow(query, key).Scan(&n); err != nil {
		return false, &StorageError{Op: "lookup reference", Err: err}
	}
	return n > 0, nil
}

func nextSeq(dbtx *sql.Tx) (int64, error) {
	var max sql.NullInt64
	if err := dbtx.QueryRow(`SELECT MAX(seq) FROM tx`).Scan(&max); err != nil {
		return 0, &StorageError{Op: "next seq", Err: err}
	}
	return max.Int64 + 1, nil
}

// checkOverdraft replays the committed buy/sell quantities for the
// candidate's account+instrument in ledger order, with the candidate merged
// in at its (ts, seq) position. Any point where sells exceed prior buys
// rejects the append: committing it would make every later position
// derivation fail.
func checkOverdraft(dbtx *sql.Tx, cand model.Transaction) error {
	rows, err := dbtx.Query(
		`SELECT side, quantity, ts, seq FROM tx
		 WHERE account_id = ? AND instrument_id = ? AND side IN ('buy', 'sell')
		 ORDER BY ts, seq`,
		cand.AccountID, cand.InstrumentID)
	if err != nil {
		return &StorageError{Op: "scan held quantity", Err: err}
	}
	defer rows.Close()

	overdraft := func(held, requested decimal.Decimal) error {
		return &model.OverdraftError{
			TxID:         cand.ID,
			AccountID:    cand.AccountID,
			InstrumentID: cand.InstrumentID,
			Held:         held,
			Requested:    requested,
		}
	}

	candTS := cand.Timestamp.UTC().Format(time.RFC3339)
	held := decimal.Zero
	applied := false

	for rows.Next() {
		var side, quantity, ts string
		var seq int64
		if err := rows.Scan(&side, &quantity, &ts, &seq); err != nil {
			return &StorageError{Op: "scan held quantity", Err: err}
		}
		qty, err := decimal.NewFromString(quantity)
		if err != nil {
			return &StorageError{Op: "decode quantity", Err: err}
		}

		// RFC3339 UTC strings compare lexicographically in time order.
		if !applied && (candTS < ts || (candTS == ts && cand.Seq < seq)) {
			if cand.Quantity.GreaterThan(held) {
				return overdraft(held, cand.Quantity)
			}
			held = held.Sub(cand.Quantity)
			applied = true
		}

		if model.Side(side) == model.SideSell {
			if qty.GreaterThan(held) {
				return overdraft(held, qty)
			}
			held = held.Sub(qty)
		} else {
			held = held.Add(qty)
		}
	}
	if err := rows.Err(); err != nil {
		return &StorageError{Op: "scan held quantity", Err: err}
	}

	if !applied && cand.Quantity.GreaterThan(held) {
		return overdraft(held, cand.Quantity)
	}
	return nil
}

// AddInstrument registers an instrument explicitly. It fails if the ID is
// already taken (instruments are immutable once created).
func (s *Store) AddInstrument(ins model.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ins.ID == "" {
		return &ValidationError{Field: "id", Err: errors.New("instrument id is required")}
	}
	if !model.KnownCurrency(ins.Currency) {
		return &ValidationError{Field: "currency", Err: fmt.Errorf("%w: %q", ErrUnknownCurrency, ins.Currency)}
	}
	if _, err := s.db.Exec(`INSERT INTO instrument (id, name, currency) VALUES (?, ?, ?)`,
		ins.ID, ins.Name, ins.Currency); err != nil {
		return &StorageError{Op: "insert instrument", Err: err}
	}
	return nil
}

// AddAccount registers an account explicitly.
func (s *Store) AddAccount(a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		return &ValidationError{Field: "id", Err: errors.New("account id is required")}
	}
	if !model.KnownCurrency(a.Currency) {
		return &ValidationError{Field: "currency", Err: fmt.Errorf("%w: %q", ErrUnknownCurrency, a.Currency)}
	}
	if _, err := s.db.Exec(`INSERT INTO account (id, broker, currency) VALUES (?, ?, ?)`,
		a.ID, a.Broker, a.Currency); err != nil {
		return &StorageError{Op: "insert account", Err: err}
	}
	return nil
}

// SetInstrumentName updates an instrument's display name. Identity and
// currency stay immutable.
func (s *Store) SetInstrumentName(instrumentID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE instrument SET name = ? WHERE id = ?`, name, instrumentID)
	if err != nil {
		return &StorageError{Op: "update instrument name", Err: err}
	}
	return requireOneRow(res, ErrUnknownInstrument, instrumentID)
}

// SetAccountBroker updates an account's broker display name.
func (s *Store) SetAccountBroker(accountID, broker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE account SET broker = ? WHERE id = ?`, broker, accountID)
	if err != nil {
		return &StorageError{Op: "update account broker", Err: err}
	}
	return requireOneRow(res, ErrUnknownAccount, accountID)
}

func requireOneRow(res sql.Result, sentinel error, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: "rows affected", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", sentinel, key)
	}
	return nil
}
