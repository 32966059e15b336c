package codec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folio-dev/folio/internal/model"
)

// Column indices, fixed by the schema registry.
const (
	colInstrumentID       = 0
	colInstrumentName     = 1
	colInstrumentCurrency = 2

	colAccountID       = 0
	colAccountBroker   = 1
	colAccountCurrency = 2

	colTxID         = 0
	colTxSeq        = 1
	colTxAccount    = 2
	colTxInstrument = 3
	colTxSide       = 4
	colTxQuantity   = 5
	colTxUnitPrice  = 6
	colTxCurrency   = 7
	colTxFee        = 8
	colTxTimestamp  = 9

	txFields = 10
)

// MarshalInstrument converts an Instrument to a table row.
func MarshalInstrument(ins model.Instrument) []string {
	return []string{ins.ID, ins.Name, ins.Currency}
}

// UnmarshalInstrument converts a table row to an Instrument.
func UnmarshalInstrument(row []string) (model.Instrument, error) {
	if len(row) != 3 {
		return model.Instrument{}, fmt.Errorf("expected 3 fields, got %d", len(row))
	}
	return model.Instrument{
		ID:       row[colInstrumentID],
		Name:     row[colInstrumentName],
		Currency: row[colInstrumentCurrency],
	}, nil
}

// MarshalAccount converts an Account to a table row.
func MarshalAccount(a model.Account) []string {
	return []string{a.ID, a.Broker, a.Currency}
}

// UnmarshalAccount converts a table row to an Account.
func UnmarshalAccount(row []string) (model.Account, error) {
	if len(row) != 3 {
		return model.Account{}, fmt.Errorf("expected 3 fields, got %d", len(row))
	}
	return model.Account{
		ID:       row[colAccountID],
		Broker:   row[colAccountBroker],
		Currency: row[colAccountCurrency],
	}, nil
}

// MarshalTransaction converts a Transaction to a table row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, txFields)
	row[colTxID] = t.ID
	row[colTxSeq] = strconv.FormatInt(t.Seq, 10)
	row[colTxAccount] = t.AccountID
	row[colTxInstrument] = t.InstrumentID
	row[colTxSide] = string(t.Side)
	row[colTxQuantity] = t.Quantity.String()
	row[colTxUnitPrice] = t.UnitPrice.String()
	row[colTxCurrency] = t.Currency
	row[colTxFee] = t.Fee.String()
	row[colTxTimestamp] = t.Timestamp.UTC().Format(time.RFC3339)
	return row
}

// UnmarshalTransaction converts a table row to a Transaction.
func UnmarshalTransaction(row []string) (model.Transaction, error) {
	if len(row) != txFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", txFields, len(row))
	}

	seq, err := strconv.ParseInt(row[colTxSeq], 10, 64)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing seq %q: %w", row[colTxSeq], err)
	}

	quantity, err := decimal.NewFromString(row[colTxQuantity])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing quantity %q: %w", row[colTxQuantity], err)
	}

	unitPrice, err := decimal.NewFromString(row[colTxUnitPrice])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing unit_price %q: %w", row[colTxUnitPrice], err)
	}

	fee, err := decimal.NewFromString(row[colTxFee])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing fee %q: %w", row[colTxFee], err)
	}

	ts, err := time.Parse(time.RFC3339, row[colTxTimestamp])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing ts %q: %w", row[colTxTimestamp], err)
	}

	side := model.Side(row[colTxSide])
	if !side.Valid() {
		return model.Transaction{}, fmt.Errorf("unknown side %q", row[colTxSide])
	}

	return model.Transaction{
		ID:           row[colTxID],
		Seq:          seq,
		AccountID:    row[colTxAccount],
		InstrumentID: row[colTxInstrument],
		Side:         side,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Currency:     row[colTxCurrency],
		Fee:          fee,
		Timestamp:    ts.UTC(),
	}, nil
}
