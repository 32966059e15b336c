package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side classifies a ledger transaction.
type Side string

const (
	SideBuy      Side = "buy"
	SideSell     Side = "sell"
	SideDividend Side = "dividend"
	SideFee      Side = "fee"
)

// Valid reports whether s is a known transaction side.
func (s Side) Valid() bool {
	switch s {
	case SideBuy, SideSell, SideDividend, SideFee:
		return true
	}
	return false
}

// Transaction is a single immutable row in the ledger. Rows are never edited
// or deleted after commit; a correction is a new offsetting transaction.
type Transaction struct {
	ID           string
	Seq          int64 // insertion sequence, assigned by the store
	AccountID    string
	InstrumentID string
	Side         Side
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Currency     string
	Fee          decimal.Decimal
	Timestamp    time.Time
}

// GrossAmount returns quantity x unit price, before fees.
func (t Transaction) GrossAmount() decimal.Decimal {
	return t.Quantity.Mul(t.UnitPrice)
}

// CashAmount returns the cash moved by a dividend. A per-unit dividend
// carries the unit amount in UnitPrice and the entitled units in Quantity;
// a flat cash dividend carries the amount in UnitPrice with zero Quantity.
func (t Transaction) CashAmount() decimal.Decimal {
	if t.Quantity.IsZero() {
		return t.UnitPrice
	}
	return t.GrossAmount()
}
