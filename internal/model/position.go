package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Key identifies a position by account and instrument.
type Key struct {
	AccountID    string
	InstrumentID string
}

// Position is the derived state of one account+instrument pair. Positions
// are never persisted; they are recomputed from the transaction history.
type Position struct {
	AccountID    string
	InstrumentID string
	Currency     string
	Quantity     decimal.Decimal
	AvgCost      decimal.Decimal
	RealizedGain decimal.Decimal
	Dividends    decimal.Decimal
	Fees         decimal.Decimal

	// Market-data annotations, present only when a reference price was
	// available from the price source.
	HasMarketData  bool
	MarketPrice    decimal.Decimal
	MarketValue    decimal.Decimal
	UnrealizedGain decimal.Decimal
}

// Key returns the position's identifying key.
func (p Position) Key() Key {
	return Key{AccountID: p.AccountID, InstrumentID: p.InstrumentID}
}

// CostBasis returns quantity x average cost, the total acquisition cost of
// the units still held.
func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AvgCost)
}

// OverdraftError reports a sell of more units than held at its point in the
// ledger order. It is surfaced, never clamped: it means a prior transaction
// is missing or the broker data is wrong. The store rejects such a sell at
// the append boundary; the position engine re-checks during derivation.
type OverdraftError struct {
	TxID         string
	AccountID    string
	InstrumentID string
	Held         decimal.Decimal
	Requested    decimal.Decimal
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf("transaction %s: sell %s of %s in account %s exceeds held quantity %s",
		e.TxID, e.Requested, e.InstrumentID, e.AccountID, e.Held)
}
