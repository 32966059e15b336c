package model

import "github.com/Rhymond/go-money"

// Account is a brokerage account holding instruments. The identifier is
// immutable once a transaction references it; Broker is a display attribute.
type Account struct {
	ID       string
	Broker   string
	Currency string
}

// Instrument is a tradeable security. Immutable once referenced by a
// transaction.
type Instrument struct {
	ID       string // ticker or ISIN
	Name     string
	Currency string
}

// KnownCurrency reports whether code is a recognised ISO currency code.
func KnownCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}
