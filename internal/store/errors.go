package store

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID       = errors.New("duplicate transaction id")
	ErrDuplicateSeq      = errors.New("duplicate insertion sequence")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrUnknownCurrency   = errors.New("unknown currency code")
	ErrZeroQuantity      = errors.New("quantity must be positive for buy/sell")
	ErrNegativeAmount    = errors.New("unit price and fee must not be negative")
)

// ValidationError reports a transaction rejected at the append boundary.
// The store is unchanged when one is returned.
type ValidationError struct {
	TxID  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction %s: field %s: %v", e.TxID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError wraps a failure of the underlying persistence engine. The
// surrounding operation was never partially applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
