package id

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh transaction ID. ULIDs sort lexicographically by
// creation time, which keeps exported tables in a stable, readable order.
func New() string {
	return ulid.Make().String()
}

// Validate checks that s is a well-formed transaction ID.
func Validate(s string) error {
	if _, err := ulid.ParseStrict(s); err != nil {
		return fmt.Errorf("invalid transaction ID %q: %w", s, err)
	}
	return nil
}
