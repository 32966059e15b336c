// Package market is the boundary to the market-data collaborator. The core
// never fetches prices itself; it consumes whatever source the caller wires
// in, and works without one.
package market

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PriceSource supplies current reference prices keyed by instrument ID.
// A miss is normal (collaborator unreachable, instrument unknown); callers
// must degrade gracefully.
type PriceSource interface {
	Quote(instrumentID string) (decimal.Decimal, bool)
}

// Static is a fixed in-memory price table.
type Static map[string]decimal.Decimal

// Quote implements PriceSource.
func (s Static) Quote(instrumentID string) (decimal.Decimal, bool) {
	price, ok := s[instrumentID]
	return price, ok
}

// Unavailable returns a source that never has a quote.
func Unavailable() PriceSource {
	return Static(nil)
}

// LoadFile reads a YAML price table (instrument ID -> decimal price).
func LoadFile(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prices: %w", err)
	}

	// Values are decoded as raw nodes so quoted prices keep their exact
	// decimal representation.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing prices: %w", err)
	}

	prices := make(Static, len(raw))
	for instrumentID, node := range raw {
		price, err := decimal.NewFromString(node.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing price for %s: %w", instrumentID, err)
		}
		prices[instrumentID] = price
	}
	return prices, nil
}
