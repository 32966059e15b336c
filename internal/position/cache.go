package position

import (
	"sync"

	"github.com/folio-dev/folio/internal/market"
	"github.com/folio-dev/folio/internal/model"
	"github.com/folio-dev/folio/internal/store"
)

// Engine computes positions for a ledger store, caching the result keyed on
// the store's revision. A stale cache is never served: any append bumps the
// revision and forces a recompute.
type Engine struct {
	store  *store.Store
	prices market.PriceSource

	mu       sync.Mutex
	cacheRev int64
	cache    map[model.Key]model.Position
	cached   bool
}

// NewEngine creates an Engine. prices may be market.Unavailable() when no
// reference prices are reachable; positions then carry no market
// annotations.
func NewEngine(st *store.Store, prices market.PriceSource) *Engine {
	return &Engine{store: st, prices: prices}
}

// Positions returns the current positions, recomputing from the full
// transaction history when the store has changed since the last call.
func (e *Engine) Positions() (map[model.Key]model.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rev, err := e.store.Revision()
	if err != nil {
		return nil, err
	}
	if e.cached && rev == e.cacheRev {
		return clonePositions(e.cache), nil
	}

	txs, err := e.store.Transactions(store.Filter{})
	if err != nil {
		return nil, err
	}
	positions, err := Compute(txs, e.prices)
	if err != nil {
		return nil, err
	}

	e.cache = positions
	e.cacheRev = rev
	e.cached = true
	return clonePositions(positions), nil
}

func clonePositions(in map[model.Key]model.Position) map[model.Key]model.Position {
	out := make(map[model.Key]model.Position, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
