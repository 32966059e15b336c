// Package position derives holdings from the transaction history.
//
// Cost basis uses the average-cost method: a buy folds its cost (fee
// included) into the weighted-average price of the lot, a sell realizes
// gain against that average and leaves it unchanged. FIFO/LIFO are
// deliberately not implemented.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/folio-dev/folio/internal/market"
	"github.com/folio-dev/folio/internal/model"
)

// OverdraftError reports a sell of more units than currently held. The
// store already rejects these at the append boundary; the engine keeps its
// own check so a hand-built transaction slice cannot slip past it.
type OverdraftError = model.OverdraftError

// Compute folds the transaction sequence into positions. It is pure: the
// result depends only on txs (which must already be in ledger order) and
// the supplied price source. A missing quote leaves the position without
// market annotations rather than failing.
func Compute(txs []model.Transaction, prices market.PriceSource) (map[model.Key]model.Position, error) {
	positions := make(map[model.Key]model.Position)

	for _, tx := range txs {
		key := model.Key{AccountID: tx.AccountID, InstrumentID: tx.InstrumentID}
		pos, ok := positions[key]
		if !ok {
			pos = model.Position{
				AccountID:    tx.AccountID,
				InstrumentID: tx.InstrumentID,
				Currency:     tx.Currency,
			}
		}

		switch tx.Side {
		case model.SideBuy:
			pos = applyBuy(pos, tx)
		case model.SideSell:
			next, err := applySell(pos, tx)
			if err != nil {
				return nil, err
			}
			pos = next
		case model.SideDividend:
			pos.Dividends = pos.Dividends.Add(tx.CashAmount())
			pos.Fees = pos.Fees.Add(tx.Fee)
		case model.SideFee:
			pos.Fees = pos.Fees.Add(tx.Fee)
		}

		positions[key] = pos
	}

	annotate(positions, prices)
	return positions, nil
}

func applyBuy(pos model.Position, tx model.Transaction) model.Position {
	// new_avg = (old_qty*old_avg + buy_qty*price + fee) / (old_qty + buy_qty)
	oldCost := pos.Quantity.Mul(pos.AvgCost)
	buyCost := tx.GrossAmount().Add(tx.Fee)
	newQty := pos.Quantity.Add(tx.Quantity)

	pos.AvgCost = oldCost.Add(buyCost).Div(newQty)
	pos.Quantity = newQty
	return pos
}

func applySell(pos model.Position, tx model.Transaction) (model.Position, error) {
	if tx.Quantity.GreaterThan(pos.Quantity) {
		return model.Position{}, &OverdraftError{
			TxID:         tx.ID,
			AccountID:    tx.AccountID,
			InstrumentID: tx.InstrumentID,
			Held:         pos.Quantity,
			Requested:    tx.Quantity,
		}
	}

	// realized += qty*(price - avg) - fee; the average cost of the
	// remaining units does not move on a sell.
	gain := tx.Quantity.Mul(tx.UnitPrice.Sub(pos.AvgCost)).Sub(tx.Fee)
	pos.RealizedGain = pos.RealizedGain.Add(gain)
	pos.Quantity = pos.Quantity.Sub(tx.Quantity)
	if pos.Quantity.IsZero() {
		pos.AvgCost = decimal.Zero
	}
	return pos, nil
}

func annotate(positions map[model.Key]model.Position, prices market.PriceSource) {
	if prices == nil {
		return
	}
	for key, pos := range positions {
		price, ok := prices.Quote(pos.InstrumentID)
		if !ok {
			continue
		}
		pos.HasMarketData = true
		pos.MarketPrice = price
		pos.MarketValue = pos.Quantity.Mul(price)
		pos.UnrealizedGain = pos.MarketValue.Sub(pos.CostBasis())
		positions[key] = pos
	}
}
