package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultRiskPerTrade is the fraction of balance risked between entry and stop.
const DefaultRiskPerTrade = 0.01

// Lots holds the per-symbol lot constraints.
type Lots struct {
	ValuePerPoint float64
	MinLot        float64
	MaxLot        float64
	LotStep       float64
}

// Policy converts a risk fraction and stop distance into a lot-aligned quantity.
type Policy struct {
	RiskPerTrade float64
}

// NewPolicy returns a policy, falling back to DefaultRiskPerTrade for non-positive fractions.
func NewPolicy(riskPerTrade float64) Policy {
	if riskPerTrade <= 0 {
		riskPerTrade = DefaultRiskPerTrade
	}
	return Policy{RiskPerTrade: riskPerTrade}
}

// RawSize is the unrounded quantity that risks RiskPerTrade*balance between entry and stop.
func (p Policy) RawSize(entry, stop, balance, valuePerPoint float64) float64 {
	riskPerUnit := math.Abs(entry-stop) * valuePerPoint
	if riskPerUnit <= 0 || balance <= 0 || math.IsNaN(riskPerUnit) || math.IsInf(riskPerUnit, 0) {
		return 0
	}
	return p.RiskPerTrade * balance / riskPerUnit
}

// Size rounds RawSize to the nearest lot step and clamps it to [MinLot, MaxLot].
// Zero means the trade must not be placed.
func (p Policy) Size(entry, stop, balance float64, lots Lots) decimal.Decimal {
	raw := p.RawSize(entry, stop, balance, lots.ValuePerPoint)
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return decimal.Zero
	}

	qty := decimal.NewFromFloat(raw)
	if lots.LotStep > 0 {
		step := decimal.NewFromFloat(lots.LotStep)
		qty = qty.Div(step).Round(0).Mul(step)
	}

	if lots.MinLot > 0 {
		if min := decimal.NewFromFloat(lots.MinLot); qty.LessThan(min) {
			qty = min
		}
	}
	if lots.MaxLot > 0 {
		if max := decimal.NewFromFloat(lots.MaxLot); qty.GreaterThan(max) {
			qty = max
		}
	}

	if !qty.IsPositive() {
		return decimal.Zero
	}
	return qty
}
