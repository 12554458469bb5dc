// Package market layers trading-floor effects on top of the raw curve
// price: hype adjustments and execution slippage. These live outside
// the curve engine so the deterministic math stays testable on its own.
package market

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// Hype tuning constants.
var (
	// hypeDivisor converts a hype score into a price multiplier:
	// multiplier = 1 + hype/10000, so 100 hype moves the price 1%.
	hypeDivisor = decimal.NewFromInt(10000)

	// buyHypePerToken is the hype gained per token bought.
	buyHypePerToken = decimal.NewFromFloat(0.01)

	// sellHypePerToken is the hype lost per token sold.
	sellHypePerToken = decimal.NewFromFloat(0.005)
)

// Slippage bands. Buys pay a premium, sells take a discount.
const (
	buySlipMin  = 0.01
	buySlipMax  = 0.03
	sellSlipMin = 0.02
	sellSlipMax = 0.05
)

// HypeMultiplier returns the display-price multiplier for a hype score.
func HypeMultiplier(hype decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(hype.Div(hypeDivisor))
}

// ApplyHype scales a curve price by the coin's hype multiplier.
func ApplyHype(price, hype decimal.Decimal) decimal.Decimal {
	return price.Mul(HypeMultiplier(hype))
}

// BumpHype returns the coin's hype score after a buy of the given size.
func BumpHype(hype, amount decimal.Decimal) decimal.Decimal {
	return hype.Add(amount.Mul(buyHypePerToken))
}

// DecayHype returns the coin's hype score after a sell of the given
// size. Hype never goes negative.
func DecayHype(hype, amount decimal.Decimal) decimal.Decimal {
	next := hype.Sub(amount.Mul(sellHypePerToken))
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

// Slipper applies random execution slippage to trade totals. The rand
// source is injectable so tests can pin the outcome.
type Slipper struct {
	rng *rand.Rand
}

// NewSlipper creates a Slipper from a rand source.
func NewSlipper(src rand.Source) *Slipper {
	return &Slipper{rng: rand.New(src)}
}

// BuyTotal inflates a buy cost by a random 1-3% premium.
func (s *Slipper) BuyTotal(cost decimal.Decimal) decimal.Decimal {
	factor := 1 + buySlipMin + s.rng.Float64()*(buySlipMax-buySlipMin)
	return cost.Mul(decimal.NewFromFloat(factor))
}

// SellTotal deflates sell proceeds by a random 2-5% discount.
func (s *Slipper) SellTotal(proceeds decimal.Decimal) decimal.Decimal {
	factor := 1 - sellSlipMin - s.rng.Float64()*(sellSlipMax-sellSlipMin)
	return proceeds.Mul(decimal.NewFromFloat(factor))
}
