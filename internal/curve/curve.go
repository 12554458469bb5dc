// Package curve implements the exponential bonding curve that prices
// MLT meme coins as a function of how much of their supply has been sold.
//
// The instantaneous price follows:
//
//	price(p) = P0 * exp(k * p)
//
// where P0 = initialInvestment / totalSupply is fixed at coin creation,
// k is the curve steepness (default 4.0, shared by all coins), and
// p = circulatingSupply / totalSupply is the sale progress, clamped to
// [0, 1] at every price evaluation. At k = 4.0 a fully sold coin trades
// at e^4 ≈ 54.6x its initial price.
//
// The engine is a pure calculator: it holds no state, performs no I/O,
// and enforces no supply-conservation business rules. Callers validate
// available supply before buys and holdings before sells; the engine
// exposes raw post-trade supply and progress so violations are
// detectable.
//
// All monetary values use shopspring/decimal — never float64 for money.
// Internal transcendental math uses float64, with results immediately
// converted to decimal.
package curve

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoefficient is returned when k < 0.
	ErrInvalidCoefficient = errors.New("curve: coefficient k must be non-negative")

	// ErrInvalidSupply is returned when total supply or initial
	// investment is non-positive.
	ErrInvalidSupply = errors.New("curve: total supply and initial investment must be positive")

	// ErrInvalidAmount is returned when a trade amount is zero or negative.
	ErrInvalidAmount = errors.New("curve: trade amount must be positive")

	// ErrInsufficientSupply is exported for callers that enforce supply
	// conservation around buys. The engine itself never returns it.
	ErrInsufficientSupply = errors.New("curve: insufficient available supply")

	// PriceScale is the number of decimal places for price/cost rounding.
	PriceScale int32 = 8
)

// DefaultK is the curve steepness shared by all coins.
const DefaultK = 4.0

// Direction selects which way a trade traverses the curve.
type Direction int

const (
	Buy Direction = iota
	Sell
)

// Curve prices trades against the exponential bonding curve.
// It is stateless — coin economics are passed as arguments, not stored.
type Curve struct {
	k float64
}

// New creates a curve with the given steepness coefficient.
func New(k float64) (*Curve, error) {
	if k < 0 {
		return nil, ErrInvalidCoefficient
	}
	return &Curve{k: k}, nil
}

// Default returns a curve with the standard coefficient k = 4.0.
func Default() *Curve {
	return &Curve{k: DefaultK}
}

// K returns the steepness coefficient.
func (c *Curve) K() float64 {
	return c.k
}

// TradeResult captures everything a trade against the curve produces.
// NewCirculatingSupply and NewProgress are raw (not clamped) so callers
// can detect supply overflow on buys and underflow on sells.
type TradeResult struct {
	OldPrice     decimal.Decimal `json:"old_price"`
	NewPrice     decimal.Decimal `json:"new_price"`
	AveragePrice decimal.Decimal `json:"average_price"`

	OldProgress    decimal.Decimal `json:"old_progress"`
	NewProgress    decimal.Decimal `json:"new_progress"`
	ProgressChange decimal.Decimal `json:"progress_change"`

	OldCirculatingSupply decimal.Decimal `json:"old_circulating_supply"`
	NewCirculatingSupply decimal.Decimal `json:"new_circulating_supply"`

	// MLTAmount is the total cost of a buy or the proceeds of a sell.
	MLTAmount decimal.Decimal `json:"mlt_amount"`

	NewMarketCap decimal.Decimal `json:"new_market_cap"`
}

// InitialPrice computes the price at progress zero:
//
//	P0 = initialInvestment / totalSupply
//
// Fixed at coin creation and never changed afterwards.
func InitialPrice(initialInvestment, totalSupply decimal.Decimal) (decimal.Decimal, error) {
	if totalSupply.LessThanOrEqual(decimal.Zero) || initialInvestment.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrInvalidSupply
	}
	return initialInvestment.Div(totalSupply), nil
}

// clampProgress bounds progress to [0, 1].
func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// priceAt evaluates P0 * exp(k * clamp(p)) in float64.
func (c *Curve) priceAt(p0, p float64) float64 {
	return p0 * math.Exp(c.k*clampProgress(p))
}

// averageOver returns the arithmetic mean of priceAt across the progress
// interval between a and b, in float64.
//
// The mean has a closed form: since both endpoints are clamped to [0, 1]
// the integral of P0*exp(k*p) over [a, b] is (price(b) - price(a)) / k,
// so the mean is (price(b) - price(a)) / (k * (b - a)). The traversal
// direction does not matter — the formula is symmetric in a and b.
func (c *Curve) averageOver(p0, a, b float64) float64 {
	a = clampProgress(a)
	b = clampProgress(b)
	if a == b || c.k == 0 {
		return c.priceAt(p0, a)
	}
	return (c.priceAt(p0, b) - c.priceAt(p0, a)) / (c.k * (b - a))
}

// CurrentPrice returns the instantaneous price at the given progress.
// Progress is clamped to [0, 1]; callers must not rely on out-of-range
// progress extrapolating the curve.
func (c *Curve) CurrentPrice(initialPrice, progress decimal.Decimal) decimal.Decimal {
	price := c.priceAt(initialPrice.InexactFloat64(), progress.InexactFloat64())
	return decimal.NewFromFloat(price).Round(PriceScale)
}

// AveragePrice returns the mean execution price for trading tradeAmount
// tokens starting from circulatingSupply, in the given direction. A zero
// tradeAmount degenerates to the spot price at the unchanged progress.
// Negative amounts are rejected with ErrInvalidAmount.
func (c *Curve) AveragePrice(initialPrice, totalSupply, circulatingSupply, tradeAmount decimal.Decimal, dir Direction) (decimal.Decimal, error) {
	if totalSupply.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrInvalidSupply
	}
	if tradeAmount.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	p0 := initialPrice.InexactFloat64()
	ts := totalSupply.InexactFloat64()
	cs := circulatingSupply.InexactFloat64()
	amt := tradeAmount.InexactFloat64()

	start := cs / ts
	var end float64
	if dir == Buy {
		end = (cs + amt) / ts
	} else {
		end = (cs - amt) / ts
	}

	avg := c.averageOver(p0, start, end)
	return decimal.NewFromFloat(avg).Round(PriceScale), nil
}

// BuyTrade prices a purchase of buyAmount tokens.
//
// The engine does not reject buys that would push circulating supply
// above total supply: callers check available supply beforehand and
// reject with ErrInsufficientSupply. NewCirculatingSupply and
// NewProgress carry the raw values so such overflow is visible; only
// the progress fed into the price formula is clamped.
func (c *Curve) BuyTrade(initialInvestment, totalSupply, circulatingSupply, buyAmount decimal.Decimal) (*TradeResult, error) {
	if buyAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return c.trade(initialInvestment, totalSupply, circulatingSupply, buyAmount, Buy)
}

// SellTrade prices a sale of sellAmount tokens.
//
// Symmetric to BuyTrade: the engine does not clamp circulating supply
// at zero — callers validate the seller's holding (and the coin's
// circulating supply) first, so proceeds are always computed on a
// fully-backed amount.
func (c *Curve) SellTrade(initialInvestment, totalSupply, circulatingSupply, sellAmount decimal.Decimal) (*TradeResult, error) {
	if sellAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return c.trade(initialInvestment, totalSupply, circulatingSupply, sellAmount, Sell)
}

func (c *Curve) trade(initialInvestment, totalSupply, circulatingSupply, amount decimal.Decimal, dir Direction) (*TradeResult, error) {
	initialPrice, err := InitialPrice(initialInvestment, totalSupply)
	if err != nil {
		return nil, err
	}

	p0 := initialPrice.InexactFloat64()
	ts := totalSupply.InexactFloat64()
	cs := circulatingSupply.InexactFloat64()
	amt := amount.InexactFloat64()

	var newCS float64
	if dir == Buy {
		newCS = cs + amt
	} else {
		newCS = cs - amt
	}

	oldProgress := cs / ts
	newProgress := newCS / ts

	oldPrice := c.priceAt(p0, oldProgress)
	newPrice := c.priceAt(p0, newProgress)
	avgPrice := c.averageOver(p0, oldProgress, newProgress)
	mltAmount := avgPrice * amt
	marketCap := newPrice * newCS

	return &TradeResult{
		OldPrice:             decimal.NewFromFloat(oldPrice).Round(PriceScale),
		NewPrice:             decimal.NewFromFloat(newPrice).Round(PriceScale),
		AveragePrice:         decimal.NewFromFloat(avgPrice).Round(PriceScale),
		OldProgress:          decimal.NewFromFloat(oldProgress).Round(PriceScale),
		NewProgress:          decimal.NewFromFloat(newProgress).Round(PriceScale),
		ProgressChange:       decimal.NewFromFloat(newProgress - oldProgress).Round(PriceScale),
		OldCirculatingSupply: circulatingSupply,
		NewCirculatingSupply: decimal.NewFromFloat(newCS),
		MLTAmount:            decimal.NewFromFloat(mltAmount).Round(PriceScale),
		NewMarketCap:         decimal.NewFromFloat(marketCap).Round(PriceScale),
	}, nil
}

// MinimumPrePurchase solves for the smallest whole-token buy, starting
// from zero circulating supply, whose cost is at least minimumCost MLT.
//
// The search seeds an estimate from minimumCost / P0, refines it with a
// 20-iteration binary search over [0.5*estimate, 2*estimate] converging
// on a 0.01 MLT cost tolerance, and ceils to whole tokens. The ceiling
// alone does not guarantee the cost clears the minimum (the tolerance
// is two-sided), so the result is bumped token by token until it does.
func (c *Curve) MinimumPrePurchase(minimumCost, initialInvestment, totalSupply decimal.Decimal) (decimal.Decimal, error) {
	if minimumCost.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	initialPrice, err := InitialPrice(initialInvestment, totalSupply)
	if err != nil {
		return decimal.Decimal{}, err
	}

	p0 := initialPrice.InexactFloat64()
	ts := totalSupply.InexactFloat64()
	target := minimumCost.InexactFloat64()

	cost := func(amount float64) float64 {
		return c.averageOver(p0, 0, amount/ts) * amount
	}

	estimate := target / p0
	low, high := estimate*0.5, estimate*2

	var tokens float64
	for i := 0; i < 20; i++ {
		mid := (low + high) / 2
		got := cost(mid)

		if math.Abs(got-target) < 0.01 {
			tokens = math.Ceil(mid)
			break
		}
		if got < target {
			low = mid
		} else {
			high = mid
		}
	}
	if tokens == 0 {
		tokens = math.Ceil(high)
	}

	// Cost is strictly increasing in the amount, so this terminates.
	for cost(tokens) < target {
		tokens++
	}

	return decimal.NewFromFloat(tokens), nil
}
