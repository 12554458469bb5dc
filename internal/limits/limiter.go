// Package limits implements position limits that account for creator
// concentration across coins.
//
// A user loading up on every coin from the same creator carries
// correlated rug risk. This package enforces a per-coin token cap plus
// an aggregate MLT exposure cap across all coins sharing a creator.
package limits

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/model"
)

var (
	// ErrPerCoinLimitExceeded is returned when a trade would push a single
	// coin's holding beyond the per-coin maximum.
	ErrPerCoinLimitExceeded = errors.New("limits: per-coin position limit exceeded")

	// ErrCreatorLimitExceeded is returned when a trade would push the
	// aggregate MLT exposure across one creator's coins beyond the
	// creator maximum.
	ErrCreatorLimitExceeded = errors.New("limits: creator exposure limit exceeded")
)

// PositionLimiter enforces position limits with creator awareness.
type PositionLimiter struct {
	// MaxPerCoin is the maximum token holding in any single coin.
	MaxPerCoin decimal.Decimal

	// MaxPerCreator is the maximum aggregate MLT value held across all
	// coins from a single creator.
	MaxPerCreator decimal.Decimal
}

// NewPositionLimiter creates a limiter with the given per-coin and
// per-creator exposure limits.
func NewPositionLimiter(maxPerCoin, maxPerCreator decimal.Decimal) *PositionLimiter {
	return &PositionLimiter{
		MaxPerCoin:    maxPerCoin,
		MaxPerCreator: maxPerCreator,
	}
}

// CheckBuy validates whether a buy respects position limits.
//
// Parameters:
//   - coinID, creatorID: the coin being bought and who created it
//   - tokenDelta: tokens being added to the holding
//   - valueDelta: MLT cost of the buy
//   - holdings: the user's current holdings across all coins
//
// Returns nil if the trade is within limits, or an error naming the
// violated limit.
func (l *PositionLimiter) CheckBuy(
	coinID, creatorID string,
	tokenDelta, valueDelta decimal.Decimal,
	holdings []model.Holding,
) error {
	// 1. Per-coin token cap.
	newTokens := tokenDelta
	for _, h := range holdings {
		if h.CoinID == coinID {
			newTokens = newTokens.Add(h.Amount)
			break
		}
	}
	if newTokens.GreaterThan(l.MaxPerCoin) {
		return ErrPerCoinLimitExceeded
	}

	// 2. Creator exposure: sum current value across this creator's coins.
	totalExposure := valueDelta
	for _, h := range holdings {
		if h.CreatorID == creatorID {
			totalExposure = totalExposure.Add(h.CurrentValue)
		}
	}
	if totalExposure.GreaterThan(l.MaxPerCreator) {
		return ErrCreatorLimitExceeded
	}

	return nil
}
