package limits

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func holding(coinID, creatorID string, amount, value float64) model.Holding {
	return model.Holding{
		CoinID:       coinID,
		CreatorID:    creatorID,
		Amount:       d(amount),
		CurrentValue: d(value),
	}
}

func TestCheckBuy_WithinLimits(t *testing.T) {
	limiter := NewPositionLimiter(d(100000), d(5000))

	err := limiter.CheckBuy("coin-1", "creator-1", d(1000), d(10), nil)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckBuy_PerCoinExceeded(t *testing.T) {
	limiter := NewPositionLimiter(d(100000), d(5000))

	// Existing holding of 95000 + new 10000 = 105000 > 100000.
	holdings := []model.Holding{
		holding("coin-1", "creator-1", 95000, 200),
	}

	err := limiter.CheckBuy("coin-1", "creator-1", d(10000), d(30), holdings)
	if err != ErrPerCoinLimitExceeded {
		t.Errorf("expected ErrPerCoinLimitExceeded, got %v", err)
	}
}

func TestCheckBuy_PerCoinNotExceeded(t *testing.T) {
	limiter := NewPositionLimiter(d(100000), d(5000))

	holdings := []model.Holding{
		holding("coin-1", "creator-1", 50000, 100),
	}

	err := limiter.CheckBuy("coin-1", "creator-1", d(10000), d(30), holdings)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckBuy_CreatorExposureExceeded(t *testing.T) {
	limiter := NewPositionLimiter(d(1000000), d(2000))

	// Three coins from the same creator.
	holdings := []model.Holding{
		holding("coin-1", "creator-1", 1000, 800),
		holding("coin-2", "creator-1", 1000, 800),
		holding("coin-3", "creator-1", 1000, 300),
	}

	// New buy worth 200 in a fourth coin from the same creator:
	// total = 200 + 800 + 800 + 300 = 2100 > 2000.
	err := limiter.CheckBuy("coin-4", "creator-1", d(100), d(200), holdings)
	if err != ErrCreatorLimitExceeded {
		t.Errorf("expected ErrCreatorLimitExceeded, got %v", err)
	}
}

func TestCheckBuy_OtherCreatorsIgnored(t *testing.T) {
	limiter := NewPositionLimiter(d(1000000), d(2000))

	holdings := []model.Holding{
		holding("coin-1", "creator-1", 1000, 800),
		holding("coin-2", "creator-2", 1000, 900),
	}

	// Creator-1 exposure = 500 + 800 = 1300 < 2000 (creator-2 excluded).
	err := limiter.CheckBuy("coin-3", "creator-1", d(100), d(500), holdings)
	if err != nil {
		t.Errorf("other creators' coins should be ignored, got %v", err)
	}
}

func TestCheckBuy_SerialCreatorScenario(t *testing.T) {
	// A creator pumping out 15 coins, user holds 200 MLT of each.
	// MaxPerCreator = 3000 means the user cannot add more exposure.
	limiter := NewPositionLimiter(d(1000000), d(3000))

	var holdings []model.Holding
	for i := 0; i < 15; i++ {
		holdings = append(holdings,
			holding("coin-"+string(rune('a'+i)), "serial-creator", 100, 200))
	}

	// Total existing = 15 × 200 = 3000. Adding 100 more exceeds the cap.
	err := limiter.CheckBuy("coin-z", "serial-creator", d(50), d(100), holdings)
	if err != ErrCreatorLimitExceeded {
		t.Errorf("expected creator limit exceeded, got %v", err)
	}
}

func TestCheckBuy_NilHoldings(t *testing.T) {
	limiter := NewPositionLimiter(d(100000), d(5000))

	err := limiter.CheckBuy("coin-1", "creator-1", d(500), d(5), nil)
	if err != nil {
		t.Errorf("nil holdings should be treated as empty, got %v", err)
	}
}
