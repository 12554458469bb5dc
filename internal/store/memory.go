package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	coins   map[string]*model.Coin
	ledger  []model.Transaction
	history []model.PricePoint
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		coins: make(map[string]*model.Coin),
	}
}

func (s *MemoryStore) CreateCoin(_ context.Context, c *model.Coin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.coins {
		if existing.Symbol == c.Symbol {
			return fmt.Errorf("coin with symbol %s already exists", c.Symbol)
		}
	}

	// Store a copy to avoid external mutation.
	copy := *c
	s.coins[c.ID] = &copy
	return nil
}

func (s *MemoryStore) GetCoin(_ context.Context, id string) (*model.Coin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.coins[id]
	if !ok {
		return nil, fmt.Errorf("coin %s not found", id)
	}
	copy := *c
	return &copy, nil
}

func (s *MemoryStore) GetCoinBySymbol(_ context.Context, symbol string) (*model.Coin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.coins {
		if c.Symbol == symbol {
			copy := *c
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("coin with symbol %s not found", symbol)
}

func (s *MemoryStore) ListCoins(_ context.Context) ([]model.Coin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coins := make([]model.Coin, 0, len(s.coins))
	for _, c := range s.coins {
		coins = append(coins, *c)
	}
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].CreatedAt.After(coins[j].CreatedAt)
	})
	return coins, nil
}

func (s *MemoryStore) UpdateCoinState(_ context.Context, id string, circulatingSupply, price, marketCap, hypeScore decimal.Decimal, holdersDelta int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coins[id]
	if !ok {
		return fmt.Errorf("coin %s not found", id)
	}
	c.CirculatingSupply = circulatingSupply
	c.CurrentPrice = price
	c.MarketCap = marketCap
	c.HypeScore = hypeScore
	c.HoldersCount += holdersDelta
	c.TransactionCount++
	c.Status = status
	return nil
}

func (s *MemoryStore) InsertTransaction(_ context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = append(s.ledger, *tx)
	return nil
}

func (s *MemoryStore) GetTransactionsByCoin(_ context.Context, coinID string) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Transaction
	for _, tx := range s.ledger {
		if tx.CoinID == coinID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetTransactionsByUser(_ context.Context, userID string) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Transaction
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *MemoryStore) InsertPricePoint(_ context.Context, pt *model.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, *pt)
	return nil
}

func (s *MemoryStore) GetPriceHistory(_ context.Context, coinID string) ([]model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.PricePoint
	for _, pt := range s.history {
		if pt.CoinID == coinID {
			result = append(result, pt)
		}
	}
	return result, nil
}

// GetUserHoldings aggregates the transaction ledger into per-coin
// holdings. Cost basis is net MLT outflow; mark-to-market uses the
// coin's live price.
func (s *MemoryStore) GetUserHoldings(_ context.Context, userID string) ([]model.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type holdAgg struct {
		coinID    string
		amount    decimal.Decimal
		costBasis decimal.Decimal
		buyAmount decimal.Decimal
		buyMLT    decimal.Decimal
	}

	agg := make(map[string]*holdAgg)

	// Aggregate from ledger (single lock, no re-entrant calls).
	for _, tx := range s.ledger {
		if tx.UserID != userID {
			continue
		}
		ha, ok := agg[tx.CoinID]
		if !ok {
			ha = &holdAgg{coinID: tx.CoinID}
			agg[tx.CoinID] = ha
		}
		if tx.Type == "sell" {
			ha.amount = ha.amount.Sub(tx.Amount)
			ha.costBasis = ha.costBasis.Sub(tx.TotalMLT)
		} else {
			// "buy" and "create" both add to the stake.
			ha.amount = ha.amount.Add(tx.Amount)
			ha.costBasis = ha.costBasis.Add(tx.TotalMLT)
			ha.buyAmount = ha.buyAmount.Add(tx.Amount)
			ha.buyMLT = ha.buyMLT.Add(tx.TotalMLT)
		}
	}

	var holdings []model.Holding
	for _, ha := range agg {
		c := s.coins[ha.coinID] // direct access, already under RLock
		price := decimal.Zero
		symbol, creator := "", ""
		if c != nil {
			price = c.CurrentPrice
			symbol = c.Symbol
			creator = c.CreatorID
		}

		avgBuy := decimal.Zero
		if ha.buyAmount.IsPositive() {
			avgBuy = ha.buyMLT.Div(ha.buyAmount)
		}

		value := price.Mul(ha.amount)
		holdings = append(holdings, model.Holding{
			UserID:        userID,
			CoinID:        ha.coinID,
			CoinSymbol:    symbol,
			CreatorID:     creator,
			Amount:        ha.amount,
			AvgBuyPrice:   avgBuy,
			CostBasis:     ha.costBasis,
			CurrentValue:  value,
			UnrealizedPnL: value.Sub(ha.costBasis),
		})
	}

	return holdings, nil
}
