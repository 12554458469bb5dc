package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateCoin(ctx context.Context, c *model.Coin) error {
	if err := s.primary.CreateCoin(ctx, c); err != nil {
		return err
	}
	s.cacheCoin(ctx, c)
	return nil
}

func (s *CachedStore) UpdateCoinState(ctx context.Context, id string, circulatingSupply, price, marketCap, hypeScore decimal.Decimal, holdersDelta int, status string) error {
	if err := s.primary.UpdateCoinState(ctx, id, circulatingSupply, price, marketCap, hypeScore, holdersDelta, status); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	s.rdb.Del(ctx, coinKey(id))
	return nil
}

func (s *CachedStore) InsertTransaction(ctx context.Context, tx *model.Transaction) error {
	if err := s.primary.InsertTransaction(ctx, tx); err != nil {
		return err
	}
	// Invalidate holdings cache for this user.
	s.rdb.Del(ctx, holdingsKey(tx.UserID))
	return nil
}

func (s *CachedStore) InsertPricePoint(ctx context.Context, pt *model.PricePoint) error {
	return s.primary.InsertPricePoint(ctx, pt)
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetCoin(ctx context.Context, id string) (*model.Coin, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, coinKey(id)).Bytes()
	if err == nil {
		var c model.Coin
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	// Cache miss: read from primary.
	c, err := s.primary.GetCoin(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheCoin(ctx, c)
	return c, nil
}

func (s *CachedStore) GetCoinBySymbol(ctx context.Context, symbol string) (*model.Coin, error) {
	// Try cache via symbol→coinID mapping.
	coinID, err := s.rdb.Get(ctx, symbolKey(symbol)).Result()
	if err == nil {
		return s.GetCoin(ctx, coinID)
	}

	// Cache miss.
	c, err := s.primary.GetCoinBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// Cache both the coin and the symbol→ID mapping.
	s.cacheCoin(ctx, c)
	s.rdb.Set(ctx, symbolKey(symbol), c.ID, s.ttl)
	return c, nil
}

func (s *CachedStore) GetUserHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, holdingsKey(userID)).Bytes()
	if err == nil {
		var holdings []model.Holding
		if json.Unmarshal(data, &holdings) == nil {
			return holdings, nil
		}
	}

	// Cache miss.
	holdings, err := s.primary.GetUserHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(holdings); err == nil {
		s.rdb.Set(ctx, holdingsKey(userID), data, s.ttl)
	}
	return holdings, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListCoins(ctx context.Context) ([]model.Coin, error) {
	return s.primary.ListCoins(ctx)
}

func (s *CachedStore) GetTransactionsByCoin(ctx context.Context, coinID string) ([]model.Transaction, error) {
	return s.primary.GetTransactionsByCoin(ctx, coinID)
}

func (s *CachedStore) GetTransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	return s.primary.GetTransactionsByUser(ctx, userID)
}

func (s *CachedStore) GetPriceHistory(ctx context.Context, coinID string) ([]model.PricePoint, error) {
	return s.primary.GetPriceHistory(ctx, coinID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheCoin(ctx context.Context, c *model.Coin) {
	if data, err := json.Marshal(c); err == nil {
		s.rdb.Set(ctx, coinKey(c.ID), data, s.ttl)
	}
}

func coinKey(id string) string       { return fmt.Sprintf("coin:%s", id) }
func symbolKey(sym string) string    { return fmt.Sprintf("symbol:%s", sym) }
func holdingsKey(uid string) string  { return fmt.Sprintf("holdings:%s", uid) }
