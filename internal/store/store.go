// Package store defines the persistence interface for the coin engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Coin operations ---

	// CreateCoin persists a new coin.
	CreateCoin(ctx context.Context, coin *model.Coin) error

	// GetCoin retrieves a coin by its ID.
	GetCoin(ctx context.Context, id string) (*model.Coin, error)

	// GetCoinBySymbol retrieves a coin by its ticker symbol.
	GetCoinBySymbol(ctx context.Context, symbol string) (*model.Coin, error)

	// ListCoins returns all coins, newest first.
	ListCoins(ctx context.Context) ([]model.Coin, error)

	// UpdateCoinState rewrites the market fields after a trade.
	UpdateCoinState(ctx context.Context, id string, circulatingSupply, price, marketCap, hypeScore decimal.Decimal, holdersDelta int, status string) error

	// --- Immutable transaction ledger ---

	// InsertTransaction appends an immutable trade record.
	InsertTransaction(ctx context.Context, tx *model.Transaction) error

	// GetTransactionsByCoin returns all trades for a coin, oldest first.
	GetTransactionsByCoin(ctx context.Context, coinID string) ([]model.Transaction, error)

	// GetTransactionsByUser returns all trades for a user, oldest first.
	GetTransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error)

	// --- Price history ---

	// InsertPricePoint appends a price-history row.
	InsertPricePoint(ctx context.Context, pt *model.PricePoint) error

	// GetPriceHistory returns a coin's price history, oldest first.
	GetPriceHistory(ctx context.Context, coinID string) ([]model.PricePoint, error)

	// --- Holdings ---

	// GetUserHoldings computes aggregate per-coin holdings from the ledger.
	GetUserHoldings(ctx context.Context, userID string) ([]model.Holding, error)
}
