// Package model defines the core domain types shared across the coin engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin lifecycle states.
const (
	StatusActive    = "active"
	StatusGraduated = "graduated" // entire supply sold; curve trading closed
	StatusFrozen    = "frozen"
)

// Coin is a player-created meme coin priced on the bonding curve.
// InitialInvestment, TotalSupply and K are fixed at creation; the
// market fields are rewritten after every trade.
type Coin struct {
	ID                string          `json:"id" db:"id"`
	CreatorID         string          `json:"creator_id" db:"creator_id"`
	Name              string          `json:"name" db:"name"`
	Symbol            string          `json:"symbol" db:"symbol"`
	InitialInvestment decimal.Decimal `json:"initial_investment" db:"initial_investment"` // MLT
	TotalSupply       decimal.Decimal `json:"total_supply" db:"total_supply"`
	CirculatingSupply decimal.Decimal `json:"circulating_supply" db:"circulating_supply"`
	K                 float64         `json:"k" db:"k"` // curve steepness
	CurrentPrice      decimal.Decimal `json:"current_price" db:"current_price"`
	MarketCap         decimal.Decimal `json:"market_cap" db:"market_cap"`
	HypeScore         decimal.Decimal `json:"hype_score" db:"hype_score"`
	HoldersCount      int             `json:"holders_count" db:"holders_count"`
	TransactionCount  int             `json:"transaction_count" db:"transaction_count"`
	Status            string          `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Transaction is an immutable record of a trade execution.
// Once created, these are never modified or deleted.
type Transaction struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	CoinID    string          `json:"coin_id" db:"coin_id"`
	Type      string          `json:"type" db:"type"`     // "buy", "sell", "create"
	Amount    decimal.Decimal `json:"amount" db:"amount"` // tokens
	Price     decimal.Decimal `json:"price" db:"price"`   // average fill price
	TotalMLT  decimal.Decimal `json:"total_mlt" db:"total_mlt"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// Holding is a user's aggregate stake in one coin.
type Holding struct {
	UserID        string          `json:"user_id"`
	CoinID        string          `json:"coin_id"`
	CoinSymbol    string          `json:"coin_symbol"`
	CreatorID     string          `json:"creator_id"`
	Amount        decimal.Decimal `json:"amount"`
	AvgBuyPrice   decimal.Decimal `json:"avg_buy_price"`
	CostBasis     decimal.Decimal `json:"cost_basis"`     // net MLT outflow
	CurrentValue  decimal.Decimal `json:"current_value"`  // mark-to-market
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"` // currentValue - costBasis
}

// PricePoint is one row of a coin's price history, appended per trade.
type PricePoint struct {
	CoinID            string          `json:"coin_id" db:"coin_id"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Volume            decimal.Decimal `json:"volume" db:"volume"` // tokens traded
	MarketCap         decimal.Decimal `json:"market_cap" db:"market_cap"`
	CirculatingSupply decimal.Decimal `json:"circulating_supply" db:"circulating_supply"`
	Timestamp         time.Time       `json:"timestamp" db:"timestamp"`
}

// Portfolio aggregates all holdings for a user with P&L totals.
type Portfolio struct {
	UserID         string                     `json:"user_id"`
	Holdings       []Holding                  `json:"holdings"`
	TotalValue     decimal.Decimal            `json:"total_value"`
	TotalPnL       decimal.Decimal            `json:"total_pnl"`
	ExposureByCoin map[string]decimal.Decimal `json:"exposure_by_coin"` // coinID → tokens held
}
