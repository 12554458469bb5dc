package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const coinColumns = `id, creator_id, name, symbol,
       initial_investment::TEXT, total_supply::TEXT, circulating_supply::TEXT,
       k, current_price::TEXT, market_cap::TEXT, hype_score::TEXT,
       holders_count, transaction_count, status, created_at`

func (s *PostgresStore) CreateCoin(ctx context.Context, c *model.Coin) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO coins (id, creator_id, name, symbol, initial_investment, total_supply,
		                    circulating_supply, k, current_price, market_cap, hype_score,
		                    holders_count, transaction_count, status, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8,
		         $9::NUMERIC, $10::NUMERIC, $11::NUMERIC, $12, $13, $14, $15)`,
		c.ID, c.CreatorID, c.Name, c.Symbol,
		c.InitialInvestment.String(), c.TotalSupply.String(), c.CirculatingSupply.String(),
		c.K, c.CurrentPrice.String(), c.MarketCap.String(), c.HypeScore.String(),
		c.HoldersCount, c.TransactionCount, c.Status, c.CreatedAt,
	)
	return err
}

func (s *PostgresStore) scanCoin(ctx context.Context, query string, arg any) (*model.Coin, error) {
	var c model.Coin
	var investment, supply, circulating, price, cap, hype string

	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&c.ID, &c.CreatorID, &c.Name, &c.Symbol,
			&investment, &supply, &circulating,
			&c.K, &price, &cap, &hype,
			&c.HoldersCount, &c.TransactionCount, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.InitialInvestment, _ = decimal.NewFromString(investment)
	c.TotalSupply, _ = decimal.NewFromString(supply)
	c.CirculatingSupply, _ = decimal.NewFromString(circulating)
	c.CurrentPrice, _ = decimal.NewFromString(price)
	c.MarketCap, _ = decimal.NewFromString(cap)
	c.HypeScore, _ = decimal.NewFromString(hype)

	return &c, nil
}

func (s *PostgresStore) GetCoin(ctx context.Context, id string) (*model.Coin, error) {
	c, err := s.scanCoin(ctx, `SELECT `+coinColumns+` FROM coins WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get coin %s: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) GetCoinBySymbol(ctx context.Context, symbol string) (*model.Coin, error) {
	c, err := s.scanCoin(ctx, `SELECT `+coinColumns+` FROM coins WHERE symbol = $1`, symbol)
	if err != nil {
		return nil, fmt.Errorf("get coin by symbol %s: %w", symbol, err)
	}
	return c, nil
}

func (s *PostgresStore) ListCoins(ctx context.Context) ([]model.Coin, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+coinColumns+` FROM coins ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coins []model.Coin
	for rows.Next() {
		var c model.Coin
		var investment, supply, circulating, price, cap, hype string
		if err := rows.Scan(&c.ID, &c.CreatorID, &c.Name, &c.Symbol,
			&investment, &supply, &circulating,
			&c.K, &price, &cap, &hype,
			&c.HoldersCount, &c.TransactionCount, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.InitialInvestment, _ = decimal.NewFromString(investment)
		c.TotalSupply, _ = decimal.NewFromString(supply)
		c.CirculatingSupply, _ = decimal.NewFromString(circulating)
		c.CurrentPrice, _ = decimal.NewFromString(price)
		c.MarketCap, _ = decimal.NewFromString(cap)
		c.HypeScore, _ = decimal.NewFromString(hype)
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

func (s *PostgresStore) UpdateCoinState(ctx context.Context, id string, circulatingSupply, price, marketCap, hypeScore decimal.Decimal, holdersDelta int, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE coins
		 SET circulating_supply = $2::NUMERIC, current_price = $3::NUMERIC,
		     market_cap = $4::NUMERIC, hype_score = $5::NUMERIC,
		     holders_count = holders_count + $6,
		     transaction_count = transaction_count + 1,
		     status = $7
		 WHERE id = $1`,
		id, circulatingSupply.String(), price.String(), marketCap.String(),
		hypeScore.String(), holdersDelta, status,
	)
	return err
}

func (s *PostgresStore) InsertTransaction(ctx context.Context, tx *model.Transaction) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, coin_id, type, amount, price, total_mlt, timestamp)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8)`,
		tx.ID, tx.UserID, tx.CoinID, tx.Type,
		tx.Amount.String(), tx.Price.String(), tx.TotalMLT.String(),
		tx.Timestamp,
	)
	return err
}

func (s *PostgresStore) GetTransactionsByCoin(ctx context.Context, coinID string) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, coin_id, type, amount::TEXT, price::TEXT, total_mlt::TEXT, timestamp
		 FROM transactions WHERE coin_id = $1 ORDER BY timestamp`, coinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *PostgresStore) GetTransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, coin_id, type, amount::TEXT, price::TEXT, total_mlt::TEXT, timestamp
		 FROM transactions WHERE user_id = $1 ORDER BY timestamp`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *PostgresStore) InsertPricePoint(ctx context.Context, pt *model.PricePoint) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_history (coin_id, price, volume, market_cap, circulating_supply, timestamp)
		 VALUES ($1, $2::NUMERIC, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6)`,
		pt.CoinID, pt.Price.String(), pt.Volume.String(),
		pt.MarketCap.String(), pt.CirculatingSupply.String(), pt.Timestamp,
	)
	return err
}

func (s *PostgresStore) GetPriceHistory(ctx context.Context, coinID string) ([]model.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT coin_id, price::TEXT, volume::TEXT, market_cap::TEXT, circulating_supply::TEXT, timestamp
		 FROM price_history WHERE coin_id = $1 ORDER BY timestamp`, coinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var pt model.PricePoint
		var price, volume, cap, circulating string
		if err := rows.Scan(&pt.CoinID, &price, &volume, &cap, &circulating, &pt.Timestamp); err != nil {
			return nil, err
		}
		pt.Price, _ = decimal.NewFromString(price)
		pt.Volume, _ = decimal.NewFromString(volume)
		pt.MarketCap, _ = decimal.NewFromString(cap)
		pt.CirculatingSupply, _ = decimal.NewFromString(circulating)
		points = append(points, pt)
	}
	return points, rows.Err()
}

func (s *PostgresStore) GetUserHoldings(ctx context.Context, userID string) ([]model.Holding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT
			t.coin_id,
			c.symbol,
			c.creator_id,
			COALESCE(SUM(CASE WHEN t.type = 'sell' THEN -t.amount ELSE t.amount END), 0)::TEXT AS amount,
			COALESCE(SUM(CASE WHEN t.type = 'sell' THEN -t.total_mlt ELSE t.total_mlt END), 0)::TEXT AS cost_basis,
			COALESCE(SUM(CASE WHEN t.type <> 'sell' THEN t.amount ELSE 0 END), 0)::TEXT AS buy_amount,
			COALESCE(SUM(CASE WHEN t.type <> 'sell' THEN t.total_mlt ELSE 0 END), 0)::TEXT AS buy_mlt,
			c.current_price::TEXT AS current_price
		 FROM transactions t
		 JOIN coins c ON c.id = t.coin_id
		 WHERE t.user_id = $1
		 GROUP BY t.coin_id, c.symbol, c.creator_id, c.current_price`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []model.Holding
	for rows.Next() {
		var h model.Holding
		var amountS, basisS, buyAmountS, buyMLTS, priceS string

		if err := rows.Scan(&h.CoinID, &h.CoinSymbol, &h.CreatorID,
			&amountS, &basisS, &buyAmountS, &buyMLTS, &priceS); err != nil {
			return nil, err
		}

		h.UserID = userID
		h.Amount, _ = decimal.NewFromString(amountS)
		h.CostBasis, _ = decimal.NewFromString(basisS)
		buyAmount, _ := decimal.NewFromString(buyAmountS)
		buyMLT, _ := decimal.NewFromString(buyMLTS)
		price, _ := decimal.NewFromString(priceS)

		if buyAmount.IsPositive() {
			h.AvgBuyPrice = buyMLT.Div(buyAmount)
		}
		h.CurrentValue = price.Mul(h.Amount)
		h.UnrealizedPnL = h.CurrentValue.Sub(h.CostBasis)

		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// scanTransactions reads pgx rows into Transaction slices.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanTransactions(rows pgxRows) ([]model.Transaction, error) {
	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var amountS, priceS, totalS string

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.CoinID, &tx.Type,
			&amountS, &priceS, &totalS, &tx.Timestamp); err != nil {
			return nil, err
		}

		tx.Amount, _ = decimal.NewFromString(amountS)
		tx.Price, _ = decimal.NewFromString(priceS)
		tx.TotalMLT, _ = decimal.NewFromString(totalS)

		txs = append(txs, tx)
	}
	return txs, nil
}
