// Package trade provides the HTTP handlers and business logic for
// creating coins, executing curve trades, and querying holdings and
// portfolios.
//
// All monetary values use shopspring/decimal — never float64 for money.
package trade

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/curve"
	"github.com/memelaunchtycoon/coin-engine/internal/limits"
	"github.com/memelaunchtycoon/coin-engine/internal/listing"
	"github.com/memelaunchtycoon/coin-engine/internal/market"
	"github.com/memelaunchtycoon/coin-engine/internal/metrics"
	"github.com/memelaunchtycoon/coin-engine/internal/model"
	"github.com/memelaunchtycoon/coin-engine/internal/store"
)

// Service handles coin operations. Uses a mutex for serialized trade
// execution (single-instance). For horizontal scaling, replace with
// distributed locking or database-level optimistic concurrency.
type Service struct {
	store   store.Store
	limiter *limits.PositionLimiter
	slipper *market.Slipper
	mu      sync.Mutex
	wsHub   *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new trade service.
// Pass nil for slipper to trade at raw curve prices, and nil for hub
// if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *limits.PositionLimiter, slipper *market.Slipper, hub *WSHub) *Service {
	return &Service{
		store:   st,
		limiter: limiter,
		slipper: slipper,
		wsHub:   hub,
	}
}

// --- Request/Response types ---

// CreateCoinRequest is the JSON body for coin creation.
type CreateCoinRequest struct {
	CreatorID         string          `json:"creator_id"`
	Name              string          `json:"name"`
	Symbol            string          `json:"symbol"`             // optional; generated from name if empty
	InitialInvestment decimal.Decimal `json:"initial_investment"` // MLT; 0 → default 2000
	TotalSupply       decimal.Decimal `json:"total_supply"`       // tokens; 0 → default 1,000,000
	K                 float64         `json:"k"`                  // curve steepness; 0 → default 4.0
}

// TradeRequest is the JSON body for POST /trade.
type TradeRequest struct {
	UserID string          `json:"user_id"`
	CoinID string          `json:"coin_id"` // coin ID or ticker symbol
	Type   string          `json:"type"`    // "buy" or "sell"
	Amount decimal.Decimal `json:"amount"`  // tokens, positive
}

// TradeResponse is the JSON body returned from POST /trade.
type TradeResponse struct {
	TradeID   string          `json:"trade_id"`
	UserID    string          `json:"user_id"`
	CoinID    string          `json:"coin_id"`
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	FillPrice decimal.Decimal `json:"fill_price"` // mean curve price over the trade
	TotalMLT  decimal.Decimal `json:"total_mlt"`  // cost or proceeds after slippage
	NewPrice  decimal.Decimal `json:"new_price"`
	HypePrice decimal.Decimal `json:"hype_price"` // new price with hype premium
	Progress  decimal.Decimal `json:"progress"`
	Status    string          `json:"status"`
	Holding   HoldingSummary  `json:"holding"`
}

// HoldingSummary is the holding snapshot included in trade responses.
type HoldingSummary struct {
	Amount        decimal.Decimal `json:"amount"`
	AvgBuyPrice   decimal.Decimal `json:"avg_buy_price"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// --- HTTP Handlers ---

// CreateCoin handles POST /api/v1/coins
// Lists a new coin and executes the creator's mandatory pre-purchase.
func (s *Service) CreateCoin(w http.ResponseWriter, r *http.Request) {
	var req CreateCoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.CreatorID == "" {
		writeError(w, "creator_id is required", http.StatusBadRequest)
		return
	}
	if err := listing.ValidateName(req.Name); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = listing.GenerateSymbol(req.Name)
	}
	if err := listing.ValidateSymbol(symbol); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	investment := req.InitialInvestment
	if investment.LessThanOrEqual(decimal.Zero) {
		investment = listing.DefaultInvestment
	}
	supply := req.TotalSupply
	if supply.LessThanOrEqual(decimal.Zero) {
		supply = listing.DefaultTotalSupply
	}
	k := req.K
	if k == 0 {
		k = curve.DefaultK
	}

	cv, err := curve.New(k)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	terms, err := listing.DeriveTerms(cv, investment, supply)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The pre-purchase executes at raw curve prices, no slippage.
	buy, err := cv.BuyTrade(investment, supply, decimal.Zero, terms.PrePurchaseTokens)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	coin := &model.Coin{
		ID:                uuid.New().String(),
		CreatorID:         req.CreatorID,
		Name:              req.Name,
		Symbol:            symbol,
		InitialInvestment: investment,
		TotalSupply:       supply,
		CirculatingSupply: buy.NewCirculatingSupply,
		K:                 k,
		CurrentPrice:      buy.NewPrice,
		MarketCap:         buy.NewMarketCap,
		HypeScore:         market.BumpHype(decimal.Zero, terms.PrePurchaseTokens),
		HoldersCount:      1,
		TransactionCount:  1,
		Status:            model.StatusActive,
		CreatedAt:         now,
	}

	ctx := r.Context()
	if err := s.store.CreateCoin(ctx, coin); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	entry := &model.Transaction{
		ID:        uuid.New().String(),
		UserID:    req.CreatorID,
		CoinID:    coin.ID,
		Type:      "create",
		Amount:    terms.PrePurchaseTokens,
		Price:     buy.AveragePrice,
		TotalMLT:  buy.MLTAmount,
		Timestamp: now,
	}
	if err := s.store.InsertTransaction(ctx, entry); err != nil {
		writeError(w, "failed to record pre-purchase", http.StatusInternalServerError)
		return
	}

	s.store.InsertPricePoint(ctx, &model.PricePoint{
		CoinID:            coin.ID,
		Price:             buy.NewPrice,
		Volume:            terms.PrePurchaseTokens,
		MarketCap:         buy.NewMarketCap,
		CirculatingSupply: buy.NewCirculatingSupply,
		Timestamp:         now,
	})

	metrics.ActiveCoins.Inc()

	slog.Info("coin created",
		"id", coin.ID,
		"symbol", symbol,
		"creator", req.CreatorID,
		"initial_price", terms.InitialPrice.String(),
		"pre_purchase_tokens", terms.PrePurchaseTokens.String(),
		"pre_purchase_cost", buy.MLTAmount.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:   "coin_created",
			CoinID: coin.ID,
			Symbol: symbol,
			Price:  buy.NewPrice.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(coin)
}

// GetCoin handles GET /api/v1/coins/{coinID}
func (s *Service) GetCoin(w http.ResponseWriter, r *http.Request) {
	coin, err := s.lookupCoin(r, chi.URLParam(r, "coinID"))
	if err != nil {
		writeError(w, "coin not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coin)
}

// GetPrice handles GET /api/v1/coins/{coinID}/price
// Returns the raw curve price alongside the hype-adjusted display price.
func (s *Service) GetPrice(w http.ResponseWriter, r *http.Request) {
	coin, err := s.lookupCoin(r, chi.URLParam(r, "coinID"))
	if err != nil {
		writeError(w, "coin not found", http.StatusNotFound)
		return
	}

	progress := decimal.Zero
	if coin.TotalSupply.IsPositive() {
		progress = coin.CirculatingSupply.Div(coin.TotalSupply)
	}

	resp := map[string]decimal.Decimal{
		"price":      coin.CurrentPrice,
		"hype_price": market.ApplyHype(coin.CurrentPrice, coin.HypeScore).Round(curve.PriceScale),
		"progress":   progress.Round(curve.PriceScale),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetListingTerms handles GET /api/v1/listing/terms
// Quotes the derived economics for prospective listing parameters,
// read from ?investment= and ?supply= (defaults apply when absent).
func (s *Service) GetListingTerms(w http.ResponseWriter, r *http.Request) {
	investment := listing.DefaultInvestment
	if v := r.URL.Query().Get("investment"); v != "" {
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			writeError(w, "invalid investment", http.StatusBadRequest)
			return
		}
		investment = parsed
	}
	supply := listing.DefaultTotalSupply
	if v := r.URL.Query().Get("supply"); v != "" {
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			writeError(w, "invalid supply", http.StatusBadRequest)
			return
		}
		supply = parsed
	}

	terms, err := listing.DeriveTerms(curve.Default(), investment, supply)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(terms)
}

// ExecuteTrade handles POST /api/v1/trade
// Prices the trade on the curve, applies slippage and hype effects,
// and returns the fill alongside the updated holding.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// --- Input validation ---
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Type != "buy" && req.Type != "sell" {
		writeError(w, "type must be buy or sell", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize trade execution.
	s.mu.Lock()
	defer s.mu.Unlock()

	coin, err := s.lookupCoin(r, req.CoinID)
	if err != nil {
		writeError(w, "coin not found: "+req.CoinID, http.StatusNotFound)
		return
	}

	if coin.Status != model.StatusActive {
		writeError(w, "coin is not trading on the curve", http.StatusConflict)
		return
	}

	cv, err := curve.New(coin.K)
	if err != nil {
		writeError(w, "internal error: invalid coin configuration", http.StatusInternalServerError)
		return
	}

	holdings, err := s.store.GetUserHoldings(ctx, req.UserID)
	if err != nil {
		writeError(w, "failed to load holdings", http.StatusInternalServerError)
		return
	}
	var held decimal.Decimal
	for _, h := range holdings {
		if h.CoinID == coin.ID {
			held = h.Amount
			break
		}
	}

	var (
		result       *curve.TradeResult
		total        decimal.Decimal
		hype         decimal.Decimal
		holdersDelta int
	)

	if req.Type == "buy" {
		available := coin.TotalSupply.Sub(coin.CirculatingSupply)
		if req.Amount.GreaterThan(available) {
			writeError(w, curve.ErrInsufficientSupply.Error(), http.StatusConflict)
			return
		}

		result, err = cv.BuyTrade(coin.InitialInvestment, coin.TotalSupply, coin.CirculatingSupply, req.Amount)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.limiter.CheckBuy(coin.ID, coin.CreatorID, req.Amount, result.MLTAmount, holdings); err != nil {
			metrics.PositionLimitRejections.Inc()
			writeError(w, err.Error(), http.StatusConflict)
			return
		}

		total = result.MLTAmount
		if s.slipper != nil {
			total = s.slipper.BuyTotal(total).Round(curve.PriceScale)
		}
		hype = market.BumpHype(coin.HypeScore, req.Amount)
		if held.IsZero() {
			holdersDelta = 1
		}
	} else {
		if req.Amount.GreaterThan(held) {
			writeError(w, "insufficient holdings", http.StatusConflict)
			return
		}

		result, err = cv.SellTrade(coin.InitialInvestment, coin.TotalSupply, coin.CirculatingSupply, req.Amount)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		total = result.MLTAmount
		if s.slipper != nil {
			total = s.slipper.SellTotal(total).Round(curve.PriceScale)
		}
		hype = market.DecayHype(coin.HypeScore, req.Amount)
		if req.Amount.Equal(held) {
			holdersDelta = -1
		}
	}

	// Graduation: the full supply has been sold out.
	status := coin.Status
	if req.Type == "buy" && result.NewProgress.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		status = model.StatusGraduated
		metrics.GraduatedCoins.Inc()
		metrics.ActiveCoins.Dec()
	}

	if err := s.store.UpdateCoinState(ctx, coin.ID, result.NewCirculatingSupply,
		result.NewPrice, result.NewMarketCap, hype, holdersDelta, status); err != nil {
		writeError(w, "failed to update coin state", http.StatusInternalServerError)
		return
	}

	// Create immutable ledger entry.
	now := time.Now().UTC()
	entry := &model.Transaction{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		CoinID:    coin.ID,
		Type:      req.Type,
		Amount:    req.Amount,
		Price:     result.AveragePrice,
		TotalMLT:  total,
		Timestamp: now,
	}
	if err := s.store.InsertTransaction(ctx, entry); err != nil {
		writeError(w, "failed to record trade", http.StatusInternalServerError)
		return
	}

	s.store.InsertPricePoint(ctx, &model.PricePoint{
		CoinID:            coin.ID,
		Price:             result.NewPrice,
		Volume:            req.Amount,
		MarketCap:         result.NewMarketCap,
		CirculatingSupply: result.NewCirculatingSupply,
		Timestamp:         now,
	})

	// Get updated holding for response.
	updated, _ := s.store.GetUserHoldings(ctx, req.UserID)
	var holdSummary HoldingSummary
	for _, h := range updated {
		if h.CoinID == coin.ID {
			holdSummary = HoldingSummary{
				Amount:        h.Amount,
				AvgBuyPrice:   h.AvgBuyPrice,
				CostBasis:     h.CostBasis,
				UnrealizedPnL: h.UnrealizedPnL,
			}
			break
		}
	}

	hypePrice := market.ApplyHype(result.NewPrice, hype).Round(curve.PriceScale)

	resp := TradeResponse{
		TradeID:   entry.ID,
		UserID:    req.UserID,
		CoinID:    coin.ID,
		Symbol:    coin.Symbol,
		Type:      req.Type,
		Amount:    req.Amount,
		FillPrice: result.AveragePrice,
		TotalMLT:  total,
		NewPrice:  result.NewPrice,
		HypePrice: hypePrice,
		Progress:  result.NewProgress,
		Status:    status,
		Holding:   holdSummary,
	}

	metrics.TradesTotal.WithLabelValues(req.Type).Inc()
	metrics.TradeLatency.WithLabelValues(req.Type).Observe(time.Since(start).Seconds())
	metrics.CoinVolume.WithLabelValues(coin.ID, req.Type).Add(req.Amount.InexactFloat64())

	slog.Info("trade executed",
		"trade_id", entry.ID,
		"user", req.UserID,
		"coin", coin.Symbol,
		"type", req.Type,
		"amount", req.Amount.String(),
		"total_mlt", total.String(),
		"fill_price", result.AveragePrice.String(),
		"new_price", result.NewPrice.String(),
		"progress", result.NewProgress.String(),
		"status", status,
	)

	// Broadcast price update via WebSocket.
	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "trade_executed",
			CoinID:    coin.ID,
			Symbol:    coin.Symbol,
			TradeType: req.Type,
			Amount:    req.Amount.String(),
			Price:     result.NewPrice.String(),
			HypePrice: hypePrice.String(),
			Progress:  result.NewProgress.String(),
			Status:    status,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListCoins handles GET /api/v1/coins
// Returns all coins, optionally filtered by ?creator_id= or ?status=.
func (s *Service) ListCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := s.store.ListCoins(r.Context())
	if err != nil {
		writeError(w, "failed to list coins", http.StatusInternalServerError)
		return
	}
	if coins == nil {
		coins = []model.Coin{}
	}

	if creator := r.URL.Query().Get("creator_id"); creator != "" {
		coins = filterCoins(coins, func(c model.Coin) bool { return c.CreatorID == creator })
	}
	if status := r.URL.Query().Get("status"); status != "" {
		coins = filterCoins(coins, func(c model.Coin) bool { return c.Status == status })
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coins)
}

func filterCoins(coins []model.Coin, keep func(model.Coin) bool) []model.Coin {
	filtered := []model.Coin{}
	for _, c := range coins {
		if keep(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// GetPriceHistory handles GET /api/v1/coins/{coinID}/price/history
func (s *Service) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	coin, err := s.lookupCoin(r, chi.URLParam(r, "coinID"))
	if err != nil {
		writeError(w, "coin not found", http.StatusNotFound)
		return
	}

	points, err := s.store.GetPriceHistory(r.Context(), coin.ID)
	if err != nil {
		writeError(w, "failed to get price history", http.StatusInternalServerError)
		return
	}
	if points == nil {
		points = []model.PricePoint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

// GetTransactions handles GET /api/v1/coins/{coinID}/transactions
func (s *Service) GetTransactions(w http.ResponseWriter, r *http.Request) {
	coin, err := s.lookupCoin(r, chi.URLParam(r, "coinID"))
	if err != nil {
		writeError(w, "coin not found", http.StatusNotFound)
		return
	}

	txs, err := s.store.GetTransactionsByCoin(r.Context(), coin.ID)
	if err != nil {
		writeError(w, "failed to get transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txs)
}

// GetPortfolio handles GET /api/v1/portfolio/{userID}
// Returns holdings, P&L, and token exposure per coin.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	holdings, err := s.store.GetUserHoldings(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to load holdings", http.StatusInternalServerError)
		return
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}

	totalValue := decimal.Zero
	totalPnL := decimal.Zero
	exposureByCoin := make(map[string]decimal.Decimal)

	for _, h := range holdings {
		totalValue = totalValue.Add(h.CurrentValue)
		totalPnL = totalPnL.Add(h.UnrealizedPnL)
		exposureByCoin[h.CoinID] = h.Amount
	}

	portfolio := model.Portfolio{
		UserID:         userID,
		Holdings:       holdings,
		TotalValue:     totalValue,
		TotalPnL:       totalPnL,
		ExposureByCoin: exposureByCoin,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolio)
}

// lookupCoin resolves a coin by ID, falling back to ticker symbol.
func (s *Service) lookupCoin(r *http.Request, key string) (*model.Coin, error) {
	coin, err := s.store.GetCoin(r.Context(), key)
	if err == nil {
		return coin, nil
	}
	return s.store.GetCoinBySymbol(r.Context(), key)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
