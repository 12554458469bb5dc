// Package listing handles coin listing validation (name and symbol
// rules, symbol generation from coin names) and derivation of a new
// coin's economic terms from the bonding curve.
package listing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/curve"
)

// symbolRegex matches ticker symbols: 2-6 uppercase letters or digits.
// Example: DOGE, MOON2, X42
var symbolRegex = regexp.MustCompile(`^[A-Z0-9]{2,6}$`)

var (
	ErrInvalidName   = errors.New("listing: coin name must be 2-32 characters")
	ErrInvalidSymbol = errors.New("listing: symbol must be 2-6 uppercase letters or digits")
)

// Default listing economics.
var (
	// DefaultInvestment is the MLT backing a coin when the creator does
	// not choose one: 2000 MLT over 1,000,000 tokens gives P0 = 0.002.
	DefaultInvestment = decimal.NewFromInt(2000)

	// DefaultTotalSupply is the default token supply for new coins.
	DefaultTotalSupply = decimal.NewFromInt(1000000)

	// MinimumPrePurchaseMLT is the MLT value the creator must buy at
	// launch. Prevents zero-skin-in-the-game listings.
	MinimumPrePurchaseMLT = decimal.NewFromInt(100)
)

// Terms are the derived economics of a coin listing, fixed at creation.
type Terms struct {
	InitialPrice      decimal.Decimal `json:"initial_price"`
	GraduationPrice   decimal.Decimal `json:"graduation_price"` // price at 100% progress
	PrePurchaseTokens decimal.Decimal `json:"pre_purchase_tokens"`
	PrePurchaseCost   decimal.Decimal `json:"pre_purchase_cost"` // MLT cost of the mandatory first buy
}

// ValidateName checks the coin display name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 || len(trimmed) > 32 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ValidateSymbol checks a ticker symbol against the symbol format.
func ValidateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// GenerateSymbol derives a ticker symbol from a coin name: a single
// word is truncated to its first four letters, multi-word names use
// the initials of the first two words ("Doge Moon" becomes "DM").
// The result is uppercased and stripped of non-alphanumerics; callers
// still validate it, since degenerate names can produce short symbols.
func GenerateSymbol(name string) string {
	words := strings.Fields(strings.TrimSpace(name))
	var sym string
	switch {
	case len(words) == 0:
		return ""
	case len(words) == 1:
		sym = words[0]
		if len(sym) > 4 {
			sym = sym[:4]
		}
	default:
		for _, w := range words[:2] {
			sym += w[:1]
		}
	}

	sym = strings.ToUpper(sym)
	var b strings.Builder
	for _, r := range sym {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DeriveTerms computes a listing's fixed economics: the initial and
// graduation prices and the creator's mandatory pre-purchase, all from
// the bonding curve.
func DeriveTerms(c *curve.Curve, initialInvestment, totalSupply decimal.Decimal) (*Terms, error) {
	initialPrice, err := curve.InitialPrice(initialInvestment, totalSupply)
	if err != nil {
		return nil, err
	}

	tokens, err := c.MinimumPrePurchase(MinimumPrePurchaseMLT, initialInvestment, totalSupply)
	if err != nil {
		return nil, err
	}

	buy, err := c.BuyTrade(initialInvestment, totalSupply, decimal.Zero, tokens)
	if err != nil {
		return nil, err
	}

	return &Terms{
		InitialPrice:      initialPrice.Round(curve.PriceScale),
		GraduationPrice:   c.CurrentPrice(initialPrice, decimal.NewFromInt(1)),
		PrePurchaseTokens: tokens,
		PrePurchaseCost:   buy.MLTAmount,
	}, nil
}
