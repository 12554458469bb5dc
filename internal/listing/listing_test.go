package listing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/memelaunchtycoon/coin-engine/internal/curve"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestValidateName(t *testing.T) {
	valid := []string{"Doge Moon", "AB", "  Pepe Classic  ", "x2"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "x", "   ", "this coin name is way too long to be accepted here"}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	valid := []string{"DOGE", "MOON2", "X42", "AB", "ABCDEF"}
	for _, sym := range valid {
		if err := ValidateSymbol(sym); err != nil {
			t.Errorf("ValidateSymbol(%q) = %v, want nil", sym, err)
		}
	}

	invalid := []string{"", "A", "ABCDEFG", "doge", "DO GE", "DOGE!", "ÐOGE"}
	for _, sym := range invalid {
		if err := ValidateSymbol(sym); err == nil {
			t.Errorf("ValidateSymbol(%q) = nil, want error", sym)
		}
	}
}

func TestGenerateSymbol(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Dogecoin", "DOGE"},
		{"Pepe", "PEPE"},
		{"Moo", "MOO"},
		{"Doge Moon", "DM"},
		{"Super Mega Ultra Coin", "SM"},
		{"  spaced   out  ", "SO"},
		{"x42", "X42"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := GenerateSymbol(tc.name); got != tc.want {
			t.Errorf("GenerateSymbol(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGeneratedSymbolsValidate(t *testing.T) {
	names := []string{"Dogecoin", "Pepe Classic", "Moon Lambo Soon", "x42"}
	for _, name := range names {
		sym := GenerateSymbol(name)
		if err := ValidateSymbol(sym); err != nil {
			t.Errorf("generated symbol %q for %q does not validate: %v", sym, name, err)
		}
	}
}

func TestDeriveTerms(t *testing.T) {
	c := curve.Default()

	terms, err := DeriveTerms(c, DefaultInvestment, DefaultTotalSupply)
	if err != nil {
		t.Fatalf("DeriveTerms: %v", err)
	}

	// 2000 MLT over 1,000,000 tokens.
	wantP0 := d(0.002)
	if !terms.InitialPrice.Equal(wantP0) {
		t.Errorf("InitialPrice = %s, want %s", terms.InitialPrice, wantP0)
	}

	// Graduation price is P0 * e^k.
	wantGrad := 0.002 * 54.598150033144236
	gotGrad, _ := terms.GraduationPrice.Float64()
	if diff := gotGrad - wantGrad; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("GraduationPrice = %v, want ~%v", gotGrad, wantGrad)
	}

	// The mandatory pre-purchase must actually cost at least the minimum.
	if terms.PrePurchaseCost.LessThan(MinimumPrePurchaseMLT) {
		t.Errorf("PrePurchaseCost = %s, below minimum %s",
			terms.PrePurchaseCost, MinimumPrePurchaseMLT)
	}
	if !terms.PrePurchaseTokens.IsPositive() {
		t.Errorf("PrePurchaseTokens = %s, want positive", terms.PrePurchaseTokens)
	}
	// Whole tokens only.
	if !terms.PrePurchaseTokens.Equal(terms.PrePurchaseTokens.Floor()) {
		t.Errorf("PrePurchaseTokens = %s, want integral", terms.PrePurchaseTokens)
	}
}

func TestDeriveTermsInvalidEconomics(t *testing.T) {
	c := curve.Default()

	if _, err := DeriveTerms(c, decimal.Zero, DefaultTotalSupply); err == nil {
		t.Error("DeriveTerms with zero investment: want error")
	}
	if _, err := DeriveTerms(c, DefaultInvestment, decimal.Zero); err == nil {
		t.Error("DeriveTerms with zero supply: want error")
	}
	if _, err := DeriveTerms(c, d(-100), DefaultTotalSupply); err == nil {
		t.Error("DeriveTerms with negative investment: want error")
	}
}
