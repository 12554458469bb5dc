package market

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestHypeMultiplier(t *testing.T) {
	cases := []struct {
		hype float64
		want float64
	}{
		{0, 1},
		{100, 1.01},
		{1000, 1.1},
		{10000, 2},
	}
	for _, tc := range cases {
		got := HypeMultiplier(d(tc.hype))
		if !got.Equal(d(tc.want)) {
			t.Errorf("HypeMultiplier(%v) = %s, want %v", tc.hype, got, tc.want)
		}
	}
}

func TestApplyHype(t *testing.T) {
	price := d(0.002)

	// No hype: price passes through unchanged.
	if got := ApplyHype(price, decimal.Zero); !got.Equal(price) {
		t.Errorf("ApplyHype with zero hype = %s, want %s", got, price)
	}

	// 500 hype is a 5% premium.
	got := ApplyHype(price, d(500))
	want := d(0.0021)
	if !got.Equal(want) {
		t.Errorf("ApplyHype(0.002, 500) = %s, want %s", got, want)
	}
}

func TestHypeNudges(t *testing.T) {
	hype := d(100)

	// Buying 1000 tokens adds 10 hype.
	hype = BumpHype(hype, d(1000))
	if !hype.Equal(d(110)) {
		t.Errorf("after buy: hype = %s, want 110", hype)
	}

	// Selling 1000 tokens removes 5 hype.
	hype = DecayHype(hype, d(1000))
	if !hype.Equal(d(105)) {
		t.Errorf("after sell: hype = %s, want 105", hype)
	}
}

func TestDecayHypeFloorsAtZero(t *testing.T) {
	got := DecayHype(d(1), d(100000))
	if !got.Equal(decimal.Zero) {
		t.Errorf("DecayHype underflow = %s, want 0", got)
	}
}

func TestSlipperBuyPremium(t *testing.T) {
	s := NewSlipper(rand.NewSource(1))
	cost := d(100)

	for i := 0; i < 100; i++ {
		total := s.BuyTotal(cost)
		f, _ := total.Float64()
		if f < 101 || f > 103 {
			t.Fatalf("buy total %v outside [101, 103]", f)
		}
	}
}

func TestSlipperSellDiscount(t *testing.T) {
	s := NewSlipper(rand.NewSource(1))
	proceeds := d(100)

	for i := 0; i < 100; i++ {
		total := s.SellTotal(proceeds)
		f, _ := total.Float64()
		if f < 95 || f > 98 {
			t.Fatalf("sell total %v outside [95, 98]", f)
		}
	}
}

func TestSlipperDeterministicWithSeed(t *testing.T) {
	a := NewSlipper(rand.NewSource(42))
	b := NewSlipper(rand.NewSource(42))

	for i := 0; i < 10; i++ {
		x := a.BuyTotal(d(100))
		y := b.BuyTotal(d(100))
		if !x.Equal(y) {
			t.Fatalf("same seed diverged: %s vs %s", x, y)
		}
	}
}
