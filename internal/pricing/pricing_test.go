package pricing_test

import (
	"math"
	"testing"

	"github.com/douglasshinzato/price-tagger/internal/pricing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestAdjust_KnownPrices(t *testing.T) {
	cases := []struct {
		price      float64
		discounted float64
		marked     float64
		finalPrice float64
	}{
		// 115.8 has fractional part 0.8 and rounds up.
		{price: 100, discounted: 96.5, marked: 115.8, finalPrice: 116},
		{price: 10, discounted: 9.65, marked: 11.58, finalPrice: 12},
		{price: 50, discounted: 48.25, marked: 57.9, finalPrice: 58},
	}

	for _, tc := range cases {
		adj := pricing.Adjust(tc.price)
		if !almostEqual(adj.Discounted, tc.discounted) {
			t.Errorf("Adjust(%v).Discounted = %v, want %v", tc.price, adj.Discounted, tc.discounted)
		}
		if !almostEqual(adj.Marked, tc.marked) {
			t.Errorf("Adjust(%v).Marked = %v, want %v", tc.price, adj.Marked, tc.marked)
		}
		if adj.FinalPrice != tc.finalPrice {
			t.Errorf("Adjust(%v).FinalPrice = %v, want %v", tc.price, adj.FinalPrice, tc.finalPrice)
		}
	}
}

func TestAdjust_RoundsBothWays(t *testing.T) {
	// 38 * 0.965 * 1.2 = 44.004: fractional part below 0.5 rounds down.
	if got := pricing.Adjust(38).FinalPrice; got != 44 {
		t.Fatalf("Adjust(38).FinalPrice = %v, want 44", got)
	}
	// 125 * 0.965 * 1.2 = 144.75: fractional part at or above 0.5 rounds up.
	if got := pricing.Adjust(125).FinalPrice; got != 145 {
		t.Fatalf("Adjust(125).FinalPrice = %v, want 145", got)
	}
}

func TestAdjust_FinalPriceProperties(t *testing.T) {
	prices := []float64{0.01, 0.5, 1, 2.49, 17.35, 99.99, 100, 1234.56, 100000}
	for _, p := range prices {
		adj := pricing.Adjust(p)

		if adj.FinalPrice < 0 {
			t.Fatalf("Adjust(%v).FinalPrice is negative", p)
		}
		if adj.FinalPrice != math.Trunc(adj.FinalPrice) {
			t.Fatalf("Adjust(%v).FinalPrice = %v is not an integer", p, adj.FinalPrice)
		}
		// The 84/16 split must reconstruct the final price within a cent.
		if math.Abs(adj.CashValue+adj.DiscountValue-adj.FinalPrice) > 0.01 {
			t.Fatalf("Adjust(%v): cash %v + discount %v does not reconstruct final %v",
				p, adj.CashValue, adj.DiscountValue, adj.FinalPrice)
		}
		// Deterministic: same input, same output.
		if pricing.Adjust(p) != adj {
			t.Fatalf("Adjust(%v) is not deterministic", p)
		}
	}
}

func TestNewQuote(t *testing.T) {
	q := pricing.NewQuote(100, 7)

	if !almostEqual(q.InstallmentPrice, 125) {
		t.Errorf("InstallmentPrice = %v, want 125", q.InstallmentPrice)
	}
	if !almostEqual(q.CashPrice, 106.25) {
		t.Errorf("CashPrice = %v, want 106.25", q.CashPrice)
	}
	if !almostEqual(q.DebitPrice, 100) {
		t.Errorf("DebitPrice = %v, want 100", q.DebitPrice)
	}
	// 7 items, 3 per sticker -> 3 stickers.
	if q.Labels != 3 {
		t.Errorf("Labels = %d, want 3", q.Labels)
	}
}

func TestNewQuote_NoItems(t *testing.T) {
	q := pricing.NewQuote(19.90, 0)
	if q.Labels != 0 {
		t.Errorf("Labels = %d, want 0 when items not given", q.Labels)
	}
	if !almostEqual(q.InstallmentPrice, 24.88) {
		t.Errorf("InstallmentPrice = %v, want 24.88", q.InstallmentPrice)
	}
	if !almostEqual(q.CashPrice, 21.15) {
		t.Errorf("CashPrice = %v, want 21.15", q.CashPrice)
	}
}
