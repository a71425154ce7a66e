// Package pricing holds the pure price arithmetic used by the label
// ordering flow. Every function is deterministic and side-effect free;
// inputs are assumed to be positive, validation happens upstream.
package pricing

import "math"

// Adjustment is the result of the shelf price recalculation applied when an
// order flagged for a price update is completed.
type Adjustment struct {
	// Discounted is the current price after the 3.5% reduction.
	Discounted float64
	// Marked is the discounted price after the 20% markup.
	Marked float64
	// FinalPrice is Marked rounded half-up to the nearest integer. This is
	// the value persisted as the order's new price.
	FinalPrice float64
	// CashValue and DiscountValue split FinalPrice 84/16 for display.
	CashValue     float64
	DiscountValue float64
}

// Adjust computes the new shelf price from the current one. The three steps
// are applied in this exact sequence; reordering them changes the result.
func Adjust(currentPrice float64) Adjustment {
	discounted := currentPrice * 0.965
	marked := discounted * 1.20

	frac := marked - math.Floor(marked)
	var finalPrice float64
	if frac >= 0.5 {
		finalPrice = math.Ceil(marked)
	} else {
		finalPrice = math.Floor(marked)
	}

	return Adjustment{
		Discounted:    discounted,
		Marked:        marked,
		FinalPrice:    finalPrice,
		CashValue:     finalPrice * 0.84,
		DiscountValue: finalPrice * 0.16,
	}
}

// Quote is the quick calculator shown next to the order form: installment
// and cash card prices derived from a base price, plus how many physical
// labels a batch of items needs.
type Quote struct {
	// InstallmentPrice is the 6x credit price: base * 1.25.
	InstallmentPrice float64
	// CashPrice is the single-payment credit price: installment * 0.85.
	CashPrice float64
	// DebitPrice equals the base price.
	DebitPrice float64
	// Labels is the number of label stickers needed; one sticker covers
	// three items.
	Labels int
}

// NewQuote derives the card prices from basePrice and, when items > 0, the
// sticker count for the batch.
func NewQuote(basePrice float64, items int) Quote {
	installment := round2(basePrice * 1.25)
	q := Quote{
		InstallmentPrice: installment,
		CashPrice:        round2(installment * 0.85),
		DebitPrice:       round2(basePrice),
	}
	if items > 0 {
		q.Labels = int(math.Ceil(float64(items) / 3))
	}
	return q
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
