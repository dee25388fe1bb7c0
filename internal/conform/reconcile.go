package conform

import (
	"math"
)

const amountTolerance = 1e-9

// ReconcileNumeric repairs the dependent numeric fields of one sales
// line. Repairs are applied in document order and are consistent with
// each other:
//
//  1. line amount: recomputed as quantity * |unit price| when it is
//     null, non-positive, or inconsistent with quantity and price. A
//     negative price is a data-entry sign error, not a discount, hence
//     the absolute value. A null price contributes zero, so a line
//     missing both amount and price still resolves to a definite amount.
//  2. unit price: recomputed as amount / quantity when it is null or
//     non-positive. Zero quantity yields a null price rather than a
//     division fault, and a non-positive derived price stays null: a
//     line lacking both amount and price has no recoverable price.
//
// Quantity is passed through untouched; it is validated, not repaired,
// by the quality rule engine.
func ReconcileNumeric(quantity int, unitPrice, lineAmount *float64) (amount float64, price *float64) {
	price = unitPrice

	switch {
	case lineAmount == nil || *lineAmount <= 0:
		amount = float64(quantity) * absOrZero(price)
	case price != nil && math.Abs(*lineAmount-float64(quantity)*math.Abs(*price)) > amountTolerance:
		amount = float64(quantity) * math.Abs(*price)
	default:
		amount = *lineAmount
	}

	if price == nil || *price <= 0 {
		price = nil
		if quantity != 0 {
			if derived := amount / float64(quantity); derived > 0 {
				price = &derived
			}
		}
	}

	return amount, price
}

func absOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return math.Abs(*f)
}
