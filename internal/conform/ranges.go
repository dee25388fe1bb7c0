package conform

import (
	"sort"
	"time"

	"dwcli/pkg/contracts/domain"
)

// DeriveValidityRanges infers the effective window of every product
// version from the ordered sequence of versions sharing a business key:
// each version ends one day before the next version starts, and the last
// version in the ordering stays open (nil end), marking it currently
// active.
//
// The computation is from scratch each batch and stable: identical input
// yields identical ranges. Output is sorted by (product number, start,
// product id).
func DeriveValidityRanges(products []domain.ConformedProduct) []domain.ConformedProduct {
	out := make([]domain.ConformedProduct, len(products))
	copy(out, products)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductNumber != out[j].ProductNumber {
			return out[i].ProductNumber < out[j].ProductNumber
		}
		if !out[i].Validity.Start.Equal(out[j].Validity.Start) {
			return out[i].Validity.Start.Before(out[j].Validity.Start)
		}
		return out[i].ProductID < out[j].ProductID
	})

	for i := range out {
		if i+1 < len(out) && out[i+1].ProductNumber == out[i].ProductNumber {
			end := out[i+1].Validity.Start.AddDate(0, 0, -1)
			out[i].Validity.End = &end
		} else {
			out[i].Validity.End = nil
		}
	}
	return out
}

// ActiveVersions filters to products whose validity range is open, i.e.
// the single currently-active version per business key.
func ActiveVersions(products []domain.ConformedProduct) []domain.ConformedProduct {
	active := make([]domain.ConformedProduct, 0, len(products))
	for _, p := range products {
		if p.Validity.Open() {
			active = append(active, p)
		}
	}
	return active
}

// parseDate parses the date formats the upstream extracts use.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
