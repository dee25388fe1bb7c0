// Package conform turns raw extracted records into cleaned, typed
// conformed records: latest-record deduplication, vocabulary
// normalization, numeric reconciliation, and derived validity ranges.
// Every operation here is pure; re-running on identical input yields
// identical output.
package conform

import (
	"time"

	"dwcli/pkg/contracts/domain"
)

// SelectLatest picks exactly one record per business key: the one with
// the maximum secondary order key. Records with a null business key are
// dropped entirely, never an error. When two records share both key and
// order key the first-seen record wins, keeping the pipeline
// deterministic for identical input order.
//
// Output preserves the first-seen order of business keys.
func SelectLatest(
	records []domain.RawRecord,
	businessKey func(domain.RawRecord) string,
	orderKey func(domain.RawRecord) time.Time,
) (kept []domain.RawRecord, dropped int) {
	type slot struct {
		record domain.RawRecord
		order  time.Time
		pos    int
	}

	best := make(map[string]*slot)
	var keys []string

	for _, r := range records {
		key := businessKey(r)
		if key == "" {
			dropped++
			continue
		}
		order := orderKey(r)
		existing, ok := best[key]
		if !ok {
			best[key] = &slot{record: r, order: order, pos: len(keys)}
			keys = append(keys, key)
			continue
		}
		// Strictly-after replaces; equal keeps first seen.
		if order.After(existing.order) {
			existing.record = r
			existing.order = order
		}
	}

	kept = make([]domain.RawRecord, 0, len(keys))
	for _, key := range keys {
		kept = append(kept, best[key].record)
	}
	return kept, dropped
}
