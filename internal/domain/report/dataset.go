package report

import "github.com/shopspring/decimal"

// Dataset declares how one collection takes part in a report: how to read
// a record's effective date and its amount. Module reports are built from
// a handful of datasets instead of ad hoc loops.
type Dataset[T any] struct {
	Name   string
	Date   func(T) string
	Amount func(T) decimal.Decimal
}

// Filter keeps the records whose effective date falls in r.
func (d Dataset[T]) Filter(items []T, r DateRange) []T {
	if r.IsZero() || d.Date == nil {
		return items
	}
	return Where(items, func(it T) bool { return r.Contains(d.Date(it)) })
}

// Total counts items and sums their amounts.
func (d Dataset[T]) Total(items []T) Bucket {
	b := Bucket{Key: d.Name, Count: len(items), Sum: decimal.Zero}
	if d.Amount != nil {
		b.Sum = Sum(items, d.Amount)
	}
	return b
}

// GroupBy accumulates items into a breakdown keyed by key(item). Records
// whose key is empty land in the fallback bucket instead of being dropped.
func (d Dataset[T]) GroupBy(items []T, key func(T) string, fallback string) *Breakdown {
	b := NewBreakdown()
	for _, it := range items {
		k := key(it)
		if k == "" {
			k = fallback
		}
		amount := decimal.Zero
		if d.Amount != nil {
			amount = d.Amount(it)
		}
		b.Add(k, amount)
	}
	return b
}

// ByMonth groups items by the YYYY-MM of their effective date.
func (d Dataset[T]) ByMonth(items []T) *Breakdown {
	return d.GroupBy(items, func(it T) string { return MonthOf(d.Date(it)) }, Unknown)
}
