// Package report derives statistics from cached module collections:
// date filtering, partitions, keyed breakdowns, rates and rankings.
package report

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Fallback buckets for records missing their grouping key.
const (
	Uncategorized = "uncategorized"
	Unknown       = "unknown"
)

var hundred = decimal.NewFromInt(100)

// Amount converts a stored numeric amount to a decimal.
func Amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Rate returns num / den × 100 rounded to two places, or 0 when den is 0.
func Rate(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Mul(hundred).Round(2)
}

// RateInt is Rate over counts.
func RateInt(num, den int) decimal.Decimal {
	return Rate(decimal.NewFromInt(int64(num)), decimal.NewFromInt(int64(den)))
}

// MonthOf returns the YYYY-MM prefix of an ISO date, or "".
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// Bucket accumulates a count and a sum for one key.
type Bucket struct {
	Key   string          `json:"key"`
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// Breakdown groups buckets by key, remembering insertion order.
// Iteration order carries no meaning; callers sort explicitly.
type Breakdown struct {
	order   []string
	buckets map[string]*Bucket
}

// NewBreakdown returns an empty breakdown.
func NewBreakdown() *Breakdown {
	return &Breakdown{buckets: make(map[string]*Bucket)}
}

// Add counts one record with the given amount under key.
func (b *Breakdown) Add(key string, amount decimal.Decimal) {
	bk, ok := b.buckets[key]
	if !ok {
		bk = &Bucket{Key: key}
		b.buckets[key] = bk
		b.order = append(b.order, key)
	}
	bk.Count++
	bk.Sum = bk.Sum.Add(amount)
}

// Ensure registers key with an empty bucket so it shows up in output.
func (b *Breakdown) Ensure(keys ...string) {
	for _, key := range keys {
		if _, ok := b.buckets[key]; !ok {
			b.buckets[key] = &Bucket{Key: key}
			b.order = append(b.order, key)
		}
	}
}

// Get returns the bucket for key, zero-valued when absent.
func (b *Breakdown) Get(key string) Bucket {
	if bk, ok := b.buckets[key]; ok {
		return *bk
	}
	return Bucket{Key: key}
}

// Len is the number of distinct keys.
func (b *Breakdown) Len() int {
	return len(b.order)
}

// Buckets returns the buckets in insertion order.
func (b *Breakdown) Buckets() []Bucket {
	out := make([]Bucket, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, *b.buckets[key])
	}
	return out
}

// ByKey returns the buckets sorted by key ascending.
func (b *Breakdown) ByKey() []Bucket {
	out := b.Buckets()
	slices.SortFunc(out, func(x, y Bucket) int { return cmp.Compare(x.Key, y.Key) })
	return out
}

// ByCountDesc returns the buckets sorted by count descending, ties broken
// by key ascending so the ranking is reproducible.
func (b *Breakdown) ByCountDesc() []Bucket {
	out := b.Buckets()
	slices.SortFunc(out, func(x, y Bucket) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Key, y.Key)
	})
	return out
}

// BySumDesc returns the buckets sorted by sum descending, ties by key.
func (b *Breakdown) BySumDesc() []Bucket {
	out := b.Buckets()
	slices.SortFunc(out, func(x, y Bucket) int {
		if c := y.Sum.Cmp(x.Sum); c != 0 {
			return c
		}
		return cmp.Compare(x.Key, y.Key)
	})
	return out
}

// Top returns at most n buckets from an already sorted list.
func Top(buckets []Bucket, n int) []Bucket {
	if len(buckets) <= n {
		return buckets
	}
	return buckets[:n]
}

// Count returns how many items satisfy pred.
func Count[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// Sum adds amount(item) over items.
func Sum[T any](items []T, amount func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(amount(it))
	}
	return total
}

// Where returns the items satisfying pred, preserving order.
func Where[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}
