package report

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Metric is one row of a summary export.
type Metric struct {
	Name  string
	Value string
}

// Summarizer is implemented by every module report.
type Summarizer interface {
	Summary() []Metric
}

// Ranked is a bucket resolved to a display name.
type Ranked struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// Rank resolves the first n buckets of sorted to display names.
func Rank(sorted []Bucket, n int, name func(id string) string) []Ranked {
	top := Top(sorted, n)
	out := make([]Ranked, 0, len(top))
	for _, b := range top {
		out = append(out, Ranked{ID: b.Key, Name: name(b.Key), Count: b.Count, Sum: b.Sum})
	}
	return out
}

type metrics []Metric

func (m *metrics) int(name string, v int) {
	*m = append(*m, Metric{Name: name, Value: strconv.Itoa(v)})
}

func (m *metrics) dec(name string, v decimal.Decimal) {
	*m = append(*m, Metric{Name: name, Value: v.String()})
}

func (m *metrics) buckets(prefix string, bs []Bucket) {
	for _, b := range bs {
		m.int(prefix+" "+b.Key+" count", b.Count)
		m.dec(prefix+" "+b.Key+" amount", b.Sum)
	}
}
