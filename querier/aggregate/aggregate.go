// Package aggregate implements the seven numeric accumulators a Stats: op
// column line can bind to. Each one is a direct translation of the
// anonymous-namespace Aggregation subclasses in ParsedQuery.cc, including
// the documented min/max "wrong but compatible" default.
package aggregate

import "math"

// Aggregation is an in-place numeric accumulator.
type Aggregation interface {
	Update(value float64)
	Value() float64
}

// Factory constructs a fresh, zeroed Aggregation.
type Factory func() Aggregation

// Kernels maps a Stats: op token (sum, min, max, avg, std, suminv,
// avginv) to the factory that builds it. Lookup misses mean the token
// wasn't an aggregation operator at all — the caller falls back to
// treating it as a column name for a Count-style Stats line.
var Kernels = map[string]Factory{
	"sum":    func() Aggregation { return &sum{} },
	"min":    func() Aggregation { return &minAgg{} },
	"max":    func() Aggregation { return &maxAgg{} },
	"avg":    func() Aggregation { return &avg{} },
	"std":    func() Aggregation { return &std{} },
	"suminv": func() Aggregation { return &sumInv{} },
	"avginv": func() Aggregation { return &avgInv{} },
}

type sum struct{ total float64 }

func (a *sum) Update(v float64) { a.total += v }
func (a *sum) Value() float64   { return a.total }

// minAgg's neutral element ought to be +Inf, but the original
// implementation seeds it at 0 and only tracks whether a sample has been
// seen. An aggregator with no samples therefore reports 0, not +Inf; this
// is a known, preserved defect (spec §9, quirk 2).
type minAgg struct {
	value float64
	seen  bool
}

func (a *minAgg) Update(v float64) {
	if !a.seen || v < a.value {
		a.value = v
	}
	a.seen = true
}
func (a *minAgg) Value() float64 { return a.value }

// maxAgg mirrors minAgg: neutral element ought to be -Inf, preserved as 0.
type maxAgg struct {
	value float64
	seen  bool
}

func (a *maxAgg) Update(v float64) {
	if !a.seen || v > a.value {
		a.value = v
	}
	a.seen = true
}
func (a *maxAgg) Value() float64 { return a.value }

type avg struct {
	total float64
	count uint32
}

func (a *avg) Update(v float64) {
	a.count++
	a.total += v
}

// Value divides by zero (yielding NaN) if Update was never called; per
// spec §4.B this is left undefined at this layer, callers must not call
// Value on an empty aggregator.
func (a *avg) Value() float64 { return a.total / float64(a.count) }

// std computes the population (non-Bessel-corrected) standard deviation:
// sqrt(E[x^2] - E[x]^2).
type std struct {
	total        float64
	sumOfSquares float64
	count        uint32
}

func (a *std) Update(v float64) {
	a.count++
	a.total += v
	a.sumOfSquares += v * v
}

func (a *std) Value() float64 {
	mean := a.total / float64(a.count)
	return math.Sqrt(a.sumOfSquares/float64(a.count) - mean*mean)
}

type sumInv struct{ total float64 }

func (a *sumInv) Update(v float64) { a.total += 1.0 / v }
func (a *sumInv) Value() float64   { return a.total }

type avgInv struct {
	total float64
	count uint32
}

func (a *avgInv) Update(v float64) {
	a.count++
	a.total += 1.0 / v
}
func (a *avgInv) Value() float64 { return a.total / float64(a.count) }
