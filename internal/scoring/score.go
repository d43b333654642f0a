// Package scoring turns raw dual-context responses into per-dimension
// means, an overall index, and threshold-based insights.
//
// Everything in this package is a pure function over its inputs: the
// stored dimension_results rows are a disposable cache, and recomputing
// from raw responses through Score is always authoritative.
package scoring

import (
	"math"

	"permalens/internal/dimension"
)

// Response is one raw answer tagged with its dimension code. A nil
// value means the context was never answered, which is distinct from
// any numeric value including zero.
type Response struct {
	Dimension dimension.Code
	Personal  *int
	Work      *int
}

// DimensionScore holds the per-context means for one dimension.
// A nil mean means the dimension had zero answered values in that
// context — absent, never zero.
type DimensionScore struct {
	Dimension dimension.Code
	Personal  *float64
	Work      *float64
}

// Result is the full scoring output for one response set.
type Result struct {
	// PerDimension lists one entry per real dimension that has at
	// least one constituent response, in catalog order.
	PerDimension []DimensionScore
	// Composite is the overall index per context: the mean of the
	// present constituent dimension means, tagged with the reserved
	// composite code.
	Composite DimensionScore
}

// accumulator tracks unrounded sums so that repeated partial
// aggregations never compound rounding error. Rounding happens once,
// at the output boundary.
type accumulator struct {
	personalSum   float64
	personalCount int
	workSum       float64
	workCount     int
}

func (a *accumulator) add(r Response) {
	if r.Personal != nil {
		a.personalSum += float64(*r.Personal)
		a.personalCount++
	}
	if r.Work != nil {
		a.workSum += float64(*r.Work)
		a.workCount++
	}
}

// personalMean returns the unrounded mean, or false when no values exist.
func (a *accumulator) personalMean() (float64, bool) {
	if a.personalCount == 0 {
		return 0, false
	}
	return a.personalSum / float64(a.personalCount), true
}

func (a *accumulator) workMean() (float64, bool) {
	if a.workCount == 0 {
		return 0, false
	}
	return a.workSum / float64(a.workCount), true
}

// Score aggregates a response set into per-dimension and composite
// means. Responses with unknown dimension codes are skipped — stale or
// foreign categorization schemes must not reject the whole set. The
// composite is restricted to the fixed constituent subset; responses in
// non-constituent dimensions never move it.
func Score(responses []Response) Result {
	byDim := make(map[dimension.Code]*accumulator)
	for _, r := range responses {
		if !dimension.IsReal(r.Dimension) {
			continue
		}
		acc, ok := byDim[r.Dimension]
		if !ok {
			acc = &accumulator{}
			byDim[r.Dimension] = acc
		}
		acc.add(r)
	}

	var result Result
	for _, code := range dimension.Codes() {
		acc, ok := byDim[code]
		if !ok {
			continue
		}
		ds := DimensionScore{Dimension: code}
		if m, ok := acc.personalMean(); ok {
			ds.Personal = round2(m)
		}
		if m, ok := acc.workMean(); ok {
			ds.Work = round2(m)
		}
		result.PerDimension = append(result.PerDimension, ds)
	}

	// Composite per context: mean of the unrounded constituent means
	// that are present. Absent when no constituent has a score.
	var comp accumulator
	for _, code := range dimension.CompositeConstituents() {
		acc, ok := byDim[code]
		if !ok {
			continue
		}
		if m, ok := acc.personalMean(); ok {
			comp.personalSum += m
			comp.personalCount++
		}
		if m, ok := acc.workMean(); ok {
			comp.workSum += m
			comp.workCount++
		}
	}
	result.Composite = DimensionScore{Dimension: dimension.Composite}
	if m, ok := comp.personalMean(); ok {
		result.Composite.Personal = round2(m)
	}
	if m, ok := comp.workMean(); ok {
		result.Composite.Work = round2(m)
	}

	return result
}

// Dimension returns the score entry for a code, or nil when the
// dimension had no responses at all.
func (r Result) Dimension(code dimension.Code) *DimensionScore {
	for i := range r.PerDimension {
		if r.PerDimension[i].Dimension == code {
			return &r.PerDimension[i]
		}
	}
	return nil
}

func round2(v float64) *float64 {
	rounded := math.Round(v*100) / 100
	return &rounded
}
