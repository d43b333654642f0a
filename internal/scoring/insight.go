package scoring

import (
	"fmt"

	"permalens/internal/dimension"
)

// InsightKind classifies an insight.
type InsightKind string

const (
	KindStrength    InsightKind = "strength"
	KindOpportunity InsightKind = "opportunity"
	KindImbalance   InsightKind = "imbalance"
)

// Insight is a human-readable observation derived from one dimension's
// scores. Insights are never persisted — they are regenerated from
// aggregates on every read and have no identity beyond the rendering
// moment.
type Insight struct {
	Dimension dimension.Code
	Name      string
	Kind      InsightKind
	// Context is the rated context for strength/opportunity insights,
	// and the higher-scoring context for imbalance insights.
	Context dimension.Context
	Text    string
}

// Threshold fractions of the scale range. On the default 0–10 scale
// these are the product's published cut-offs: strength ≥ 7,
// opportunity ≤ 5, imbalance gap ≥ 3.
const (
	strengthFraction    = 0.7
	opportunityFraction = 0.5
	imbalanceFraction   = 0.3
)

// Insights applies the threshold rules to a scoring result. The three
// rules are independent, not a priority chain: a single dimension can
// be strong at work, an opportunity personally, and imbalanced all at
// once. Absent means produce no insight for that cell.
func Insights(r Result, scaleStart, scaleEnd int) []Insight {
	span := float64(scaleEnd - scaleStart)
	if span <= 0 {
		span = 10
		scaleStart = 0
	}
	strengthAt := float64(scaleStart) + span*strengthFraction
	opportunityAt := float64(scaleStart) + span*opportunityFraction
	imbalanceGap := span * imbalanceFraction

	var insights []Insight
	for _, ds := range r.PerDimension {
		name, err := dimension.DisplayName(ds.Dimension)
		if err != nil {
			continue
		}

		for _, cell := range []struct {
			ctx  dimension.Context
			mean *float64
		}{
			{dimension.Personal, ds.Personal},
			{dimension.Work, ds.Work},
		} {
			if cell.mean == nil {
				continue
			}
			if *cell.mean >= strengthAt {
				insights = append(insights, Insight{
					Dimension: ds.Dimension,
					Name:      name,
					Kind:      KindStrength,
					Context:   cell.ctx,
					Text: fmt.Sprintf("%s is a strength in your %s life (%.1f out of %d).",
						name, cell.ctx, *cell.mean, scaleEnd),
				})
			}
			if *cell.mean <= opportunityAt {
				insights = append(insights, Insight{
					Dimension: ds.Dimension,
					Name:      name,
					Kind:      KindOpportunity,
					Context:   cell.ctx,
					Text: fmt.Sprintf("%s is a growth opportunity in your %s life (%.1f out of %d).",
						name, cell.ctx, *cell.mean, scaleEnd),
				})
			}
		}

		if ds.Personal != nil && ds.Work != nil {
			gap := *ds.Personal - *ds.Work
			if gap >= imbalanceGap || -gap >= imbalanceGap {
				higher := dimension.Personal
				if *ds.Work > *ds.Personal {
					higher = dimension.Work
				}
				insights = append(insights, Insight{
					Dimension: ds.Dimension,
					Name:      name,
					Kind:      KindImbalance,
					Context:   higher,
					Text: fmt.Sprintf("%s scores notably higher in your %s life (%.1f vs %.1f).",
						name, higher, maxFloat(*ds.Personal, *ds.Work), minFloat(*ds.Personal, *ds.Work)),
				})
			}
		}
	}
	return insights
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
