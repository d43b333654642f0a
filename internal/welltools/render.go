package welltools

import (
	"fmt"
	"strings"

	"permalens/internal/dimension"
	"permalens/internal/scoring"
)

func displayName(c dimension.Code) string {
	name, err := dimension.DisplayName(c)
	if err != nil {
		return string(c)
	}
	return name
}

// renderScores formats the per-dimension and composite means as a
// markdown table. Absent cells render as a dash, not a zero.
func renderScores(r scoring.Result) string {
	var sb strings.Builder
	sb.WriteString("| Dimension | Personal | Work |\n")
	sb.WriteString("|---|---|---|\n")
	for _, ds := range r.PerDimension {
		sb.WriteString(scoreRow(ds))
	}
	sb.WriteString(scoreRow(r.Composite))
	return sb.String()
}

func scoreRow(ds scoring.DimensionScore) string {
	return fmt.Sprintf("| %s | %s | %s |\n", displayName(ds.Dimension), cell(ds.Personal), cell(ds.Work))
}

func cell(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

func renderInsights(insights []scoring.Insight) string {
	if len(insights) == 0 {
		return "No insights for this submission.\n"
	}
	var sb strings.Builder
	for _, in := range insights {
		sb.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", in.Name, in.Kind, in.Text))
	}
	return sb.String()
}
