package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"crime-analytics/models"

	"github.com/fatih/color"
)

// PrintInsightReport formats the analysis and insights for one filter to w
func PrintInsightReport(w io.Writer, filter models.FilterSpec, analysis *models.AnalysisResult, insights *models.InsightResult) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)
	heading := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("CRIME STATISTICS INSIGHTS ", 55))
	fmt.Fprintf(w, "╚%s╝\n", border)

	heading.Fprintf(w, "\n FILTER\n")
	fmt.Fprintf(w, "%s\n", thin)
	fmt.Fprintf(w, "  State       : %s\n", filter.State)
	fmt.Fprintf(w, "  District    : %s\n", filter.District)
	fmt.Fprintf(w, "  Crime Type  : %s\n", filter.CrimeType)
	fmt.Fprintf(w, "  Year        : %s\n", filter.Year)

	if analysis != nil {
		heading.Fprintf(w, "\n OVERVIEW\n")
		fmt.Fprintf(w, "%s\n", thin)
		fmt.Fprintf(w, "  Total Crimes            : %d\n", analysis.TotalCrimes)
		fmt.Fprintf(w, "  Average per Row         : %.2f\n", analysis.AvgCrimes)

		if len(analysis.TopDistricts) > 0 {
			heading.Fprintf(w, "\n TOP %d\n", len(analysis.TopDistricts))
			fmt.Fprintf(w, "%s\n", thin)
			max := analysis.TopDistricts[0].Value
			for i, e := range analysis.TopDistricts {
				fmt.Fprintf(w, "  %2d. %-28s %8.0f  %s\n", i+1, truncate(e.Label, 28), e.Value, bar(e.Value, max, 15))
			}
		}

		if len(analysis.YearlyTrend) > 0 {
			heading.Fprintf(w, "\n YEARLY TREND\n")
			fmt.Fprintf(w, "%s\n", thin)
			years := make([]int, 0, len(analysis.YearlyTrend))
			var max int64
			for y, v := range analysis.YearlyTrend {
				years = append(years, y)
				if v > max {
					max = v
				}
			}
			sort.Ints(years)
			for _, y := range years {
				v := analysis.YearlyTrend[y]
				fmt.Fprintf(w, "  %d  %10d  %s\n", y, v, bar(float64(v), float64(max), 25))
			}
		}
	}

	if insights != nil {
		if a := insights.CrimeAnalysis; a != nil {
			heading.Fprintf(w, "\n CRIME ANALYSIS\n")
			fmt.Fprintf(w, "%s\n", thin)
			fmt.Fprintf(w, "  Total   : %d\n", a.Total)
			fmt.Fprintf(w, "  Average : %.2f\n", a.Average)
			fmt.Fprintf(w, "  Maximum : %d\n", a.Maximum)
			fmt.Fprintf(w, "  Trend   : %s\n", a.Trend)
		}

		if len(insights.TopCrimes) > 0 {
			heading.Fprintf(w, "\n TOP CRIMES\n")
			fmt.Fprintf(w, "%s\n", thin)
			for i, c := range insights.TopCrimes {
				fmt.Fprintf(w, "  %d. %-20s %10.0f\n", i+1, c.Key, c.Value)
			}
		}

		heading.Fprintf(w, "\n RECOMMENDATIONS\n")
		fmt.Fprintf(w, "%s\n", thin)
		if len(insights.Recommendations) == 0 {
			warn.Fprintf(w, "  (none)\n")
		}
		for i, rec := range insights.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

func bar(value, max float64, width int) string {
	if max <= 0 || value <= 0 {
		return ""
	}
	n := int(value / max * float64(width))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("▓", n)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
