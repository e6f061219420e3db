package services

import (
	"fmt"
	"sort"

	"crime-analytics/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetTop             = "Top"
	sheetTrend           = "Yearly_Trend"
	sheetRecommendations = "Recommendations"
)

// ExportAnalysisWorkbook lays out an analysis and its insights as a workbook
// with one sheet per view. The caller owns the returned file and must Close it.
func ExportAnalysisWorkbook(filter models.FilterSpec, analysis *models.AnalysisResult, insights *models.InsightResult) (*excelize.File, error) {
	if analysis == nil {
		analysis = models.DefaultAnalysis()
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetTop); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	w := &sheetWriter{f: f}
	label := "District"
	if filter.State == models.AllFilter {
		label = "State"
	}
	w.header(sheetTop, []string{"Rank", label, filter.CrimeType})
	for i, e := range analysis.TopDistricts {
		row := i + 2
		w.set(sheetTop, 1, row, i+1)
		w.set(sheetTop, 2, row, e.Label)
		w.set(sheetTop, 3, row, e.Value)
	}
	summaryRow := len(analysis.TopDistricts) + 3
	w.set(sheetTop, 1, summaryRow, "Total")
	w.set(sheetTop, 3, summaryRow, analysis.TotalCrimes)
	w.set(sheetTop, 1, summaryRow+1, "Average")
	w.set(sheetTop, 3, summaryRow+1, analysis.AvgCrimes)

	if _, err := f.NewSheet(sheetTrend); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %s: %w", sheetTrend, err)
	}
	w.header(sheetTrend, []string{"Year", filter.CrimeType})
	years := make([]int, 0, len(analysis.YearlyTrend))
	for y := range analysis.YearlyTrend {
		years = append(years, y)
	}
	sort.Ints(years)
	for i, y := range years {
		w.set(sheetTrend, 1, i+2, y)
		w.set(sheetTrend, 2, i+2, analysis.YearlyTrend[y])
	}

	if _, err := f.NewSheet(sheetRecommendations); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %s: %w", sheetRecommendations, err)
	}
	w.header(sheetRecommendations, []string{"#", "Recommendation"})
	w.width(sheetRecommendations, 2, 70)
	if insights != nil {
		for i, rec := range insights.Recommendations {
			w.set(sheetRecommendations, 1, i+2, i+1)
			w.set(sheetRecommendations, 2, i+2, rec)
		}
	}

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// sheetWriter keeps the first cell or layout error and skips later writes
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(sheet string, col, row int, value interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = fmt.Errorf("cell %d,%d: %w", col, row, err)
		return
	}
	if err := w.f.SetCellValue(sheet, cell, value); err != nil {
		w.err = fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
}

func (w *sheetWriter) width(sheet string, col int, width float64) {
	if w.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		w.err = fmt.Errorf("column %d: %w", col, err)
		return
	}
	if err := w.f.SetColWidth(sheet, name, name, width); err != nil {
		w.err = fmt.Errorf("width of %s!%s: %w", sheet, name, err)
	}
}

func (w *sheetWriter) header(sheet string, headers []string) {
	for i, header := range headers {
		w.set(sheet, i+1, 1, header)
		w.width(sheet, i+1, 18)
	}
}
