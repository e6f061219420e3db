package services

import (
	"bytes"
	"testing"

	"crime-analytics/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportAnalysisWorkbook(t *testing.T) {
	ds := testDataset()
	filter := models.NewFilterSpec("All", "All", "Murder", models.ExactYear(2014))
	analysis := NewAnalysisService(ds, testLogger(), nil).Analyze("All", "Murder", "2014")
	insights := NewInsightService(ds, nil, testLogger(), nil).Generate(filter)

	f, err := ExportAnalysisWorkbook(filter, analysis, insights)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetTop, sheetTrend, sheetRecommendations}, f.GetSheetList())

	top, err := f.GetRows(sheetTop)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rank", "State", "Murder"}, top[0])
	assert.Equal(t, []string{"1", "Delhi UT", "150"}, top[1])

	trend, err := f.GetRows(sheetTrend)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, []string{"2013", "102"}, trend[1])
	assert.Equal(t, []string{"2014", "229"}, trend[2])

	recs, err := f.GetRows(sheetRecommendations)
	require.NoError(t, err)
	assert.Len(t, recs, len(insights.Recommendations)+1)

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "PK", buf.String()[:2])
}

func TestExportAnalysisWorkbookDefaults(t *testing.T) {
	f, err := ExportAnalysisWorkbook(models.NewFilterSpec("Goa", "", "", models.AnyYear), nil, nil)
	require.NoError(t, err)
	defer f.Close()

	top, err := f.GetRows(sheetTop)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rank", "District", "Total_Crimes"}, top[0])
}

func TestSheetWriterKeepsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{f: f}
	w.set("Sheet1", 1, 1, "ok")
	require.NoError(t, w.err)

	w.set("Missing", 1, 1, "lost")
	require.Error(t, w.err)
	first := w.err

	w.width("Sheet1", 0, 10)
	w.set("Sheet1", 1, 2, "skipped")
	assert.Equal(t, first, w.err)

	v, err := f.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestRenderTrendChart(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTrendChart(&buf, "Murder - All", map[int]int64{2012: 90, 2013: 102, 2014: 229})
	require.NoError(t, err)
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), buf.Bytes()[:8])
}

func TestPrintInsightReport(t *testing.T) {
	ds := testDataset()
	filter := models.NewFilterSpec("Delhi UT", "All", "Murder", models.ExactYear(2014))
	analysis := NewAnalysisService(ds, testLogger(), nil).Analyze("Delhi UT", "Murder", "2014")
	insights := NewInsightService(ds, nil, testLogger(), nil).Generate(filter)

	var buf bytes.Buffer
	PrintInsightReport(&buf, filter, analysis, insights)
	out := buf.String()

	assert.Contains(t, out, "CRIME STATISTICS INSIGHTS")
	assert.Contains(t, out, "Delhi UT")
	assert.Contains(t, out, "New Delhi")
	assert.Contains(t, out, "Total   : 150")
	assert.Contains(t, out, "Establish specialized homicide investigation units")
}

func TestReportHelpers(t *testing.T) {
	assert.Equal(t, "  ab  ", center("ab", 6))
	assert.Equal(t, "abcdef", center("abcdef", 3))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "", bar(0, 10, 5))
	assert.Equal(t, "▓▓▓▓▓", bar(10, 10, 5))
	assert.Equal(t, "▓", bar(0.1, 10, 5))
}
