package services

import (
	"fmt"
	"math/rand"
	"testing"

	"crime-analytics/models"
	"crime-analytics/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeAllStates(t *testing.T) {
	svc := NewAnalysisService(testDataset(), testLogger(), nil)

	result := svc.Analyze("All", "Murder", "2014")

	require.Len(t, result.TopDistricts, 3)
	assert.Equal(t, models.TopEntry{Label: "Delhi UT", Column: "Murder", Value: 150}, result.TopDistricts[0])
	assert.Equal(t, models.TopEntry{Label: "Maharashtra", Column: "Murder", Value: 75}, result.TopDistricts[1])
	assert.Equal(t, models.TopEntry{Label: "Goa", Column: "Murder", Value: 4}, result.TopDistricts[2])

	assert.Equal(t, map[int]int64{2013: 102, 2014: 229}, result.YearlyTrend)
	assert.Equal(t, int64(229), result.TotalCrimes)
	assert.InDelta(t, 229.0/6.0, result.AvgCrimes, 1e-9)
}

func TestAnalyzeOneState(t *testing.T) {
	svc := NewAnalysisService(testDataset(), testLogger(), nil)

	result := svc.Analyze("Maharashtra", "Theft", "2014.0")

	require.Len(t, result.TopDistricts, 2)
	assert.Equal(t, "Pune", result.TopDistricts[0].Label)
	assert.Equal(t, 700.0, result.TopDistricts[0].Value)
	assert.Equal(t, "Nagpur", result.TopDistricts[1].Label)
	assert.Equal(t, map[int]int64{2013: 600, 2014: 1000}, result.YearlyTrend)
	assert.Equal(t, int64(1000), result.TotalCrimes)
	assert.InDelta(t, 500.0, result.AvgCrimes, 1e-9)
}

func TestAnalyzeDefaults(t *testing.T) {
	svc := NewAnalysisService(testDataset(), testLogger(), nil)

	tests := []struct {
		name, state, crimeType, year string
	}{
		{"invalid year", "All", "Murder", "twenty"},
		{"fractional year", "All", "Murder", "2014.7"},
		{"missing year", "All", "Murder", ""},
		{"unknown state", "Atlantis", "Murder", "2014"},
		{"year without rows", "Goa", "Murder", "1990"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, models.DefaultAnalysis(), svc.Analyze(tt.state, tt.crimeType, tt.year))
		})
	}

	empty := NewAnalysisService(nil, testLogger(), nil)
	assert.Equal(t, models.DefaultAnalysis(), empty.Analyze("All", "Murder", "2014"))
}

func TestAnalyzeUnknownCrimeTypeUsesTotal(t *testing.T) {
	svc := NewAnalysisService(testDataset(), testLogger(), nil)

	result := svc.Analyze("Goa", "Piracy", "2014")
	require.NotEmpty(t, result.TopDistricts)
	assert.Equal(t, models.DefaultCrimeType, result.TopDistricts[0].Column)
	assert.Equal(t, int64(160), result.TotalCrimes)
}

func TestAnalyzeMissingValuesGiveDefault(t *testing.T) {
	ds := storage.NewDataset([]*models.CrimeRecord{
		record("Goa", "North Goa", 2014, map[string]float64{"Total_Crimes": 10}),
	}, testColumns)
	svc := NewAnalysisService(ds, testLogger(), nil)

	assert.Equal(t, models.DefaultAnalysis(), svc.Analyze("Goa", "Murder", "2014"))
}

func TestTopDistrictsLimitAndOrder(t *testing.T) {
	var records []*models.CrimeRecord
	for i := 0; i < 15; i++ {
		records = append(records, record("Bihar", fmt.Sprintf("District %02d", i), 2014,
			map[string]float64{"Total_Crimes": float64(i * 10)}))
	}
	svc := NewAnalysisService(storage.NewDataset(records, testColumns), testLogger(), nil)

	top := svc.TopDistricts("Bihar", "Total_Crimes", 2014, DefaultTopLimit)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Value, top[i].Value)
	}
	assert.Equal(t, "District 14", top[0].Label)

	assert.Empty(t, svc.TopDistricts("Kerala", "Total_Crimes", 2014, DefaultTopLimit))
	assert.NotNil(t, svc.TopDistricts("Kerala", "Total_Crimes", 2014, DefaultTopLimit))
}

func TestTopDistrictsTiesKeepGroupOrder(t *testing.T) {
	ds := storage.NewDataset([]*models.CrimeRecord{
		record("Kerala", "Kochi", 2014, map[string]float64{"Total_Crimes": 5}),
		record("Assam", "Dispur", 2014, map[string]float64{"Total_Crimes": 5}),
	}, testColumns)
	svc := NewAnalysisService(ds, testLogger(), nil)

	top := svc.TopDistricts("All", "Total_Crimes", 2014, DefaultTopLimit)
	require.Len(t, top, 2)
	assert.Equal(t, "Assam", top[0].Label)
	assert.Equal(t, "Kerala", top[1].Label)
}

func TestYearlyTrendIsOrderInvariant(t *testing.T) {
	want := NewAnalysisService(testDataset(), testLogger(), nil).YearlyTrend("All", "Theft")

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		records := testRecords()
		rng.Shuffle(len(records), func(a, b int) { records[a], records[b] = records[b], records[a] })
		svc := NewAnalysisService(storage.NewDataset(records, testColumns), testLogger(), nil)
		assert.Equal(t, want, svc.YearlyTrend("All", "Theft"))
	}
}

func TestYearlyTrendTruncates(t *testing.T) {
	ds := storage.NewDataset([]*models.CrimeRecord{
		record("Goa", "North Goa", 2014, map[string]float64{"Total_Crimes": 1.6}),
		record("Goa", "South Goa", 2014, map[string]float64{"Total_Crimes": 1.6}),
	}, testColumns)
	svc := NewAnalysisService(ds, testLogger(), nil)

	assert.Equal(t, map[int]int64{2014: 3}, svc.YearlyTrend("Goa", "Total_Crimes"))
}
