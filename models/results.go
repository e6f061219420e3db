package models

import (
	"encoding/json"
	"time"
)

// TopEntry is one row of a top-N table. It serializes as
// {"District": label, "<crime column>": value} so both state-level and
// district-level rankings share one shape.
type TopEntry struct {
	Label  string
	Column string
	Value  float64
}

func (e TopEntry) MarshalJSON() ([]byte, error) {
	return writeOrderedObject(2,
		func(i int) string {
			if i == 0 {
				return ColumnDistrict
			}
			return e.Column
		},
		func(i int) any {
			if i == 0 {
				return e.Label
			}
			return e.Value
		})
}

// AnalysisResult is the aggregated view for one state/crime type/year
type AnalysisResult struct {
	TopDistricts []TopEntry    `json:"top_districts"`
	YearlyTrend  map[int]int64 `json:"yearly_trend"`
	TotalCrimes  int64         `json:"total_crimes"`
	AvgCrimes    float64       `json:"avg_crimes"`
}

// DefaultAnalysis is returned whenever analysis cannot be computed
func DefaultAnalysis() *AnalysisResult {
	return &AnalysisResult{
		TopDistricts: []TopEntry{},
		YearlyTrend:  map[int]int64{},
	}
}

// CrimeAnalysis summarizes one crime column over a filtered set.
// Trend compares the set's total with its own mean, not a time series.
type CrimeAnalysis struct {
	Total   int64   `json:"total"`
	Average float64 `json:"average"`
	Maximum int64   `json:"maximum"`
	Trend   string  `json:"trend"`
}

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// AreaInfo echoes the filter an insight was computed for
type AreaInfo struct {
	Filter *FilterSpec
}

func (a AreaInfo) MarshalJSON() ([]byte, error) {
	if a.Filter == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.Filter)
}

// InsightResult is the policy view for one filter
type InsightResult struct {
	CrimeAnalysis   *CrimeAnalysis `json:"-"`
	TopCrimes       RankedCounts   `json:"top_crimes"`
	Trends          struct{}       `json:"trends"`
	Recommendations []string       `json:"recommendations"`
	AreaInfo        AreaInfo       `json:"area_info"`
}

// MarshalJSON writes an empty object for a missing crime analysis
func (r InsightResult) MarshalJSON() ([]byte, error) {
	type plain InsightResult
	out := struct {
		CrimeAnalysis any `json:"crime_analysis"`
		*plain
	}{
		CrimeAnalysis: struct{}{},
		plain:         (*plain)(&r),
	}
	if r.CrimeAnalysis != nil {
		out.CrimeAnalysis = r.CrimeAnalysis
	}
	return json.Marshal(out)
}

// PredictionResult is the response of the prediction adapter
type PredictionResult struct {
	State           string  `json:"state"`
	District        string  `json:"district"`
	CrimeType       string  `json:"crime_type"`
	Year            int     `json:"year"`
	PredictedCrimes float64 `json:"predicted_crimes"`
	Confidence      string  `json:"confidence"`
}

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	// FallbackPrediction is reported when no model can serve a request
	FallbackPrediction = 100
)

// RegressionParams is the fitted state of a standardized ridge regression
type RegressionParams struct {
	Intercept    float64   `msgpack:"intercept"`
	Means        []float64 `msgpack:"means"`
	Scales       []float64 `msgpack:"scales"`
	Coefficients []float64 `msgpack:"coefficients"`
}

// ModelArtifact is everything needed to serve predictions for one crime type
type ModelArtifact struct {
	CrimeType       string           `msgpack:"crime_type"`
	StateClasses    []string         `msgpack:"state_classes"`
	DistrictClasses []string         `msgpack:"district_classes"`
	Params          RegressionParams `msgpack:"params"`
	Samples         int              `msgpack:"samples"`
	MAE             float64          `msgpack:"mae"`
	R2              float64          `msgpack:"r2"`
	TrainedAt       time.Time        `msgpack:"trained_at"`
}
