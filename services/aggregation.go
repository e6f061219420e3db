package services

import (
	"fmt"
	"sort"

	"crime-analytics/models"
	"crime-analytics/observability"
	"crime-analytics/storage"
	"crime-analytics/utils"
)

// DefaultTopLimit is the size of top-N tables
const DefaultTopLimit = 10

// AnalysisService computes ranked tables, yearly trends and totals
type AnalysisService struct {
	dataset *storage.Dataset
	logger  *utils.Logger
	metrics *observability.Metrics
}

// NewAnalysisService creates a new AnalysisService. metrics may be nil.
func NewAnalysisService(ds *storage.Dataset, logger *utils.Logger, metrics *observability.Metrics) *AnalysisService {
	return &AnalysisService{dataset: ds, logger: logger, metrics: metrics}
}

// Analyze combines top districts, the yearly trend and totals for one filter.
// It never fails: any problem yields DefaultAnalysis.
func (s *AnalysisService) Analyze(state, crimeType, yearParam string) (result *models.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Error in analysis for %s/%s/%s: %v", state, crimeType, yearParam, r)
			s.metrics.RecordFallback("analysis", "panic")
			result = models.DefaultAnalysis()
		}
	}()

	if s.dataset.Len() == 0 {
		s.metrics.RecordFallback("analysis", "no_dataset")
		return models.DefaultAnalysis()
	}

	year, err := models.ParseYear(yearParam)
	if err != nil {
		s.logger.Warn("Analysis: invalid year %q: %v", yearParam, err)
		s.metrics.RecordFallback("analysis", "invalid_year")
		return models.DefaultAnalysis()
	}

	if err := s.dataset.CheckColumn(crimeType); err != nil {
		s.logger.Debug("Analysis: %v, using %s", err, models.DefaultCrimeType)
	}
	crimeType = s.dataset.ResolveCrimeType(crimeType)

	total, average, err := s.Totals(state, crimeType, year)
	if err != nil {
		s.logger.Warn("Analysis for %s/%s/%d: %v", state, crimeType, year, err)
		s.metrics.RecordFallback("analysis", "empty")
		return models.DefaultAnalysis()
	}

	return &models.AnalysisResult{
		TopDistricts: s.TopDistricts(state, crimeType, year, DefaultTopLimit),
		YearlyTrend:  s.YearlyTrend(state, crimeType),
		TotalCrimes:  total,
		AvgCrimes:    average,
	}
}

// isAll reports whether a filter value means no restriction
func isAll(v string) bool {
	return v == models.AllFilter || v == ""
}

// yearRows returns the rows of one year, restricted to state unless it is "All"
func (s *AnalysisService) yearRows(state string, year int) []*models.CrimeRecord {
	return s.dataset.Filter(models.NewFilterSpec(state, models.AllFilter, "", models.ExactYear(year)))
}

// TopDistricts ranks the rows of one year by crimeType. With state "All" the
// rows are first summed per state and the state name is reported as the label.
// Ties keep their original order.
func (s *AnalysisService) TopDistricts(state, crimeType string, year, limit int) []models.TopEntry {
	crimeType = s.dataset.ResolveCrimeType(crimeType)
	rows := s.yearRows(state, year)

	var entries []models.TopEntry
	if isAll(state) {
		sums := make(map[string]float64)
		for _, r := range rows {
			sums[r.State] += r.ValueOrZero(crimeType)
		}
		states := make([]string, 0, len(sums))
		for st := range sums {
			states = append(states, st)
		}
		// group keys come out sorted, which fixes the tie order
		sort.Strings(states)
		for _, st := range states {
			entries = append(entries, models.TopEntry{Label: st, Column: crimeType, Value: sums[st]})
		}
	} else {
		for _, r := range rows {
			entries = append(entries, models.TopEntry{Label: r.District, Column: crimeType, Value: r.ValueOrZero(crimeType)})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []models.TopEntry{}
	}
	return entries
}

// YearlyTrend sums crimeType per year over the whole dataset (not year-filtered),
// restricted to state unless it is "All". Each sum is truncated to a whole number.
func (s *AnalysisService) YearlyTrend(state, crimeType string) map[int]int64 {
	crimeType = s.dataset.ResolveCrimeType(crimeType)
	sums := make(map[int]float64)
	for _, r := range s.dataset.Records() {
		if !isAll(state) && r.State != state {
			continue
		}
		sums[r.Year] += r.ValueOrZero(crimeType)
	}

	trend := make(map[int]int64, len(sums))
	for year, sum := range sums {
		trend[year] = int64(sum)
	}
	return trend
}

// Totals returns the sum and the mean of non-missing crimeType values over one
// state/year. An empty selection, or one with only missing values, is an error.
func (s *AnalysisService) Totals(state, crimeType string, year int) (int64, float64, error) {
	crimeType = s.dataset.ResolveCrimeType(crimeType)
	rows := s.yearRows(state, year)
	if len(rows) == 0 {
		return 0, 0, fmt.Errorf("no rows for state %q in %d", state, year)
	}

	stats := summarize(rows, crimeType)
	if stats.Count == 0 {
		return 0, 0, fmt.Errorf("no %s values for state %q in %d", crimeType, state, year)
	}
	return int64(stats.Sum), stats.Mean(), nil
}

// columnStats aggregates one column, skipping missing cells
type columnStats struct {
	Sum   float64
	Max   float64
	Count int
}

func (c columnStats) Mean() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.Sum / float64(c.Count)
}

func summarize(rows []*models.CrimeRecord, column string) columnStats {
	var stats columnStats
	for _, r := range rows {
		v, ok := r.Value(column)
		if !ok {
			continue
		}
		if stats.Count == 0 || v > stats.Max {
			stats.Max = v
		}
		stats.Sum += v
		stats.Count++
	}
	return stats
}
