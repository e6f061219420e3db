package services

import (
	"sort"

	"crime-analytics/models"
	"crime-analytics/observability"
	"crime-analytics/storage"
	"crime-analytics/utils"
)

// topCrimeCount is how many categories the top-crimes summary keeps
const topCrimeCount = 3

// InsightService computes per-filter statistics and policy recommendations
type InsightService struct {
	dataset     *storage.Dataset
	recommender *Recommender
	logger      *utils.Logger
	metrics     *observability.Metrics
}

// NewInsightService creates a new InsightService. metrics may be nil.
func NewInsightService(ds *storage.Dataset, recommender *Recommender, logger *utils.Logger, metrics *observability.Metrics) *InsightService {
	if recommender == nil {
		recommender = NewRecommender()
	}
	return &InsightService{dataset: ds, recommender: recommender, logger: logger, metrics: metrics}
}

// Generate computes the insight result for a filter. It never fails: without a
// dataset, or on an internal error, it returns FallbackInsights.
func (s *InsightService) Generate(filter models.FilterSpec) (result *models.InsightResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Error in crime insights: %v", r)
			s.metrics.RecordFallback("insights", "panic")
			result = FallbackInsights()
		}
	}()

	if s.dataset.Len() == 0 {
		s.logger.Warn("No dataset to generate insights from")
		s.metrics.RecordFallback("insights", "no_dataset")
		return FallbackInsights()
	}

	if err := s.dataset.CheckColumn(filter.CrimeType); err != nil {
		s.logger.Debug("Insights: %v, using %s", err, models.DefaultCrimeType)
	}
	filter.CrimeType = s.dataset.ResolveCrimeType(filter.CrimeType)
	echo := filter

	result = &models.InsightResult{
		TopCrimes:       models.RankedCounts{},
		Recommendations: []string{},
		AreaInfo:        models.AreaInfo{Filter: &echo},
	}

	rows := s.dataset.Filter(filter)
	if len(rows) == 0 {
		s.metrics.RecordFallback("insights", "no_rows")
		result.Recommendations = append(result.Recommendations, NoDataRecommendations...)
		return result
	}

	knownColumn := s.dataset.HasColumn(filter.CrimeType)
	if knownColumn {
		result.CrimeAnalysis = analyzeColumn(rows, filter.CrimeType)
	}

	result.Recommendations = s.recommender.Recommend(rows, filter.CrimeType, filter.State, filter.District, knownColumn)
	result.TopCrimes = s.topCrimes(rows)
	return result
}

// analyzeColumn summarizes one column. The trend compares the total of the set
// with its own mean, so it is "increasing" for almost every multi-row set.
func analyzeColumn(rows []*models.CrimeRecord, column string) *models.CrimeAnalysis {
	stats := summarize(rows, column)
	analysis := &models.CrimeAnalysis{
		Total:   int64(stats.Sum),
		Average: stats.Mean(),
		Maximum: int64(stats.Max),
		Trend:   models.TrendDecreasing,
	}
	if stats.Sum > stats.Mean() {
		analysis.Trend = models.TrendIncreasing
	}
	return analysis
}

// topCrimes sums each crime category present in the dataset and keeps the largest three
func (s *InsightService) topCrimes(rows []*models.CrimeRecord) models.RankedCounts {
	ranked := models.RankedCounts{}
	for _, category := range models.CrimeCategories {
		if !s.dataset.HasColumn(category) {
			continue
		}
		var sum float64
		for _, r := range rows {
			sum += r.ValueOrZero(category)
		}
		ranked = append(ranked, models.RankedCount{Key: category, Value: sum})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	if len(ranked) > topCrimeCount {
		ranked = ranked[:topCrimeCount]
	}
	return ranked
}

// FallbackInsights is the result used when no data can be consulted at all
func FallbackInsights() *models.InsightResult {
	return &models.InsightResult{
		TopCrimes:       models.RankedCounts{},
		Recommendations: append([]string(nil), FallbackRecommendations...),
	}
}
