package services

import (
	"sort"

	"crime-analytics/models"
	"crime-analytics/observability"
	"crime-analytics/storage"
	"crime-analytics/utils"
)

const (
	// AllStatesHotspotLimit caps the nationwide ranking
	AllStatesHotspotLimit = 30
	// StateHotspotLimit caps the ranking inside one state
	StateHotspotLimit = 20
)

// HotspotService ranks districts by summed crime count
type HotspotService struct {
	dataset *storage.Dataset
	coords  *storage.CoordinateTable
	logger  *utils.Logger
	metrics *observability.Metrics
}

// NewHotspotService creates a new HotspotService. metrics may be nil.
func NewHotspotService(ds *storage.Dataset, coords *storage.CoordinateTable, logger *utils.Logger, metrics *observability.Metrics) *HotspotService {
	return &HotspotService{dataset: ds, coords: coords, logger: logger, metrics: metrics}
}

// Hotspots sums crimeType per (state, district) over all years and returns
// the highest totals, keyed "state,district". An unknown state gives an
// empty ranking.
func (s *HotspotService) Hotspots(state, crimeType string) (ranking models.HotspotRanking) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Error in hotspots for %s/%s: %v", state, crimeType, r)
			s.metrics.RecordFallback("hotspots", "panic")
			ranking = models.HotspotRanking{}
		}
	}()

	if s.dataset.Len() == 0 {
		s.metrics.RecordFallback("hotspots", "no_dataset")
		return models.HotspotRanking{}
	}
	if !s.dataset.HasColumn(crimeType) {
		s.logger.Debug("Crime type %q not found, using: %s", crimeType, models.DefaultCrimeType)
	}
	crimeType = s.dataset.ResolveCrimeType(crimeType)

	type group struct {
		state, district string
	}
	sums := make(map[group]float64)
	for _, r := range s.dataset.Records() {
		if !isAll(state) && r.State != state {
			continue
		}
		sums[group{r.State, r.District}] += r.ValueOrZero(crimeType)
	}

	if len(sums) == 0 {
		s.logger.Info("No data found for state: %s", state)
		return models.HotspotRanking{}
	}

	groups := make([]group, 0, len(sums))
	for g := range sums {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].state != groups[j].state {
			return groups[i].state < groups[j].state
		}
		return groups[i].district < groups[j].district
	})

	ranking = make(models.HotspotRanking, 0, len(groups))
	for _, g := range groups {
		ranking = append(ranking, models.Hotspot{
			Key:   models.LocationKey(g.state, g.district),
			Count: int64(sums[g]),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	limit := StateHotspotLimit
	if isAll(state) {
		limit = AllStatesHotspotLimit
	}
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}

	s.logger.Debug("Found %d hotspots for state: %s", len(ranking), state)
	return ranking
}

// HotspotsWithCoordinates enriches Hotspots with the coordinates of each district
func (s *HotspotService) HotspotsWithCoordinates(state, crimeType string) (locations models.HotspotLocations) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Error in hotspot coordinates for %s/%s: %v", state, crimeType, r)
			s.metrics.RecordFallback("hotspot_coordinates", "panic")
			locations = models.HotspotLocations{}
		}
	}()

	ranking := s.Hotspots(state, crimeType)
	locations = make(models.HotspotLocations, 0, len(ranking))
	for _, h := range ranking {
		st, district := models.SplitLocationKey(h.Key)
		c := s.coords.Lookup(st, district)
		locations = append(locations, models.HotspotLocation{
			Key:        h.Key,
			CrimeCount: h.Count,
			Latitude:   c.Latitude,
			Longitude:  c.Longitude,
			State:      st,
			District:   district,
		})
	}
	return locations
}

// Coordinates looks up a single district
func (s *HotspotService) Coordinates(state, district string) models.Coordinate {
	return s.coords.Lookup(state, district)
}
