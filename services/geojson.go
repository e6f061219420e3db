package services

import (
	"crime-analytics/models"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// HotspotsGeoJSON renders enriched hotspots as a FeatureCollection of points,
// in ranking order, for map layers that consume GeoJSON directly.
func HotspotsGeoJSON(locations models.HotspotLocations) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(locations))}
	for i, loc := range locations {
		// GeoJSON orders coordinates longitude first
		point := geom.NewPointFlat(geom.XY, []float64{loc.Longitude, loc.Latitude})
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       loc.Key,
			Geometry: point,
			Properties: map[string]interface{}{
				"rank":        i + 1,
				"state":       loc.State,
				"district":    loc.District,
				"crime_count": loc.CrimeCount,
			},
		})
	}
	return fc
}
