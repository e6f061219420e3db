package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"crime-analytics/models"
	"crime-analytics/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultPolicyYear = "2014"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var fileSafe = strings.NewReplacer(" ", "_", "/", "_", `"`, "", `\`, "_")

// cached serves a cached body for key, computing it on a miss
func (s *Server) cached(c *gin.Context, key string, compute func() interface{}) {
	v, hit := s.cache.Get(key, compute)
	if hit {
		s.metrics.RecordCacheHit(c.FullPath())
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": s.svc.Dataset.Len(),
	})
}

func (s *Server) handleAnalysis(c *gin.Context) {
	state := c.Query("state")
	crimeType := c.Query("crime_type")
	year := c.Query("year")

	s.cached(c, CacheKey("analysis", state, crimeType, year), func() interface{} {
		return s.svc.Analysis.Analyze(state, crimeType, year)
	})
}

func (s *Server) handleHotspots(c *gin.Context) {
	state := c.DefaultQuery("state", models.AllFilter)
	crimeType := c.DefaultQuery("crime_type", models.DefaultCrimeType)

	s.cached(c, CacheKey("hotspots", state, crimeType), func() interface{} {
		return s.svc.Hotspots.Hotspots(state, crimeType)
	})
}

func (s *Server) handleHotspotCoordinates(c *gin.Context) {
	state := c.DefaultQuery("state", models.AllFilter)
	crimeType := c.DefaultQuery("crime_type", models.DefaultCrimeType)

	s.cached(c, CacheKey("hotspot_coordinates", state, crimeType), func() interface{} {
		return s.svc.Hotspots.HotspotsWithCoordinates(state, crimeType)
	})
}

func (s *Server) handleHotspotGeoJSON(c *gin.Context) {
	state := c.DefaultQuery("state", models.AllFilter)
	crimeType := c.DefaultQuery("crime_type", models.DefaultCrimeType)

	v, hit := s.cache.Get(CacheKey("hotspot_geojson", state, crimeType), func() interface{} {
		body, err := json.Marshal(services.HotspotsGeoJSON(s.svc.Hotspots.HotspotsWithCoordinates(state, crimeType)))
		if err != nil {
			s.logger.Error("Encode GeoJSON for %s/%s: %v", state, crimeType, err)
			return []byte(`{"type":"FeatureCollection","features":[]}`)
		}
		return body
	})
	if hit {
		s.metrics.RecordCacheHit(c.FullPath())
	}
	c.Data(http.StatusOK, "application/geo+json", v.([]byte))
}

// policyFilter reads the insight filter; an unparseable year means all years
func (s *Server) policyFilter(c *gin.Context) models.FilterSpec {
	rawYear := c.DefaultQuery("year", defaultPolicyYear)
	year, err := models.ParseYearFilter(rawYear)
	if err != nil {
		s.logger.Debug("Insights: invalid year %q, using %s", rawYear, models.AllFilter)
		year = models.AnyYear
	}
	return models.NewFilterSpec(
		c.DefaultQuery("state", models.AllFilter),
		c.DefaultQuery("district", models.AllFilter),
		c.DefaultQuery("crime_type", models.DefaultCrimeType),
		year,
	)
}

func (s *Server) handlePolicies(c *gin.Context) {
	filter := s.policyFilter(c)

	s.cached(c, CacheKey("policies", filter.State, filter.District, filter.CrimeType, filter.Year), func() interface{} {
		return s.svc.Insights.Generate(filter)
	})
}

// predictRequest accepts year as a number or a string
type predictRequest struct {
	State     string          `json:"state"`
	District  string          `json:"district"`
	CrimeType string          `json:"crime_type"`
	Year      json.RawMessage `json:"year"`
}

// predictionYear decodes the requested year, defaulting when absent or invalid
func predictionYear(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return services.DefaultPredictionYear
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && !math.IsNaN(n) && n == math.Trunc(n) {
		return int(n)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if year, err := models.ParseYear(str); err == nil {
			return year
		}
	}
	return services.DefaultPredictionYear
}

func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	var missing []string
	if strings.TrimSpace(req.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(req.District) == "" {
		missing = append(missing, "district")
	}
	if strings.TrimSpace(req.CrimeType) == "" {
		missing = append(missing, "crime_type")
	}
	if len(missing) > 0 {
		c.JSON(http.StatusOK, gin.H{"error": "missing " + strings.Join(missing, ", ")})
		return
	}

	c.JSON(http.StatusOK, s.svc.Predictor.Predict(req.State, req.District, req.CrimeType, predictionYear(req.Year)))
}

func (s *Server) handleDistricts(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		c.JSON(http.StatusOK, []string{})
		return
	}
	c.JSON(http.StatusOK, s.svc.Dataset.DistrictsOf(state))
}

func (s *Server) handleCoordinates(c *gin.Context) {
	state := c.Query("state")
	district := c.Query("district")
	if state == "" || district == "" {
		c.JSON(http.StatusOK, gin.H{"error": "State and district required"})
		return
	}

	coord := s.svc.Hotspots.Coordinates(state, district)
	c.JSON(http.StatusOK, gin.H{
		"state":     state,
		"district":  district,
		"latitude":  coord.Latitude,
		"longitude": coord.Longitude,
	})
}

func (s *Server) handleStates(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Dataset.States())
}

func (s *Server) handleCrimeTypes(c *gin.Context) {
	c.JSON(http.StatusOK, models.CrimeTypes)
}

func (s *Server) handleTrendChart(c *gin.Context) {
	state := c.DefaultQuery("state", models.AllFilter)
	crimeType := s.svc.Dataset.ResolveCrimeType(c.DefaultQuery("crime_type", models.DefaultCrimeType))

	var buf bytes.Buffer
	title := fmt.Sprintf("%s - %s", crimeType, state)
	if err := services.RenderTrendChart(&buf, title, s.svc.Analysis.YearlyTrend(state, crimeType)); err != nil {
		s.logger.Error("Render trend chart for %s/%s: %v", state, crimeType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chart rendering failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleExport(c *gin.Context) {
	state := c.DefaultQuery("state", models.AllFilter)
	crimeType := c.DefaultQuery("crime_type", models.DefaultCrimeType)
	rawYear := c.DefaultQuery("year", defaultPolicyYear)

	analysis := s.svc.Analysis.Analyze(state, crimeType, rawYear)
	year, err := models.ParseYearFilter(rawYear)
	if err != nil {
		year = models.AnyYear
	}
	filter := models.NewFilterSpec(state, models.AllFilter, s.svc.Dataset.ResolveCrimeType(crimeType), year)
	insights := s.svc.Insights.Generate(filter)

	f, err := services.ExportAnalysisWorkbook(filter, analysis, insights)
	if err != nil {
		s.logger.Error("Export workbook for %s/%s/%s: %v", state, crimeType, rawYear, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		s.logger.Error("Write workbook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	name := fmt.Sprintf("crime_analysis_%s_%s.xlsx", fileSafe.Replace(state), fileSafe.Replace(rawYear))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
