package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLocationKey(t *testing.T) {
	tests := []struct {
		key, state, district string
	}{
		{"Uttar Pradesh,Bareilly,Rural", "Uttar Pradesh", "Bareilly,Rural"},
		{"Delhi UT,New Delhi", "Delhi UT", "New Delhi"},
		{" Goa , North Goa ", "Goa", "North Goa"},
		{"NoComma", "NoComma", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			state, district := SplitLocationKey(tt.key)
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.district, district)
		})
	}

	s, d := SplitLocationKey(LocationKey("Kerala", "Kochi"))
	assert.Equal(t, "Kerala", s)
	assert.Equal(t, "Kochi", d)
}

func TestParseYearFilter(t *testing.T) {
	y, err := ParseYearFilter("All")
	require.NoError(t, err)
	assert.True(t, y.All)
	assert.True(t, y.Matches(1999))

	y, err = ParseYearFilter("2014")
	require.NoError(t, err)
	assert.Equal(t, ExactYear(2014), y)
	assert.True(t, y.Matches(2014))
	assert.False(t, y.Matches(2013))

	y, err = ParseYearFilter(" 2012.0 ")
	require.NoError(t, err)
	assert.Equal(t, 2012, y.Year)

	_, err = ParseYearFilter("last year")
	assert.Error(t, err)
	_, err = ParseYearFilter("2014.7")
	assert.Error(t, err)
	_, err = ParseYear("NaN")
	assert.Error(t, err)
	_, err = ParseYearFilter("")
	assert.Error(t, err)
}

func TestYearFilterJSON(t *testing.T) {
	b, err := json.Marshal(AnyYear)
	require.NoError(t, err)
	assert.JSONEq(t, `"All"`, string(b))

	b, err = json.Marshal(ExactYear(2014))
	require.NoError(t, err)
	assert.JSONEq(t, `2014`, string(b))

	assert.Equal(t, "All", AnyYear.String())
	assert.Equal(t, "2014", ExactYear(2014).String())
}

func TestNewFilterSpecDefaults(t *testing.T) {
	f := NewFilterSpec("", " ", "", AnyYear)
	assert.Equal(t, AllFilter, f.State)
	assert.Equal(t, AllFilter, f.District)
	assert.Equal(t, DefaultCrimeType, f.CrimeType)

	r := &CrimeRecord{State: "Goa", District: "North Goa", Year: 2014}
	assert.True(t, f.Matches(r))
	assert.True(t, NewFilterSpec("Goa", "All", "Murder", ExactYear(2014)).Matches(r))
	assert.False(t, NewFilterSpec("Goa", "South Goa", "Murder", AnyYear).Matches(r))
	assert.False(t, NewFilterSpec("Kerala", "All", "Murder", AnyYear).Matches(r))
	assert.False(t, NewFilterSpec("Goa", "All", "Murder", ExactYear(2013)).Matches(r))
}

func TestRankedCountsKeepOrder(t *testing.T) {
	ranked := RankedCounts{{Key: "Theft", Value: 30}, {Key: "Arson", Value: 20}, {Key: "Murder", Value: 10}}
	b, err := json.Marshal(ranked)
	require.NoError(t, err)
	assert.Equal(t, `{"Theft":30,"Arson":20,"Murder":10}`, string(b))

	b, err = json.Marshal(RankedCounts{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestHotspotJSON(t *testing.T) {
	ranking := HotspotRanking{{Key: "Maharashtra,Pune", Count: 90}, {Key: "Bihar,Patna", Count: 80}}
	b, err := json.Marshal(ranking)
	require.NoError(t, err)
	assert.Equal(t, `{"Maharashtra,Pune":90,"Bihar,Patna":80}`, string(b))

	locations := HotspotLocations{{
		Key: "Bihar,Patna", CrimeCount: 80, Latitude: 25.6, Longitude: 85.1,
		State: "Bihar", District: "Patna",
	}}
	b, err = json.Marshal(locations)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Bihar,Patna":{"crime_count":80,"latitude":25.6,"longitude":85.1,"state":"Bihar","district":"Patna"}}`, string(b))
}

func TestTopEntryJSON(t *testing.T) {
	b, err := json.Marshal(TopEntry{Label: "Pune", Column: "Murder", Value: 12})
	require.NoError(t, err)
	assert.Equal(t, `{"District":"Pune","Murder":12}`, string(b))
}

func TestDefaultAnalysisJSON(t *testing.T) {
	b, err := json.Marshal(DefaultAnalysis())
	require.NoError(t, err)
	assert.JSONEq(t, `{"top_districts":[],"yearly_trend":{},"total_crimes":0,"avg_crimes":0}`, string(b))
}

func TestInsightResultJSON(t *testing.T) {
	empty := InsightResult{TopCrimes: RankedCounts{}, Recommendations: []string{"a"}}
	b, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"crime_analysis":{},"top_crimes":{},"trends":{},"recommendations":["a"],"area_info":{}}`, string(b))

	filter := NewFilterSpec("Goa", "All", "Murder", ExactYear(2014))
	full := &InsightResult{
		CrimeAnalysis:   &CrimeAnalysis{Total: 10, Average: 5, Maximum: 7, Trend: TrendIncreasing},
		TopCrimes:       RankedCounts{{Key: "Murder", Value: 10}},
		Recommendations: []string{},
		AreaInfo:        AreaInfo{Filter: &filter},
	}
	b, err = json.Marshal(full)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"crime_analysis":{"total":10,"average":5,"maximum":7,"trend":"increasing"},
		"top_crimes":{"Murder":10},
		"trends":{},
		"recommendations":[],
		"area_info":{"state":"Goa","district":"All","crime_type":"Murder","year":2014}
	}`, string(b))
}
