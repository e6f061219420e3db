package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// YearFilter is either a concrete year or "All"
type YearFilter struct {
	Year int
	All  bool
}

// AnyYear matches every year
var AnyYear = YearFilter{All: true}

// ExactYear matches a single year
func ExactYear(year int) YearFilter {
	return YearFilter{Year: year}
}

// ParseYearFilter accepts "All" or an integer, optionally written as "2014.0"
func ParseYearFilter(raw string) (YearFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == AllFilter {
		return AnyYear, nil
	}
	year, err := ParseYear(raw)
	if err != nil {
		return YearFilter{}, err
	}
	return ExactYear(year), nil
}

// ParseYear parses a year cell or query value. A float is accepted only when
// it is whole, as in "2014.0".
func ParseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("year %q is not a whole number", raw)
	}
	return int(f), nil
}

// Matches reports whether year passes the filter
func (y YearFilter) Matches(year int) bool {
	return y.All || y.Year == year
}

func (y YearFilter) String() string {
	if y.All {
		return AllFilter
	}
	return strconv.Itoa(y.Year)
}

// MarshalJSON writes "All" or the year as a number
func (y YearFilter) MarshalJSON() ([]byte, error) {
	if y.All {
		return json.Marshal(AllFilter)
	}
	return json.Marshal(y.Year)
}

// FilterSpec scopes a query. "All" on State or District means no restriction.
type FilterSpec struct {
	State     string     `json:"state"`
	District  string     `json:"district"`
	CrimeType string     `json:"crime_type"`
	Year      YearFilter `json:"year"`
}

// NewFilterSpec fills empty fields with their sentinels
func NewFilterSpec(state, district, crimeType string, year YearFilter) FilterSpec {
	if strings.TrimSpace(state) == "" {
		state = AllFilter
	}
	if strings.TrimSpace(district) == "" {
		district = AllFilter
	}
	if strings.TrimSpace(crimeType) == "" {
		crimeType = DefaultCrimeType
	}
	return FilterSpec{State: state, District: district, CrimeType: crimeType, Year: year}
}

// Matches applies the state, district and year filters to a record
func (f FilterSpec) Matches(r *CrimeRecord) bool {
	if f.State != AllFilter && r.State != f.State {
		return false
	}
	if f.District != AllFilter && r.District != f.District {
		return false
	}
	return f.Year.Matches(r.Year)
}
