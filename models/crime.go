package models

import (
	"errors"
	"strings"
)

const (
	// AllFilter is the sentinel meaning "no restriction" on a filter axis
	AllFilter = "All"

	// DefaultCrimeType is used whenever a requested crime column is unknown
	DefaultCrimeType = "Total_Crimes"

	// Column names of the crime dataset
	ColumnState    = "States/UTs"
	ColumnDistrict = "District"
	ColumnYear     = "Year"
)

// Column names of the coordinate table
const (
	CoordColumnState     = "State"
	CoordColumnDistrict  = "District"
	CoordColumnLatitude  = "Latitude"
	CoordColumnLongitude = "Longitude"
)

var (
	// ErrDataLoad is fatal at startup: a data file is missing or malformed
	ErrDataLoad = errors.New("data load failed")

	// ErrUnknownColumn is recovered by substituting DefaultCrimeType
	ErrUnknownColumn = errors.New("unknown crime column")

	// ErrUnknownCategory is returned when a label was never seen at training time
	ErrUnknownCategory = errors.New("unknown category")

	// ErrModelNotFound means no model artifact has been persisted yet
	ErrModelNotFound = errors.New("model artifact not found")
)

// CrimeTypes is the order crime types are offered to dashboard filters
var CrimeTypes = []string{
	"Murder", "Rape", "Kidnapping", "Dacoity", "Burglary", "Theft",
	"Riots", "Forgery", "Counterfeiting", "Arson", "Acid attack",
	"Dowry Deaths", "Stalking",
}

// CrimeCategories is the order categories are ranked in for top-crime summaries.
// Ties in the ranking keep this order.
var CrimeCategories = []string{
	"Murder", "Rape", "Kidnapping", "Theft", "Burglary", "Dacoity", "Riots",
	"Forgery", "Counterfeiting", "Arson", "Acid attack", "Dowry Deaths", "Stalking",
}

// RequiredCrimeColumns must be present in the crime dataset header
var RequiredCrimeColumns = []string{ColumnState, ColumnDistrict, ColumnYear, DefaultCrimeType}

// RequiredCoordinateColumns must be present in the coordinate table header
var RequiredCoordinateColumns = []string{
	CoordColumnState, CoordColumnDistrict, CoordColumnLatitude, CoordColumnLongitude,
}

// RawCrimeRecord is one row exactly as read from the source file
type RawCrimeRecord struct {
	Line     int
	State    string
	District string
	Year     string
	Cells    map[string]string // crime column -> raw cell text
}

// RawCrimeTable is a parsed but uncleaned crime file
type RawCrimeTable struct {
	Columns []string // numeric crime columns, in header order
	Rows    []*RawCrimeRecord
}

// CrimeRecord is a cleaned dataset row. A column absent from Counts is missing.
type CrimeRecord struct {
	State    string
	District string
	Year     int
	Counts   map[string]float64
}

// Value returns the count for column and whether it was present
func (r *CrimeRecord) Value(column string) (float64, bool) {
	v, ok := r.Counts[column]
	return v, ok
}

// ValueOrZero treats a missing cell as zero
func (r *CrimeRecord) ValueOrZero(column string) float64 {
	return r.Counts[column]
}

// Coordinate is a WGS84 latitude/longitude pair
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultCoordinate is the geographic center of India, used for unknown districts
var DefaultCoordinate = Coordinate{Latitude: 20.5937, Longitude: 78.9629}

// LocationKey builds the composite "state,district" key used by hotspot rankings
func LocationKey(state, district string) string {
	return state + "," + district
}

// SplitLocationKey splits on the first comma only; district names may contain commas
func SplitLocationKey(key string) (state, district string) {
	state, district, _ = strings.Cut(key, ",")
	return strings.TrimSpace(state), strings.TrimSpace(district)
}
