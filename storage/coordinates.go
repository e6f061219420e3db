package storage

import (
	"strings"

	"crime-analytics/models"
)

type locationKey struct {
	state    string
	district string
}

// CoordinateTable maps (state, district) to a coordinate. Read-only after construction.
type CoordinateTable struct {
	entries map[locationKey]models.Coordinate
}

// NewCoordinateTable creates an empty table
func NewCoordinateTable() *CoordinateTable {
	return &CoordinateTable{entries: make(map[locationKey]models.Coordinate)}
}

// set is only used while loading
func (t *CoordinateTable) set(state, district string, c models.Coordinate) {
	t.entries[locationKey{strings.TrimSpace(state), strings.TrimSpace(district)}] = c
}

// Lookup returns the coordinate of a district, or DefaultCoordinate if unknown
func (t *CoordinateTable) Lookup(state, district string) models.Coordinate {
	if t == nil {
		return models.DefaultCoordinate
	}
	if c, ok := t.entries[locationKey{state, district}]; ok {
		return c
	}
	return models.DefaultCoordinate
}

// Len returns the number of known districts
func (t *CoordinateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
