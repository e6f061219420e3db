package models

import (
	"bytes"
	"encoding/json"
)

// writeOrderedObject encodes keys and values as a JSON object, keeping key order.
// encoding/json sorts map keys, which would lose ranking order.
func writeOrderedObject(n int, key func(i int) string, value func(i int) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key(i))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(value(i))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RankedCount is one entry of a ranking
type RankedCount struct {
	Key   string
	Value float64
}

// RankedCounts serializes as a JSON object in rank order
type RankedCounts []RankedCount

func (r RankedCounts) MarshalJSON() ([]byte, error) {
	return writeOrderedObject(len(r),
		func(i int) string { return r[i].Key },
		func(i int) any { return r[i].Value })
}

// Hotspot is a location ranked by summed crime count
type Hotspot struct {
	Key   string // "state,district"
	Count int64
}

// HotspotRanking serializes as {"state,district": count, ...} in rank order
type HotspotRanking []Hotspot

func (h HotspotRanking) MarshalJSON() ([]byte, error) {
	return writeOrderedObject(len(h),
		func(i int) string { return h[i].Key },
		func(i int) any { return h[i].Count })
}

// HotspotLocation is a hotspot enriched with coordinates
type HotspotLocation struct {
	Key        string  `json:"-"`
	CrimeCount int64   `json:"crime_count"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	State      string  `json:"state"`
	District   string  `json:"district"`
}

// HotspotLocations serializes as {"state,district": {...}, ...} in rank order
type HotspotLocations []HotspotLocation

func (h HotspotLocations) MarshalJSON() ([]byte, error) {
	return writeOrderedObject(len(h),
		func(i int) string { return h[i].Key },
		func(i int) any { return h[i] })
}
