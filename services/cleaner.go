package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"crime-analytics/models"
	"crime-analytics/storage"
	"crime-analytics/utils"
)

// DataCleaner normalizes raw crime rows into clean CrimeRecords
type DataCleaner struct {
	logger *utils.Logger
}

// NewDataCleaner creates a new DataCleaner
func NewDataCleaner(logger *utils.Logger) *DataCleaner {
	return &DataCleaner{logger: logger}
}

// Clean converts raw rows to clean records. Rows without a state, district or
// parseable year are dropped, and only the first row of each
// (state, district, year) is kept.
func (c *DataCleaner) Clean(table *models.RawCrimeTable) []*models.CrimeRecord {
	seen := make(map[string]bool)
	cleaned := make([]*models.CrimeRecord, 0, len(table.Rows))

	for _, r := range table.Rows {
		state := strings.TrimSpace(r.State)
		district := strings.TrimSpace(r.District)
		if state == "" || district == "" {
			c.logger.Debug("Skipping line %d: empty state or district", r.Line)
			continue
		}

		year, err := models.ParseYear(r.Year)
		if err != nil {
			c.logger.Debug("Skipping line %d: invalid year %q", r.Line, r.Year)
			continue
		}

		key := fmt.Sprintf("%s|%s|%d", state, district, year)
		if seen[key] {
			c.logger.Debug("Skipping duplicate: %s/%s/%d (line %d)", state, district, year, r.Line)
			continue
		}
		seen[key] = true

		record := &models.CrimeRecord{
			State:    state,
			District: district,
			Year:     year,
			Counts:   make(map[string]float64, len(table.Columns)),
		}
		for _, col := range table.Columns {
			if v, ok := parseCount(r.Cells[col]); ok {
				record.Counts[col] = v
			}
		}

		cleaned = append(cleaned, record)
	}

	c.logger.Info("Cleaned %d crime records from %d raw rows", len(cleaned), len(table.Rows))
	return cleaned
}

// parseCount reads a numeric cell like "1,204" or "37.0". Blank and NA-like cells are missing.
func parseCount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "na", "n/a", "nan", "null", "-":
		return 0, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LoadDataset reads, cleans and indexes the crime table from a raw source
func LoadDataset(src storage.RawSource, logger *utils.Logger) (*storage.Dataset, error) {
	table, err := src.ReadRaw()
	if err != nil {
		return nil, err
	}
	records := NewDataCleaner(logger).Clean(table)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable crime rows", models.ErrDataLoad)
	}
	return storage.NewDataset(records, table.Columns), nil
}

// LoadDatasetFromStorage builds the dataset from already-clean stored records
func LoadDatasetFromStorage(src storage.CleanStorage, logger *utils.Logger) (*storage.Dataset, error) {
	records, columns, err := src.LoadClean()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no crime records in storage", models.ErrDataLoad)
	}
	if !slices.Contains(columns, models.DefaultCrimeType) {
		return nil, fmt.Errorf("%w: stored columns lack %s", models.ErrDataLoad, models.DefaultCrimeType)
	}
	logger.Info("Dataset ready: %d records, %d crime columns", len(records), len(columns))
	return storage.NewDataset(records, columns), nil
}
