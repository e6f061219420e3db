package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"crime-analytics/models"
	"crime-analytics/utils"
)

// CSVStore reads and writes the delimited-text crime and coordinate tables
type CSVStore struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVStore creates a new CSVStore
func NewCSVStore(filePath string, logger *utils.Logger) *CSVStore {
	return &CSVStore{filePath: filePath, logger: logger}
}

// Path returns the file this store reads and writes
func (s *CSVStore) Path() string {
	return s.filePath
}

// ReadRaw parses the crime table without cleaning any values
func (s *CSVStore) ReadRaw() (*models.RawCrimeTable, error) {
	header, rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	index, err := headerIndex(header, models.RequiredCrimeColumns)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrDataLoad, s.filePath, err)
	}

	table := &models.RawCrimeTable{}
	for _, name := range header {
		switch name {
		case models.ColumnState, models.ColumnDistrict, models.ColumnYear:
			continue
		}
		table.Columns = append(table.Columns, name)
	}

	for i, row := range rows {
		raw := &models.RawCrimeRecord{
			Line:     i + 2,
			State:    cell(row, index[models.ColumnState]),
			District: cell(row, index[models.ColumnDistrict]),
			Year:     cell(row, index[models.ColumnYear]),
			Cells:    make(map[string]string, len(table.Columns)),
		}
		for col, name := range header {
			switch name {
			case models.ColumnState, models.ColumnDistrict, models.ColumnYear:
				continue
			}
			raw.Cells[name] = cell(row, col)
		}
		table.Rows = append(table.Rows, raw)
	}

	s.logger.Info("Read %d crime rows with %d crime columns from %s", len(table.Rows), len(table.Columns), s.filePath)
	return table, nil
}

// ReadCoordinates loads the district coordinate table
func (s *CSVStore) ReadCoordinates() (*CoordinateTable, error) {
	header, rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	index, err := headerIndex(header, models.RequiredCoordinateColumns)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrDataLoad, s.filePath, err)
	}

	table := NewCoordinateTable()
	for i, row := range rows {
		lat, latErr := strconv.ParseFloat(cell(row, index[models.CoordColumnLatitude]), 64)
		lon, lonErr := strconv.ParseFloat(cell(row, index[models.CoordColumnLongitude]), 64)
		if latErr != nil || lonErr != nil {
			s.logger.Warn("Skipping coordinate row %d: invalid latitude/longitude", i+2)
			continue
		}
		table.set(cell(row, index[models.CoordColumnState]), cell(row, index[models.CoordColumnDistrict]),
			models.Coordinate{Latitude: lat, Longitude: lon})
	}

	s.logger.Info("Loaded %d district coordinates from %s", table.Len(), s.filePath)
	return table, nil
}

// WriteCrimeRecords writes clean records back out in the crime table layout
func (s *CSVStore) WriteCrimeRecords(records []*models.CrimeRecord, columns []string) error {
	// Ensure output directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := append([]string{models.ColumnState, models.ColumnDistrict, models.ColumnYear}, columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{r.State, r.District, strconv.Itoa(r.Year)}
		for _, c := range columns {
			if v, ok := r.Value(c); ok {
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := writer.Write(row); err != nil {
			s.logger.Error("Failed to write CSV row for '%s/%s/%d': %v", r.State, r.District, r.Year, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}

	s.logger.Info("Crime records written to: %s (%d rows)", s.filePath, len(records))
	return nil
}

func (s *CSVStore) readAll() ([]string, [][]string, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrDataLoad, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s: empty file", models.ErrDataLoad, s.filePath)
		}
		return nil, nil, fmt.Errorf("%w: %s: %v", models.ErrDataLoad, s.filePath, err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", models.ErrDataLoad, s.filePath, err)
	}
	return header, rows, nil
}

func headerIndex(header, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
