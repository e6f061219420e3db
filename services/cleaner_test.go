package services

import (
	"errors"
	"testing"

	"crime-analytics/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRawSource struct {
	table *models.RawCrimeTable
	err   error
}

func (f fakeRawSource) ReadRaw() (*models.RawCrimeTable, error) {
	return f.table, f.err
}

type fakeCleanStorage struct {
	records []*models.CrimeRecord
	columns []string
}

func (f fakeCleanStorage) SaveClean([]*models.CrimeRecord, []string) error { return nil }
func (f fakeCleanStorage) LoadClean() ([]*models.CrimeRecord, []string, error) {
	return f.records, f.columns, nil
}
func (f fakeCleanStorage) Close() error { return nil }

func rawRow(line int, state, district, year string, cells map[string]string) *models.RawCrimeRecord {
	return &models.RawCrimeRecord{Line: line, State: state, District: district, Year: year, Cells: cells}
}

func TestDataCleanerClean(t *testing.T) {
	table := &models.RawCrimeTable{
		Columns: []string{"Murder", "Total_Crimes"},
		Rows: []*models.RawCrimeRecord{
			rawRow(2, " Goa ", "North Goa", "2014", map[string]string{"Murder": "3", "Total_Crimes": "1,204"}),
			rawRow(3, "Goa", "North Goa", "2014.0", map[string]string{"Murder": "9", "Total_Crimes": "9"}),
			rawRow(4, "", "South Goa", "2014", map[string]string{"Total_Crimes": "5"}),
			rawRow(5, "Goa", "South Goa", "unknown", map[string]string{"Total_Crimes": "5"}),
			rawRow(6, "Goa", "South Goa", "2013", map[string]string{"Murder": "NA", "Total_Crimes": "7.0"}),
		},
	}

	records := NewDataCleaner(testLogger()).Clean(table)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Goa", first.State)
	assert.Equal(t, 2014, first.Year)
	assert.Equal(t, 1204.0, first.Counts["Total_Crimes"])
	assert.Equal(t, 3.0, first.Counts["Murder"])

	second := records[1]
	assert.Equal(t, "South Goa", second.District)
	_, ok := second.Value("Murder")
	assert.False(t, ok)
	assert.Equal(t, 0.0, second.ValueOrZero("Murder"))
	assert.Equal(t, 7.0, second.Counts["Total_Crimes"])
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 1,204 ", 1204, true},
		{"3.5", 3.5, true},
		{"", 0, false},
		{"NA", 0, false},
		{"nan", 0, false},
		{"-", 0, false},
		{"many", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCount(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestLoadDataset(t *testing.T) {
	table := &models.RawCrimeTable{
		Columns: []string{"Total_Crimes"},
		Rows: []*models.RawCrimeRecord{
			rawRow(2, "Goa", "North Goa", "2014", map[string]string{"Total_Crimes": "10"}),
		},
	}
	ds, err := LoadDataset(fakeRawSource{table: table}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = LoadDataset(fakeRawSource{table: &models.RawCrimeTable{Columns: []string{"Total_Crimes"}}}, testLogger())
	assert.ErrorIs(t, err, models.ErrDataLoad)

	readErr := errors.New("disk on fire")
	_, err = LoadDataset(fakeRawSource{err: readErr}, testLogger())
	assert.ErrorIs(t, err, readErr)
}

func TestLoadDatasetFromStorage(t *testing.T) {
	records := []*models.CrimeRecord{
		record("Goa", "North Goa", 2014, map[string]float64{"Total_Crimes": 10}),
	}

	ds, err := LoadDatasetFromStorage(fakeCleanStorage{records: records, columns: []string{"Total_Crimes"}}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"Goa"}, ds.States())

	_, err = LoadDatasetFromStorage(fakeCleanStorage{records: records, columns: []string{"Murder"}}, testLogger())
	assert.ErrorIs(t, err, models.ErrDataLoad)

	_, err = LoadDatasetFromStorage(fakeCleanStorage{columns: []string{"Total_Crimes"}}, testLogger())
	assert.ErrorIs(t, err, models.ErrDataLoad)
}
