package services

import (
	"io"

	"crime-analytics/models"
	"crime-analytics/storage"
	"crime-analytics/utils"
)

var testColumns = append([]string{models.DefaultCrimeType}, models.CrimeCategories...)

func testLogger() *utils.Logger {
	return utils.NewLoggerWithWriter(io.Discard)
}

func record(state, district string, year int, counts map[string]float64) *models.CrimeRecord {
	return &models.CrimeRecord{State: state, District: district, Year: year, Counts: counts}
}

// testRecords is a small two-year table across three states
func testRecords() []*models.CrimeRecord {
	return []*models.CrimeRecord{
		record("Delhi UT", "New Delhi", 2013, map[string]float64{"Total_Crimes": 400, "Murder": 60, "Theft": 200, "Rape": 20}),
		record("Delhi UT", "New Delhi", 2014, map[string]float64{"Total_Crimes": 500, "Murder": 90, "Theft": 250, "Rape": 30}),
		record("Delhi UT", "South Delhi", 2014, map[string]float64{"Total_Crimes": 300, "Murder": 60, "Theft": 100, "Rape": 10}),
		record("Goa", "North Goa", 2013, map[string]float64{"Total_Crimes": 80, "Murder": 2, "Theft": 40}),
		record("Goa", "North Goa", 2014, map[string]float64{"Total_Crimes": 90, "Murder": 3, "Theft": 45}),
		record("Goa", "South Goa", 2014, map[string]float64{"Total_Crimes": 70, "Murder": 1, "Theft": 30}),
		record("Maharashtra", "Pune", 2013, map[string]float64{"Total_Crimes": 900, "Murder": 40, "Theft": 600}),
		record("Maharashtra", "Pune", 2014, map[string]float64{"Total_Crimes": 1000, "Murder": 45, "Theft": 700}),
		record("Maharashtra", "Nagpur", 2014, map[string]float64{"Total_Crimes": 600, "Murder": 30, "Theft": 300}),
	}
}

func testDataset() *storage.Dataset {
	return storage.NewDataset(testRecords(), testColumns)
}
