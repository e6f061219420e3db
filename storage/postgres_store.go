package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"crime-analytics/models"
	"crime-analytics/utils"

	_ "github.com/lib/pq"
)

// PostgresStore keeps clean crime records in PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection pool and pings the DB
func NewPostgresStore(connStr string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresStore{db: db, logger: logger}, nil
}

// CreateTables creates the crime_records and crime_columns tables if they don't exist
func (s *PostgresStore) CreateTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS crime_records (
		id        SERIAL PRIMARY KEY,
		state     TEXT    NOT NULL,
		district  TEXT    NOT NULL,
		year      INTEGER NOT NULL,
		counts    JSONB   NOT NULL DEFAULT '{}',
		UNIQUE (state, district, year)
	);

	CREATE TABLE IF NOT EXISTS crime_columns (
		position INTEGER PRIMARY KEY,
		name     TEXT    NOT NULL UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_crime_records_state ON crime_records (state);
	CREATE INDEX IF NOT EXISTS idx_crime_records_year  ON crime_records (year);
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	s.logger.Info("Tables 'crime_records' and 'crime_columns' are ready")
	return nil
}

// SaveClean inserts records in a single transaction, skipping duplicates
func (s *PostgresStore) SaveClean(records []*models.CrimeRecord, columns []string) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM crime_columns`); err != nil {
		return fmt.Errorf("failed to reset columns: %w", err)
	}
	for i, name := range columns {
		if _, err = tx.Exec(`INSERT INTO crime_columns (position, name) VALUES ($1, $2)`, i, name); err != nil {
			return fmt.Errorf("failed to insert column %q: %w", name, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO crime_records (state, district, year, counts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (state, district, year) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		counts, mErr := json.Marshal(r.Counts)
		if mErr != nil {
			s.logger.Warn("Skipping insert for '%s/%s/%d': %v", r.State, r.District, r.Year, mErr)
			continue
		}
		res, execErr := stmt.Exec(r.State, r.District, r.Year, string(counts))
		if execErr != nil {
			s.logger.Warn("Skipping insert for '%s/%s/%d': %v", r.State, r.District, r.Year, execErr)
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Inserted %d/%d crime records into PostgreSQL", inserted, len(records))
	return nil
}

// LoadClean reads every record in insertion order along with the column list
func (s *PostgresStore) LoadClean() ([]*models.CrimeRecord, []string, error) {
	columns, err := s.loadColumns()
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`SELECT state, district, year, counts FROM crime_records ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: query crime_records: %v", models.ErrDataLoad, err)
	}
	defer rows.Close()

	var records []*models.CrimeRecord
	for rows.Next() {
		r := &models.CrimeRecord{}
		var counts []byte
		if err := rows.Scan(&r.State, &r.District, &r.Year, &counts); err != nil {
			return nil, nil, fmt.Errorf("%w: scan crime_records: %v", models.ErrDataLoad, err)
		}
		if err := json.Unmarshal(counts, &r.Counts); err != nil {
			return nil, nil, fmt.Errorf("%w: decode counts for %s/%s/%d: %v", models.ErrDataLoad, r.State, r.District, r.Year, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: read crime_records: %v", models.ErrDataLoad, err)
	}

	s.logger.Info("Loaded %d crime records from PostgreSQL", len(records))
	return records, columns, nil
}

func (s *PostgresStore) loadColumns() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM crime_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query crime_columns: %v", models.ErrDataLoad, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan crime_columns: %v", models.ErrDataLoad, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read crime_columns: %v", models.ErrDataLoad, err)
	}
	return columns, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
