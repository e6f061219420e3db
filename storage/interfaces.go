package storage

import "crime-analytics/models"

// RawSource yields crime rows exactly as read, before cleaning
type RawSource interface {
	ReadRaw() (*models.RawCrimeTable, error)
}

// CleanStorage stores and reloads clean, normalized crime records
type CleanStorage interface {
	SaveClean(records []*models.CrimeRecord, columns []string) error
	LoadClean() ([]*models.CrimeRecord, []string, error)
	Close() error
}

// ArtifactStore persists the trained prediction model
type ArtifactStore interface {
	Save(artifact *models.ModelArtifact) error
	Load() (*models.ModelArtifact, error)
	Exists() bool
}
