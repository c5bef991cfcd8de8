package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"gorm.io/gorm"
)

// DriftRepository defines the interface for the counter correction log
type DriftRepository interface {
	RecordDrift(ctx context.Context, drift *models.CounterDrift) error
	GetDriftsByPath(ctx context.Context, path string) ([]models.CounterDrift, error)
	GetRecentDrifts(ctx context.Context, limit int) ([]models.CounterDrift, error)
}

// PostgresDriftRepository implements DriftRepository for PostgreSQL
type PostgresDriftRepository struct {
	db *gorm.DB
}

// NewPostgresDriftRepository creates a new PostgresDriftRepository
func NewPostgresDriftRepository(db *gorm.DB) *PostgresDriftRepository {
	return &PostgresDriftRepository{db: db}
}

// RecordDrift creates a new drift record in PostgreSQL
func (r *PostgresDriftRepository) RecordDrift(ctx context.Context, drift *models.CounterDrift) error {
	return r.db.WithContext(ctx).Create(drift).Error
}

// GetDriftsByPath retrieves the corrections applied to one document, newest first
func (r *PostgresDriftRepository) GetDriftsByPath(ctx context.Context, path string) ([]models.CounterDrift, error) {
	var drifts []models.CounterDrift
	if err := r.db.WithContext(ctx).Where("path = ?", path).Order("created_at desc, id desc").Find(&drifts).Error; err != nil {
		return nil, err
	}
	return drifts, nil
}

// GetRecentDrifts retrieves the latest corrections across all documents
func (r *PostgresDriftRepository) GetRecentDrifts(ctx context.Context, limit int) ([]models.CounterDrift, error) {
	var drifts []models.CounterDrift
	if err := r.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&drifts).Error; err != nil {
		return nil, err
	}
	return drifts, nil
}
