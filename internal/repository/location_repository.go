package repository

import (
	"gorm.io/gorm"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/searchtext"
)

// GormLocationRepository is a GORM implementation of LocationRepository.
type GormLocationRepository struct {
	db      *gorm.DB
	builder *searchtext.Builder
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *gorm.DB, builder *searchtext.Builder) LocationRepository {
	return &GormLocationRepository{db: db, builder: builder}
}

// Create persists a location with its derived search text.
func (r *GormLocationRepository) Create(location *models.Location) error {
	location.SearchText = r.builder.LocationText(location)
	return r.db.Create(location).Error
}

// FindByID finds a location by id.
func (r *GormLocationRepository) FindByID(id uint64) (*models.Location, error) {
	var location models.Location
	if err := r.db.First(&location, id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// Update persists a location and recomputes its search text.
func (r *GormLocationRepository) Update(location *models.Location) error {
	location.SearchText = r.builder.LocationText(location)
	return r.db.Save(location).Error
}
