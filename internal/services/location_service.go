package services

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/repository"
)

var ErrLocationAddressRequired = errors.New("location address is required")

// LocationService handles location business logic, mirroring the cascading
// search-text refresh done for customers.
type LocationService struct {
	locationRepo repository.LocationRepository
	taskRepo     repository.TaskRepository
	cfg          SearchConfig
	log          *zap.Logger
}

// NewLocationService creates a new LocationService.
func NewLocationService(
	locationRepo repository.LocationRepository,
	taskRepo repository.TaskRepository,
	cfg SearchConfig,
	log *zap.Logger,
) *LocationService {
	return &LocationService{
		locationRepo: locationRepo,
		taskRepo:     taskRepo,
		cfg:          cfg,
		log:          log,
	}
}

// CreateLocationInput represents input for creating a location.
type CreateLocationInput struct {
	Name    string
	Address string
	Lat     *float64
	Lng     *float64
}

// CreateLocation creates a location. Admin only.
func (s *LocationService) CreateLocation(p Principal, input CreateLocationInput) (*models.Location, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, ErrLocationAddressRequired
	}

	location := &models.Location{
		Name:    input.Name,
		Address: input.Address,
		Lat:     input.Lat,
		Lng:     input.Lng,
	}
	if err := s.locationRepo.Create(location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}

// GetLocation returns a location by id.
func (s *LocationService) GetLocation(id uint64) (*models.Location, error) {
	location, err := s.locationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return location, nil
}

// UpdateLocationInput represents input for updating a location. Nil fields
// are left unchanged.
type UpdateLocationInput struct {
	Name    *string
	Address *string
	Lat     *float64
	Lng     *float64
}

// UpdateLocation updates a location and refreshes the search text of every
// task referencing it. Admin only.
func (s *LocationService) UpdateLocation(p Principal, id uint64, input UpdateLocationInput) (*models.Location, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	location, err := s.GetLocation(id)
	if err != nil {
		return nil, err
	}

	if input.Address != nil {
		if strings.TrimSpace(*input.Address) == "" {
			return nil, ErrLocationAddressRequired
		}
		location.Address = *input.Address
	}
	if input.Name != nil {
		location.Name = *input.Name
	}
	if input.Lat != nil {
		location.Lat = input.Lat
	}
	if input.Lng != nil {
		location.Lng = input.Lng
	}

	if err := s.locationRepo.Update(location); err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	s.refreshReferencingTasks(id)

	return location, nil
}

func (s *LocationService) refreshReferencingTasks(locationID uint64) {
	var err error
	for attempt := 1; attempt <= s.cfg.RefreshRetries; attempt++ {
		err = s.taskRepo.RefreshSearchTextByLocation(locationID, s.cfg.RefreshBatchSize)
		if err == nil {
			return
		}
		s.log.Warn("task search text refresh failed",
			zap.Error(err),
			zap.Uint64("location_id", locationID),
			zap.Int("attempt", attempt),
		)
	}
	s.log.Error("task search text refresh exhausted retries, search results may be stale",
		zap.Error(err),
		zap.Uint64("location_id", locationID),
	)
}
