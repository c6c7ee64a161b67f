package repositories

import (
	"context"

	"meterhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type locationTypeRepository struct {
	db *gorm.DB
}

// NewLocationTypeRepository creates a new location type repository
func NewLocationTypeRepository(db *gorm.DB) LocationTypeRepository {
	return &locationTypeRepository{db: db}
}

func (r *locationTypeRepository) Create(ctx context.Context, location *models.LocationType) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *locationTypeRepository) GetByID(ctx context.Context, id uint) (*models.LocationType, error) {
	var location models.LocationType
	if err := r.db.WithContext(ctx).First(&location, id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// GetByName finds a location type by name within a campus
func (r *locationTypeRepository) GetByName(ctx context.Context, campusID uint, name string) (*models.LocationType, error) {
	var location models.LocationType
	err := r.db.WithContext(ctx).
		Where("campus_id = ? AND name = ?", campusID, name).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *locationTypeRepository) ListByCampus(ctx context.Context, campusID uint) ([]*models.LocationType, error) {
	var locations []*models.LocationType
	err := r.db.WithContext(ctx).
		Where("campus_id = ?", campusID).
		Order("id ASC").
		Find(&locations).Error
	return locations, err
}

// UpdateMembers persists the member list of a location type
func (r *locationTypeRepository) UpdateMembers(ctx context.Context, location *models.LocationType) error {
	return r.db.WithContext(ctx).
		Model(&models.LocationType{}).
		Where("id = ?", location.ID).
		Update("meter_numbers", location.MeterNumbers).Error
}

func (r *locationTypeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LocationType{}, id).Error
}

func (r *locationTypeRepository) DeleteByCampus(ctx context.Context, campusID uint) error {
	return r.db.WithContext(ctx).Where("campus_id = ?", campusID).Delete(&models.LocationType{}).Error
}
