package repositories

import (
	"context"

	"meterhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type campusRepository struct {
	db *gorm.DB
}

// NewCampusRepository creates a new campus repository
func NewCampusRepository(db *gorm.DB) CampusRepository {
	return &campusRepository{db: db}
}

func (r *campusRepository) Create(ctx context.Context, campus *models.Campus) error {
	return r.db.WithContext(ctx).Create(campus).Error
}

func (r *campusRepository) GetByID(ctx context.Context, id uint) (*models.Campus, error) {
	var campus models.Campus
	if err := r.db.WithContext(ctx).First(&campus, id).Error; err != nil {
		return nil, err
	}
	return &campus, nil
}

func (r *campusRepository) List(ctx context.Context) ([]*models.Campus, error) {
	var campuses []*models.Campus
	err := r.db.WithContext(ctx).Order("id ASC").Find(&campuses).Error
	return campuses, err
}

func (r *campusRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Campus{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// Delete removes a campus row and reports how many rows were removed
func (r *campusRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Campus{}, id)
	return result.RowsAffected, result.Error
}
