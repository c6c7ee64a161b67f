package repositories

import (
	"context"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// meterRepository implements MeterRepository interface
type meterRepository struct {
	db *gorm.DB
}

// NewMeterRepository creates a new meter repository
func NewMeterRepository(db *gorm.DB) MeterRepository {
	return &meterRepository{db: db}
}

// Create creates a new meter
func (r *meterRepository) Create(ctx context.Context, meter *models.Meter) error {
	return r.db.WithContext(ctx).Create(meter).Error
}

// GetByID gets a meter by its internal ID
func (r *meterRepository) GetByID(ctx context.Context, id uint) (*models.Meter, error) {
	var meter models.Meter
	if err := r.db.WithContext(ctx).First(&meter, id).Error; err != nil {
		return nil, err
	}
	return &meter, nil
}

// GetByNumber gets a meter by its meter number
func (r *meterRepository) GetByNumber(ctx context.Context, meterNumber string) (*models.Meter, error) {
	var meter models.Meter
	err := r.db.WithContext(ctx).Where("meter_number = ?", meterNumber).First(&meter).Error
	if err != nil {
		return nil, err
	}
	return &meter, nil
}

// GetByNumberForUpdate loads a meter and locks its row until the surrounding
// transaction ends. SQLite has no row locks; its writers are serialized by the
// database lock instead.
func (r *meterRepository) GetByNumberForUpdate(ctx context.Context, meterNumber string) (*models.Meter, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var meter models.Meter
	if err := q.Where("meter_number = ?", meterNumber).First(&meter).Error; err != nil {
		return nil, err
	}
	return &meter, nil
}

// ExistsByNumber checks if a meter number is taken
func (r *meterRepository) ExistsByNumber(ctx context.Context, meterNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Meter{}).Where("meter_number = ?", meterNumber).Count(&count).Error
	return count > 0, err
}

// List lists meters with pagination
func (r *meterRepository) List(ctx context.Context, offset, limit int) ([]*models.Meter, int64, error) {
	var meters []*models.Meter
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Meter{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("meter_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&meters).Error
	if err != nil {
		return nil, 0, err
	}

	return meters, total, nil
}

// ListByNumbers gets the meters whose numbers are listed
func (r *meterRepository) ListByNumbers(ctx context.Context, meterNumbers []string) ([]*models.Meter, error) {
	var meters []*models.Meter
	if len(meterNumbers) == 0 {
		return meters, nil
	}

	err := r.db.WithContext(ctx).
		Where("meter_number IN ?", meterNumbers).
		Order("meter_number ASC").
		Find(&meters).Error
	return meters, err
}

// ListNumbersByCampus gets the meter numbers of every meter in a campus
func (r *meterRepository) ListNumbersByCampus(ctx context.Context, campusID uint) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.Meter{}).
		Where("campus_id = ?", campusID).
		Pluck("meter_number", &numbers).Error
	return numbers, err
}

// ShiftReading stores the new projection. The previous current reading is
// passed in explicitly because MySQL evaluates SET assignments left to right.
func (r *meterRepository) ShiftReading(ctx context.Context, meterNumber string, p MeterProjection) error {
	return r.db.WithContext(ctx).
		Model(&models.Meter{}).
		Where("meter_number = ?", meterNumber).
		Updates(map[string]interface{}{
			"last_reading":         p.LastValue,
			"last_reading_time":    p.LastTime,
			"current_reading":      p.Value,
			"current_reading_time": p.Time,
			"photo_url":            p.PhotoURL,
			"difference":           p.Difference,
		}).Error
}

// SetCurrentReading rewrites the live current reading and its difference
// after the newest history record changed. An empty photoURL keeps the
// stored photo.
func (r *meterRepository) SetCurrentReading(ctx context.Context, meterNumber string, value, difference decimal.Decimal, photoURL string) error {
	updates := map[string]interface{}{
		"current_reading": value,
		"difference":      difference,
	}
	if photoURL != "" {
		updates["photo_url"] = photoURL
	}

	return r.db.WithContext(ctx).
		Model(&models.Meter{}).
		Where("meter_number = ?", meterNumber).
		Updates(updates).Error
}

// SetLastReading rewrites the previous reading kept on the meter and the
// difference taken against it
func (r *meterRepository) SetLastReading(ctx context.Context, meterNumber string, value, difference decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Meter{}).
		Where("meter_number = ?", meterNumber).
		Updates(map[string]interface{}{
			"last_reading": value,
			"difference":   difference,
		}).Error
}

// UpdateAttributes writes the descriptive attributes of one meter kind
func (r *meterRepository) UpdateAttributes(ctx context.Context, meterNumber string, attrs MeterAttributes) (int64, error) {
	updates := map[string]interface{}{"meter_type": attrs.MeterType}
	if attrs.MeterType == string(domain.MeterTypeDigital) {
		updates["brand"] = attrs.Brand
		updates["display_unit"] = attrs.DisplayUnit
	} else {
		updates["ct_value"] = attrs.CTValue
		updates["wiring_method"] = attrs.WiringMethod
	}

	result := r.db.WithContext(ctx).
		Model(&models.Meter{}).
		Where("meter_number = ?", meterNumber).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Delete deletes a meter by ID
func (r *meterRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Meter{}, id).Error
}

// DeleteByCampus deletes every meter of a campus
func (r *meterRepository) DeleteByCampus(ctx context.Context, campusID uint) error {
	return r.db.WithContext(ctx).Where("campus_id = ?", campusID).Delete(&models.Meter{}).Error
}
