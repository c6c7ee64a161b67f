package repositories

import (
	"context"
	"errors"

	"meterhub/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// readingRepository implements ReadingRepository interface.
//
// History order for a meter is (reading_time, id): two readings stamped with the
// same time are ordered by insertion.
type readingRepository struct {
	db *gorm.DB
}

// NewReadingRepository creates a new reading history repository
func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{db: db}
}

// Create inserts a history record
func (r *readingRepository) Create(ctx context.Context, record *models.ReadingHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID gets a history record by ID
func (r *readingRepository) GetByID(ctx context.Context, id uint) (*models.ReadingHistory, error) {
	var record models.ReadingHistory
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetPrevious returns the record immediately before the given one in history
// order, or nil when the given record is the meter's first.
func (r *readingRepository) GetPrevious(ctx context.Context, record *models.ReadingHistory) (*models.ReadingHistory, error) {
	var prev models.ReadingHistory
	err := r.db.WithContext(ctx).
		Where("meter_id = ?", record.MeterID).
		Where("(reading_time < ? OR (reading_time = ? AND id < ?))", record.ReadingTime, record.ReadingTime, record.ID).
		Order("reading_time DESC").
		Order("id DESC").
		First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prev, nil
}

// ListAfter returns every record after the given one, in replay order
func (r *readingRepository) ListAfter(ctx context.Context, record *models.ReadingHistory) ([]*models.ReadingHistory, error) {
	var records []*models.ReadingHistory
	err := r.db.WithContext(ctx).
		Where("meter_id = ?", record.MeterID).
		Where("(reading_time > ? OR (reading_time = ? AND id > ?))", record.ReadingTime, record.ReadingTime, record.ID).
		Order("reading_time ASC").
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// ListByMeter returns the full history of a meter in chronological order
func (r *readingRepository) ListByMeter(ctx context.Context, meterNumber string) ([]*models.ReadingHistory, error) {
	var records []*models.ReadingHistory
	err := r.db.WithContext(ctx).
		Where("meter_id = ?", meterNumber).
		Order("reading_time ASC").
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// ListRecent returns the newest records of a meter, newest first
func (r *readingRepository) ListRecent(ctx context.Context, meterNumber string, limit int) ([]*models.ReadingHistory, error) {
	var records []*models.ReadingHistory
	err := r.db.WithContext(ctx).
		Where("meter_id = ?", meterNumber).
		Order("reading_time DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// UpdateValue rewrites a record's value and difference. An empty photoURL keeps
// the stored photo.
func (r *readingRepository) UpdateValue(ctx context.Context, id uint, value, difference decimal.Decimal, photoURL string) error {
	updates := map[string]interface{}{
		"reading_value": value,
		"difference":    difference,
	}
	if photoURL != "" {
		updates["photo_url"] = photoURL
	}

	return r.db.WithContext(ctx).
		Model(&models.ReadingHistory{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateDifference rewrites only the difference of a record
func (r *readingRepository) UpdateDifference(ctx context.Context, id uint, difference decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.ReadingHistory{}).
		Where("id = ?", id).
		Update("difference", difference).Error
}

// DeleteByMeters deletes the history of the listed meters
func (r *readingRepository) DeleteByMeters(ctx context.Context, meterNumbers []string) error {
	if len(meterNumbers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("meter_id IN ?", meterNumbers).
		Delete(&models.ReadingHistory{}).Error
}
