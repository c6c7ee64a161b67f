package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/adapters/storage"
	"meterhub/internal/core/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HistoryLimit is the number of records returned by the history query
const HistoryLimit = 10

// LedgerService owns the reading history of every meter and the live
// projection kept on the meter row.
type LedgerService struct {
	store      *repositories.Store
	photos     storage.PhotoStore
	editWindow time.Duration
	now        func() time.Time
}

// NewLedgerService creates a new ledger service. Readers may correct a
// reading only while it is younger than editWindow.
func NewLedgerService(store *repositories.Store, photos storage.PhotoStore, editWindow time.Duration) *LedgerService {
	return &LedgerService{
		store:      store,
		photos:     photos,
		editWindow: editWindow,
		now:        time.Now,
	}
}

// AppendReadingInput represents a new reading for a meter
type AppendReadingInput struct {
	MeterNumber string
	Value       decimal.Decimal
	Photo       []byte
}

// CorrectReadingInput represents an edit of a stored reading
type CorrectReadingInput struct {
	MeterNumber string
	ReadingID   uint
	Value       decimal.Decimal
	Photo       []byte
	Actor       domain.Actor
}

// CorrectionResult describes what a correction rewrote
type CorrectionResult struct {
	Record                *models.ReadingHistory `json:"record"`
	Recomputed            int                    `json:"recomputed"`
	CurrentReadingUpdated bool                   `json:"current_reading_updated"`
}

// AppendReading records a new reading. The difference is taken against the
// meter's current reading, or zero when the meter has never been read.
func (s *LedgerService) AppendReading(ctx context.Context, input *AppendReadingInput) (*models.ReadingHistory, error) {
	meterNumber := strings.TrimSpace(input.MeterNumber)
	if meterNumber == "" {
		return nil, fmt.Errorf("%w: meter_id is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateReading(input.Value); err != nil {
		return nil, err
	}

	photoURL, err := s.savePhoto(ctx, input.Photo)
	if err != nil {
		return nil, err
	}

	var record *models.ReadingHistory
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		meter, err := tx.Meters.GetByNumberForUpdate(ctx, meterNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMeterNotFound
			}
			return err
		}

		baseline := decimal.Zero
		if meter.CurrentReading.Valid {
			baseline = meter.CurrentReading.Decimal
		}
		difference := input.Value.Sub(baseline)
		readAt := s.timestamp()

		err = tx.Meters.ShiftReading(ctx, meterNumber, repositories.MeterProjection{
			LastValue:  meter.CurrentReading,
			LastTime:   meter.CurrentReadingTime,
			Value:      input.Value,
			Time:       readAt,
			PhotoURL:   photoURL,
			Difference: difference,
		})
		if err != nil {
			return fmt.Errorf("shift meter projection: %w", err)
		}

		record = &models.ReadingHistory{
			MeterID:      meterNumber,
			ReadingValue: input.Value,
			ReadingTime:  readAt,
			PhotoURL:     photoURL,
			Difference:   difference,
			MeterType:    meter.MeterType,
		}
		if err := tx.Readings.Create(ctx, record); err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discardPhoto(photoURL)
		return nil, err
	}

	log.Info().
		Str("meter", meterNumber).
		Str("value", record.ReadingValue.String()).
		Str("difference", record.Difference.String()).
		Msg("reading appended")

	return record, nil
}

// CorrectReading overwrites the value of a stored reading and re-derives the
// difference of every later reading of the same meter. When the corrected
// reading is the meter's latest, the live current reading follows it.
func (s *LedgerService) CorrectReading(ctx context.Context, input *CorrectReadingInput) (*CorrectionResult, error) {
	if !CanCorrect(input.Actor.Role) {
		return nil, domain.ErrCorrectionNotAllowed
	}

	meterNumber := strings.TrimSpace(input.MeterNumber)
	if meterNumber == "" || input.ReadingID == 0 {
		return nil, fmt.Errorf("%w: meter and reading id are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateReading(input.Value); err != nil {
		return nil, err
	}

	photoURL, err := s.savePhoto(ctx, input.Photo)
	if err != nil {
		return nil, err
	}

	result := &CorrectionResult{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		// Corrections of one meter serialize on its row
		meter, err := tx.Meters.GetByNumberForUpdate(ctx, meterNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMeterNotFound
			}
			return err
		}

		target, err := tx.Readings.GetByID(ctx, input.ReadingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrReadingNotFound
			}
			return err
		}
		if target.MeterID != meterNumber {
			return domain.ErrReadingNotFound
		}

		if input.Actor.Role == domain.RoleReader && s.now().Sub(target.ReadingTime) > s.editWindow {
			return domain.ErrEditWindowExpired
		}

		prev, err := tx.Readings.GetPrevious(ctx, target)
		if err != nil {
			return err
		}

		difference := input.Value
		if prev != nil {
			difference = input.Value.Sub(prev.ReadingValue)
		}

		if err := tx.Readings.UpdateValue(ctx, target.ID, input.Value, difference, photoURL); err != nil {
			return fmt.Errorf("update target reading: %w", err)
		}

		successors, err := tx.Readings.ListAfter(ctx, target)
		if err != nil {
			return err
		}

		running := input.Value
		for _, next := range successors {
			if err := tx.Readings.UpdateDifference(ctx, next.ID, next.ReadingValue.Sub(running)); err != nil {
				return fmt.Errorf("recompute reading %d: %w", next.ID, err)
			}
			running = next.ReadingValue
		}

		// The meter keeps difference = current - last
		switch len(successors) {
		case 0:
			tailDifference := input.Value
			if meter.LastReading.Valid {
				tailDifference = input.Value.Sub(meter.LastReading.Decimal)
			}
			if err := tx.Meters.SetCurrentReading(ctx, meterNumber, input.Value, tailDifference, photoURL); err != nil {
				return fmt.Errorf("update current reading: %w", err)
			}
			result.CurrentReadingUpdated = true
		case 1:
			if meter.LastReading.Valid {
				tailDifference := meter.CurrentReading.Decimal.Sub(input.Value)
				if err := tx.Meters.SetLastReading(ctx, meterNumber, input.Value, tailDifference); err != nil {
					return fmt.Errorf("update last reading: %w", err)
				}
			}
		}

		target.ReadingValue = input.Value
		target.Difference = difference
		if photoURL != "" {
			target.PhotoURL = photoURL
		}
		result.Record = target
		result.Recomputed = len(successors)
		return nil
	})
	if err != nil {
		s.discardPhoto(photoURL)
		return nil, err
	}

	log.Info().
		Str("meter", meterNumber).
		Uint("reading_id", input.ReadingID).
		Str("user", input.Actor.Username).
		Int("recomputed", result.Recomputed).
		Msg("reading corrected")

	return result, nil
}

// History returns the latest readings of a meter, newest first
func (s *LedgerService) History(ctx context.Context, meterNumber string) ([]*models.ReadingHistory, error) {
	meterNumber = strings.TrimSpace(meterNumber)
	if meterNumber == "" {
		return nil, fmt.Errorf("%w: meter id is required", domain.ErrInvalidInput)
	}
	return s.store.Readings.ListRecent(ctx, meterNumber, HistoryLimit)
}

// CanCorrect reports whether a role may correct stored readings
func CanCorrect(role domain.Role) bool {
	return role == domain.RoleDataManager || role == domain.RoleReader
}

// timestamp is the write time of a reading, at the precision the store keeps
func (s *LedgerService) timestamp() time.Time {
	return s.now().Truncate(time.Microsecond)
}

func (s *LedgerService) savePhoto(ctx context.Context, photo []byte) (string, error) {
	if len(photo) == 0 {
		return "", nil
	}
	url, err := s.photos.Save(ctx, photo)
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return url, nil
}

// discardPhoto removes a photo whose reading was never committed
func (s *LedgerService) discardPhoto(url string) {
	if url == "" {
		return
	}
	if err := s.photos.Delete(context.Background(), url); err != nil {
		log.Warn().Err(err).Str("photo", url).Msg("failed to remove orphaned photo")
	}
}
