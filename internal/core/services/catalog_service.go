package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meterhub/internal/adapters/persistence/models"
	"meterhub/internal/adapters/persistence/repositories"
	"meterhub/internal/core/domain"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const campusesCacheKey = "campuses"

func locationsCacheKey(campusID uint) string {
	return fmt.Sprintf("locations:%d", campusID)
}

// CatalogService manages campuses, location types and the meter registry.
// Campus and location type reads are served from an in-process cache that
// every write through this service invalidates.
type CatalogService struct {
	store *repositories.Store
	cache *cache.Cache
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *repositories.Store, ttl time.Duration) *CatalogService {
	return &CatalogService{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

// CreateMeterInput represents meter registration input
type CreateMeterInput struct {
	MeterNumber string `json:"meter_number"`
	Location    string `json:"location"`
	CampusID    uint   `json:"campus_id"`
}

// UpdateMeterInput represents the descriptive attributes of a meter
type UpdateMeterInput struct {
	MeterType    string `json:"meter_type"`
	Brand        string `json:"brand"`
	DisplayUnit  string `json:"display_unit"`
	CTValue      string `json:"ct_value"`
	WiringMethod string `json:"wiring_method"`
}

// MeterListing is the result of listing meters for a location type or a
// campus. Location is set for a location listing, Locations for a campus one.
type MeterListing struct {
	Location  *models.LocationType
	Locations []*models.LocationType
	Meters    []*models.Meter
}

// ============================================================
// Campuses
// ============================================================

// ListCampuses lists every campus
func (s *CatalogService) ListCampuses(ctx context.Context) ([]*models.Campus, error) {
	if cached, found := s.cache.Get(campusesCacheKey); found {
		return cached.([]*models.Campus), nil
	}

	campuses, err := s.store.Campuses.List(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(campusesCacheKey, campuses)
	return campuses, nil
}

// CreateCampus creates a campus with a unique name
func (s *CatalogService) CreateCampus(ctx context.Context, name string) (*models.Campus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	exists, err := s.store.Campuses.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrCampusAlreadyExists
	}

	campus := &models.Campus{Name: name}
	if err := s.store.Campuses.Create(ctx, campus); err != nil {
		return nil, err
	}

	s.cache.Delete(campusesCacheKey)
	log.Info().Uint("campus_id", campus.ID).Str("name", name).Msg("campus created")
	return campus, nil
}

// DeleteCampus removes a campus together with its location types, its
// meters and their reading history
func (s *CatalogService) DeleteCampus(ctx context.Context, id uint) error {
	var meterCount int
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Campuses.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCampusNotFound
			}
			return err
		}

		if err := tx.LocationTypes.DeleteByCampus(ctx, id); err != nil {
			return err
		}

		numbers, err := tx.Meters.ListNumbersByCampus(ctx, id)
		if err != nil {
			return err
		}
		meterCount = len(numbers)

		if err := tx.Readings.DeleteByMeters(ctx, numbers); err != nil {
			return err
		}
		if err := tx.Meters.DeleteByCampus(ctx, id); err != nil {
			return err
		}

		affected, err := tx.Campuses.Delete(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrCampusNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Delete(campusesCacheKey)
	s.cache.Delete(locationsCacheKey(id))
	log.Info().Uint("campus_id", id).Int("meters", meterCount).Msg("campus deleted")
	return nil
}

// ============================================================
// Location types
// ============================================================

// ListLocationTypes lists the location types of a campus
func (s *CatalogService) ListLocationTypes(ctx context.Context, campusID uint) ([]*models.LocationType, error) {
	key := locationsCacheKey(campusID)
	if cached, found := s.cache.Get(key); found {
		return cached.([]*models.LocationType), nil
	}

	locations, err := s.store.LocationTypes.ListByCampus(ctx, campusID)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(key, locations)
	return locations, nil
}

// ============================================================
// Meters
// ============================================================

// ListMeters lists every meter, one page at a time
func (s *CatalogService) ListMeters(ctx context.Context, page, limit int) ([]*models.Meter, int64, error) {
	offset := (page - 1) * limit
	return s.store.Meters.List(ctx, offset, limit)
}

// ListMetersForScope lists the meters of one location type or of a whole campus
func (s *CatalogService) ListMetersForScope(ctx context.Context, scope domain.MeterListScope, id uint) (*MeterListing, error) {
	switch scope {
	case domain.ScopeLocation:
		location, err := s.store.LocationTypes.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrLocationTypeNotFound
			}
			return nil, err
		}

		meters, err := s.store.Meters.ListByNumbers(ctx, location.Members())
		if err != nil {
			return nil, err
		}
		return &MeterListing{Location: location, Meters: meters}, nil

	case domain.ScopeCampus:
		if _, err := s.store.Campuses.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrCampusNotFound
			}
			return nil, err
		}

		locations, err := s.store.LocationTypes.ListByCampus(ctx, id)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]bool)
		var numbers []string
		for _, l := range locations {
			for _, n := range l.Members() {
				if !seen[n] {
					seen[n] = true
					numbers = append(numbers, n)
				}
			}
		}

		meters, err := s.store.Meters.ListByNumbers(ctx, numbers)
		if err != nil {
			return nil, err
		}
		return &MeterListing{Locations: locations, Meters: meters}, nil

	default:
		return nil, domain.ErrInvalidScope
	}
}

// CreateMeter registers a meter and adds it to the location type of the
// same name in its campus, creating that location type on first use
func (s *CatalogService) CreateMeter(ctx context.Context, input *CreateMeterInput) (*models.Meter, error) {
	meterNumber := strings.TrimSpace(input.MeterNumber)
	location := strings.TrimSpace(input.Location)
	if meterNumber == "" || location == "" || input.CampusID == 0 {
		return nil, fmt.Errorf("%w: meter_number, location and campus_id are required", domain.ErrInvalidInput)
	}
	if strings.Contains(meterNumber, ",") {
		return nil, fmt.Errorf("%w: meter_number may not contain commas", domain.ErrInvalidInput)
	}

	meter := &models.Meter{
		MeterNumber: meterNumber,
		Location:    location,
		CampusID:    input.CampusID,
	}

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Campuses.GetByID(ctx, input.CampusID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCampusNotFound
			}
			return err
		}

		exists, err := tx.Meters.ExistsByNumber(ctx, meterNumber)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrMeterAlreadyExists
		}

		locationType, err := tx.LocationTypes.GetByName(ctx, input.CampusID, location)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			locationType = &models.LocationType{Name: location, CampusID: input.CampusID}
			locationType.AddMember(meterNumber)
			if err := tx.LocationTypes.Create(ctx, locationType); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			locationType.AddMember(meterNumber)
			if err := tx.LocationTypes.UpdateMembers(ctx, locationType); err != nil {
				return err
			}
		}

		return tx.Meters.Create(ctx, meter)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(locationsCacheKey(input.CampusID))
	log.Info().Str("meter", meterNumber).Uint("campus_id", input.CampusID).Str("location", location).Msg("meter created")
	return meter, nil
}

// DeleteMeter removes a meter and its reading history, and drops it from its
// location type. A location type left without members is removed.
func (s *CatalogService) DeleteMeter(ctx context.Context, id uint) error {
	var meter *models.Meter
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		meter, err = tx.Meters.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMeterNotFound
			}
			return err
		}

		if err := tx.Readings.DeleteByMeters(ctx, []string{meter.MeterNumber}); err != nil {
			return err
		}
		if err := tx.Meters.Delete(ctx, meter.ID); err != nil {
			return err
		}

		if meter.Location == "" {
			return nil
		}

		locationType, err := tx.LocationTypes.GetByName(ctx, meter.CampusID, meter.Location)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if locationType.RemoveMember(meter.MeterNumber) {
			return tx.LocationTypes.UpdateMembers(ctx, locationType)
		}
		return tx.LocationTypes.Delete(ctx, locationType.ID)
	})
	if err != nil {
		return err
	}

	s.cache.Delete(locationsCacheKey(meter.CampusID))
	log.Info().Str("meter", meter.MeterNumber).Msg("meter deleted")
	return nil
}

// UpdateMeter writes the attributes of the meter's kind. Digital meters carry
// brand and display unit, mechanical meters a CT value and wiring method.
func (s *CatalogService) UpdateMeter(ctx context.Context, meterNumber string, input *UpdateMeterInput) error {
	meterType := domain.MeterType(strings.TrimSpace(input.MeterType))
	if !domain.ValidMeterType(meterType) {
		return domain.ErrInvalidMeterType
	}

	exists, err := s.store.Meters.ExistsByNumber(ctx, meterNumber)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrMeterNotFound
	}

	_, err = s.store.Meters.UpdateAttributes(ctx, meterNumber, repositories.MeterAttributes{
		MeterType:    string(meterType),
		Brand:        input.Brand,
		DisplayUnit:  input.DisplayUnit,
		CTValue:      input.CTValue,
		WiringMethod: input.WiringMethod,
	})
	if err != nil {
		return err
	}

	log.Info().Str("meter", meterNumber).Str("meter_type", string(meterType)).Msg("meter updated")
	return nil
}
