package repositories

import (
	"context"
	"time"

	"meterhub/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) (int64, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// CampusRepository defines campus repository interface
type CampusRepository interface {
	Create(ctx context.Context, campus *models.Campus) error
	GetByID(ctx context.Context, id uint) (*models.Campus, error)
	List(ctx context.Context) ([]*models.Campus, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

// LocationTypeRepository defines location type repository interface
type LocationTypeRepository interface {
	Create(ctx context.Context, location *models.LocationType) error
	GetByID(ctx context.Context, id uint) (*models.LocationType, error)
	GetByName(ctx context.Context, campusID uint, name string) (*models.LocationType, error)
	ListByCampus(ctx context.Context, campusID uint) ([]*models.LocationType, error)
	UpdateMembers(ctx context.Context, location *models.LocationType) error
	Delete(ctx context.Context, id uint) error
	DeleteByCampus(ctx context.Context, campusID uint) error
}

// MeterProjection is the new live reading state written by the append path
type MeterProjection struct {
	LastValue  decimal.NullDecimal
	LastTime   *time.Time
	Value      decimal.Decimal
	Time       time.Time
	PhotoURL   string
	Difference decimal.Decimal
}

// MeterAttributes are the kind-specific descriptive fields of a meter
type MeterAttributes struct {
	MeterType    string
	Brand        string
	DisplayUnit  string
	CTValue      string
	WiringMethod string
}

// MeterRepository defines meter repository interface
type MeterRepository interface {
	Create(ctx context.Context, meter *models.Meter) error
	GetByID(ctx context.Context, id uint) (*models.Meter, error)
	GetByNumber(ctx context.Context, meterNumber string) (*models.Meter, error)
	GetByNumberForUpdate(ctx context.Context, meterNumber string) (*models.Meter, error)
	ExistsByNumber(ctx context.Context, meterNumber string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Meter, int64, error)
	ListByNumbers(ctx context.Context, meterNumbers []string) ([]*models.Meter, error)
	ListNumbersByCampus(ctx context.Context, campusID uint) ([]string, error)
	ShiftReading(ctx context.Context, meterNumber string, projection MeterProjection) error
	SetCurrentReading(ctx context.Context, meterNumber string, value, difference decimal.Decimal, photoURL string) error
	SetLastReading(ctx context.Context, meterNumber string, value, difference decimal.Decimal) error
	UpdateAttributes(ctx context.Context, meterNumber string, attrs MeterAttributes) (int64, error)
	Delete(ctx context.Context, id uint) error
	DeleteByCampus(ctx context.Context, campusID uint) error
}

// ReadingRepository defines reading history repository interface
type ReadingRepository interface {
	Create(ctx context.Context, record *models.ReadingHistory) error
	GetByID(ctx context.Context, id uint) (*models.ReadingHistory, error)
	GetPrevious(ctx context.Context, record *models.ReadingHistory) (*models.ReadingHistory, error)
	ListAfter(ctx context.Context, record *models.ReadingHistory) ([]*models.ReadingHistory, error)
	ListByMeter(ctx context.Context, meterNumber string) ([]*models.ReadingHistory, error)
	ListRecent(ctx context.Context, meterNumber string, limit int) ([]*models.ReadingHistory, error)
	UpdateValue(ctx context.Context, id uint, value, difference decimal.Decimal, photoURL string) error
	UpdateDifference(ctx context.Context, id uint, difference decimal.Decimal) error
	DeleteByMeters(ctx context.Context, meterNumbers []string) error
}
