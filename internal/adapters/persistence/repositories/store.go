package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one database handle. A Store returned
// to a Transaction callback is bound to that transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Campuses      CampusRepository
	LocationTypes LocationTypeRepository
	Meters        MeterRepository
	Readings      ReadingRepository
}

// NewStore creates a store over the given connection pool or transaction
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Campuses:      NewCampusRepository(db),
		LocationTypes: NewLocationTypeRepository(db),
		Meters:        NewMeterRepository(db),
		Readings:      NewReadingRepository(db),
	}
}

// Transaction runs fn inside one database transaction. Any error returned by
// fn, or a panic, rolls the whole transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
