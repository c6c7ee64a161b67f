package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// tokenPurger is the part of AuthService the scheduled purge needs
type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// MaintenanceService runs scheduled housekeeping jobs
type MaintenanceService struct {
	auth     tokenPurger
	schedule string
	cron     *cron.Cron
}

// NewMaintenanceService creates a maintenance service purging expired refresh
// tokens on the given cron schedule
func NewMaintenanceService(auth tokenPurger, schedule string) *MaintenanceService {
	return &MaintenanceService{
		auth:     auth,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the jobs and starts the scheduler
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.PurgeExpiredTokens); err != nil {
		return fmt.Errorf("invalid token purge schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("maintenance jobs started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *MaintenanceService) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("maintenance jobs stopped")
}

// PurgeExpiredTokens deletes expired refresh tokens
func (s *MaintenanceService) PurgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.auth.PurgeExpiredTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("refresh token purge failed")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("expired refresh tokens purged")
	}
}
