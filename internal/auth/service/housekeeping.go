package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
)

const (
	DefaultHousekeepingSchedule = "@every 1h"
	DefaultFamilyRetention      = 30 * 24 * time.Hour
)

// HousekeepingService periodically cleans up expired database records
// to prevent unbounded growth of refresh_families and secrets.
type HousekeepingService struct {
	Store  store.Store
	Logger *slog.Logger
	Clock  clockx.Clock

	// Schedule is a robfig/cron spec such as "@every 1h" or "0 3 * * *".
	Schedule string

	// FamilyRetention keeps expired refresh families around this long, so
	// reuse of a recently expired token is still reported as stale.
	FamilyRetention time.Duration

	// SecretLifetime removes signing secrets older than this.
	SecretLifetime time.Duration

	cron *cron.Cron
}

// NewHousekeepingService creates a new housekeeping service. An empty
// schedule defaults to hourly.
func NewHousekeepingService(
	st store.Store,
	logger *slog.Logger,
	schedule string,
	familyRetention, secretLifetime time.Duration,
) *HousekeepingService {
	if schedule == "" {
		schedule = DefaultHousekeepingSchedule
	}
	if familyRetention <= 0 {
		familyRetention = DefaultFamilyRetention
	}
	return &HousekeepingService{
		Store:           st,
		Logger:          logger,
		Schedule:        schedule,
		FamilyRetention: familyRetention,
		SecretLifetime:  secretLifetime,
	}
}

// Start runs one cleanup immediately and registers the schedule. It fails
// on an invalid schedule.
func (s *HousekeepingService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, s.Cleanup); err != nil {
		return err
	}
	s.cron = c

	s.Cleanup()
	c.Start()
	s.Logger.Info("housekeeping service started", "schedule", s.Schedule)
	return nil
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.Logger.Info("housekeeping service stopped")
}

// Cleanup performs the actual deletion of expired records. Each deletion is
// independent; a failure in one does not stop the others.
func (s *HousekeepingService) Cleanup() {
	ctx := context.Background()
	now := clockx.OrSystem(s.Clock).Now()
	s.Logger.Info("starting housekeeping cleanup")

	var successful int

	families, err := s.Store.RefreshFamilies().DeleteExpiredRefreshFamilies(ctx, now.Add(-s.FamilyRetention))
	if err != nil {
		s.Logger.Error("failed to delete expired refresh families", "error", err)
	} else {
		s.Logger.Debug("deleted expired refresh families", "count", families)
		successful++
	}

	if s.SecretLifetime > 0 {
		secrets, err := s.Store.Secrets().DeleteSecretsCreatedBefore(ctx, now.Add(-s.SecretLifetime))
		if err != nil {
			s.Logger.Error("failed to delete expired secrets", "error", err)
		} else {
			s.Logger.Debug("deleted expired secrets", "count", secrets)
			successful++
		}
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", successful)
}
