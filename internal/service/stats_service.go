package service

import (
	"context"
	"errors"
	"fmt"

	"caffinity/internal/cache"
	"caffinity/internal/model"
	"caffinity/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RecentOrderCount is the number of recent orders shown on the dashboard.
const RecentOrderCount = 5

// statsService implements StatsService.
type statsService struct {
	statsRepo repository.StatsRepository
	cache     cache.StatsCache
	sfg       singleflight.Group
	logger    zerolog.Logger
}

// NewStatsService creates a stats service over c. A nil cache disables caching.
func NewStatsService(statsRepo repository.StatsRepository, c cache.StatsCache, logger zerolog.Logger) StatsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &statsService{
		statsRepo: statsRepo,
		cache:     c,
		logger:    logger.With().Str("service", "stats").Logger(),
	}
}

// Dashboard returns aggregates. Concurrent misses share one recompute.
func (s *statsService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	v, err, _ := s.sfg.Do("dashboard", func() (any, error) {
		stats, err := s.cache.Get(ctx)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("stats cache read failed")
		}

		// The version is read before the recompute so an Invalidate that lands
		// meanwhile makes the write below a no-op.
		version, verr := s.cache.Version(ctx)
		if verr != nil {
			s.logger.Warn().Err(verr).Msg("stats cache version read failed")
		}

		stats, err = s.statsRepo.DashboardStats(ctx, RecentOrderCount)
		if err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
		if verr != nil {
			return stats, nil
		}

		switch err := s.cache.Set(ctx, version, stats); {
		case errors.Is(err, cache.ErrStaleVersion):
			s.logger.Debug().Int64("version", version).Msg("stats invalidated during recompute, not caching")
		case err != nil:
			s.logger.Warn().Err(err).Msg("stats cache write failed")
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.DashboardStats), nil
}

// Invalidate drops cached aggregates. Failures are logged; entries expire anyway.
func (s *statsService) Invalidate(ctx context.Context) {
	s.sfg.Forget("dashboard")
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}
