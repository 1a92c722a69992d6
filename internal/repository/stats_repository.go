package repository

import (
	"context"
	"fmt"

	"caffinity/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// statsRepository implements the StatsRepository interface using PostgreSQL.
type statsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStatsRepository creates a new PostgreSQL-backed stats repository.
func NewStatsRepository(pool *pgxpool.Pool, logger zerolog.Logger) StatsRepository {
	return &statsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "stats").Logger(),
	}
}

// DashboardStats returns aggregates over orders and products. Income counts
// completed orders only.
func (r *statsRepository) DashboardStats(ctx context.Context, recent int) (*model.DashboardStats, error) {
	query := `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status = 'completed'), 0),
			COUNT(*),
			COUNT(DISTINCT user_id),
			(SELECT COUNT(*) FROM products)
		FROM orders
	`

	stats := &model.DashboardStats{}
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Income,
		&stats.TotalOrders,
		&stats.TotalCustomers,
		&stats.TotalProducts,
	); err != nil {
		r.logger.Error().Err(err).Msg("failed to query dashboard aggregates")
		return nil, fmt.Errorf("failed to query dashboard aggregates: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, total, status, created_at
		FROM orders
		ORDER BY created_at DESC, id
		LIMIT $1
	`, recent)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query recent orders")
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()

	stats.RecentOrders = []model.OrderSummary{}
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Total, &s.Status, &s.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan recent order row")
			return nil, fmt.Errorf("failed to scan recent order: %w", err)
		}
		stats.RecentOrders = append(stats.RecentOrders, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating recent order rows")
		return nil, fmt.Errorf("error iterating recent orders: %w", err)
	}

	return stats, nil
}
