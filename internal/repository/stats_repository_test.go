package repository

import (
	"context"
	"testing"
	"time"

	"caffinity/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_DashboardStats(t *testing.T) {
	pool, orders, cleanup := setupOrderRepo(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewStatsRepository(pool, zerolog.Nop())

	empty, err := repo.DashboardStats(ctx, 5)
	require.NoError(t, err)
	assert.True(t, empty.Income.IsZero())
	assert.Equal(t, 0, empty.TotalOrders)
	assert.Equal(t, 5, empty.TotalProducts)
	assert.Empty(t, empty.RecentOrders)

	line := model.OrderLine{ProductID: "P001", Name: "Espresso", Quantity: 1, UnitPrice: price(20000)}
	base := time.Now().Add(-time.Hour)

	var placed []*model.Order
	for i, user := range []string{"a", "b", "a", "c", "a", "b"} {
		o := newTestOrder(user, base.Add(time.Duration(i)*time.Minute), line)
		insertOrder(t, orders, o)
		placed = append(placed, o)
	}

	_, err = orders.UpdateStatus(ctx, placed[0].ID, model.StatusPending, model.StatusProcessing)
	require.NoError(t, err)
	_, err = orders.UpdateStatus(ctx, placed[0].ID, model.StatusProcessing, model.StatusCompleted)
	require.NoError(t, err)

	stats, err := repo.DashboardStats(ctx, 5)
	require.NoError(t, err)

	assert.True(t, stats.Income.Equal(placed[0].Totals.Total), "only completed orders count as income")
	assert.Equal(t, 6, stats.TotalOrders)
	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 5, stats.TotalProducts)
	require.Len(t, stats.RecentOrders, 5)
	assert.Equal(t, placed[5].ID, stats.RecentOrders[0].ID)
}
