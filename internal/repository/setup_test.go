package repository

import (
	"context"
	"testing"
	"time"

	"caffinity/internal/config"
	"caffinity/internal/database"
	"caffinity/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL testcontainer, applies migrations and returns a pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	ctx := context.Background()

	query := `
		INSERT INTO products (id, name, category, price, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query, p.ID, p.Name, p.Category, p.Price, p.Description, p.ImageURL, p.CreatedAt)
		require.NoError(t, err)
	}
}

func menu() []model.Product {
	now := time.Now()
	return []model.Product{
		{ID: "P001", Name: "Espresso", Category: "Coffee", Price: price(20000), CreatedAt: now},
		{ID: "P002", Name: "Latte", Category: "Coffee", Price: price(25000), CreatedAt: now},
		{ID: "P003", Name: "Croissant", Category: "Pastry", Price: price(15000), CreatedAt: now},
		{ID: "P004", Name: "Matcha", Category: "Tea", Price: price(30000), CreatedAt: now},
		{ID: "P005", Name: "Bagel", Category: "Pastry", Price: price(18000), CreatedAt: now},
	}
}
