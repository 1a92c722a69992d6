package main

import (
	"context"
	"fmt"
	"os"

	"caffinity/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

// Connects with the server's DB_* settings and reports the schema version.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	var version int64
	err = conn.QueryRow(ctx, "SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied").Scan(&version)
	if err != nil {
		fmt.Println("Schema not migrated yet (start the server with DB_AUTO_MIGRATE=true)")
		return
	}
	fmt.Printf("Schema version: %d\n", version)
}
