package data

import (
	"context"
	"database/sql"

	"github.com/target/mmk-sweeper/internal/migrate"
)

// RunMigrations applies the Postgres job-store schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
