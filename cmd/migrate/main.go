package main

// Run database migrations:
//   go run ./cmd/migrate          # up
//   go run ./cmd/migrate down     # revert the last migration
//   go run ./cmd/migrate version

import (
	"context"
	"log"
	"os"

	"github.com/antonpme/CV-Optimizer/internal/shared/config"
	"github.com/antonpme/CV-Optimizer/internal/shared/storage/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required")
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackMigration(ctx, sqlDB)
	case "version":
		var v int64
		v, err = db.MigrationVersion(ctx, sqlDB)
		if err == nil {
			log.Printf("schema version %d", v)
		}
	default:
		log.Printf("unknown command %q (want up, down or version)", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Printf("migrate %s failed: %v", cmd, err)
		os.Exit(1)
	}
}
