package main

import (
	"context"
	"flag"
	"os"

	salesmigrations "github.com/ghuser/salesledger/migrations/sales"
	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/pkg/migrator"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)
	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	dir := migrator.Up
	if *down {
		dir = migrator.Down
	}
	err = migrator.Run(ctx, db.DB(), salesmigrations.FS, dir, log)
	db.Close()
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
