package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/ghuser/salesledger/pkg/app"
	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/pkg/events"
	"github.com/ghuser/salesledger/pkg/logger"
	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
)

const seedActor = "seed"

var catalog = []appsvcs.CreateProductInput{
	{Name: "Mechanical Keyboard", Category: "peripherals", Description: "Hot-swappable, 87 keys", Price: decimal.RequireFromString("100.00"), StockQuantity: 10},
	{Name: "Wireless Mouse", Category: "peripherals", Description: "2.4 GHz, rechargeable", Price: decimal.RequireFromString("50.00"), StockQuantity: 20},
	{Name: "27in Monitor", Category: "displays", Description: "1440p IPS", Price: decimal.RequireFromString("329.99"), StockQuantity: 5},
	{Name: "USB-C Dock", Category: "accessories", Description: "Dual display, 100 W passthrough", Price: decimal.RequireFromString("149.50"), StockQuantity: 8},
	{Name: "Laptop Stand", Category: "accessories", Description: "Aluminium, adjustable", Price: decimal.RequireFromString("39.00"), StockQuantity: 0},
}

func main() {
	force := flag.Bool("force", false, "insert even when products already exist")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	svcs := appsvcs.New(&app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: events.NewEventBus(pool.DB(), cfg, log),
	})

	if err := seed(ctx, svcs.Products, *force, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1) //nolint:gocritic
	}
}

func seed(ctx context.Context, products *appsvcs.ProductService, force bool, log logger.Logger) error {
	_, total, err := products.List(ctx, repositories.QueryOpts{Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 && !force {
		log.Info("products already present, skipping", "total", total)
		return nil
	}

	for _, in := range catalog {
		p, err := products.Create(ctx, in, seedActor)
		if err != nil {
			return err
		}
		log.Info("product seeded", "product_id", p.ID, "name", in.Name, "stock", in.StockQuantity)
	}
	return nil
}
