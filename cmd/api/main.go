// cmd/api/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	apihttp "github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pdf"
	"github.com/your-org/storefront/internal/pkg/txn"
)

func main() {
	resetDB := flag.Bool("reset-db", false, "drop every table before migrating (development only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting service")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Redis only backs rate limiting, so the API can run without it
	checks := map[string]apihttp.HealthCheck{"database": db.Health}
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, rate limiting falls back to in-process limiter")
	} else {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
	}

	migration := postgres.NewMigration(db.GetDB(), cfg, log)
	if *resetDB {
		if !cfg.IsDevelopment() {
			log.Fatal("Refusing to reset the database outside development")
		}
		if err := migration.DropAllTables(); err != nil {
			log.WithError(err).Fatal("Failed to drop tables")
		}
	}
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	gdb := db.GetDB()
	runner := txn.NewRunner(postgres.NewTransactor(gdb, cfg.Database.LockTimeout), log, cfg.Order.ConflictAttempts)
	users := postgres.NewUserRepository(gdb)
	products := postgres.NewProductRepository(gdb)
	categories := postgres.NewCategoryRepository(gdb)
	carts := postgres.NewCartRepository(gdb)
	orders := postgres.NewOrderRepository(gdb)

	deps := routes.Dependencies{
		Users:      user.NewService(users, runner, cfg, log),
		UserAdmin:  user.NewAdminService(users, runner, log),
		Products:   product.NewService(products, categories, runner, log),
		Categories: product.NewCategoryService(categories, runner, log),
		Carts:      cart.NewService(carts, products, runner, log),
		Orders:     order.NewService(orders, carts, products, runner, log),
		Invoices:   pdf.NewService(cfg),
		Log:        log,
	}

	var server *apihttp.Server
	if redisClient != nil {
		server = apihttp.NewServer(cfg, deps, redisClient.GetClient(), checks, log)
	} else {
		server = apihttp.NewServer(cfg, deps, nil, checks, log)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
