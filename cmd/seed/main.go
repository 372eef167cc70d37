// Package main applies the schema and loads a minimal demo dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/catalog/customer"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/domain/catalog/supplier"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
)

func main() {
	migrationsDir := flag.String("migrations", "migrations", "directory with .sql migration files")
	withDemo := flag.Bool("demo", true, "load demo catalog data")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := applyMigrations(ctx, pool, *migrationsDir); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}
	log.Info("schema applied")

	txm := postgres.NewTxManager(pool)

	if err := seedAdmin(ctx, txm); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if *withDemo {
		if err := seedDemo(ctx, txm); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
		log.Info("demo data loaded")
	}

	log.Info("seed complete")
}

// applyMigrations runs every .sql file in the directory in name order.
func applyMigrations(ctx context.Context, pool *postgres.Pool, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// seedAdmin provisions the initial admin account. Idempotent; an existing
// username is left alone.
func seedAdmin(ctx context.Context, txm *postgres.TxManager) error {
	users := auth.NewService(postgres.NewUserRepo(txm), auth.NewJWTService("seed-only", 0))

	password := getEnv("ADMIN_PASSWORD", "changeme123")
	_, err := users.CreateUser(ctx, getEnv("ADMIN_USERNAME", "admin"), password, "Administrator", "admin")
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
			return nil
		}
		return err
	}
	return nil
}

// seedDemo loads a small catalog so the API is usable out of the box.
func seedDemo(ctx context.Context, txm *postgres.TxManager) error {
	products := product.NewService(postgres.NewProductRepo(txm))
	suppliers := supplier.NewService(postgres.NewSupplierRepo(txm))
	customers := customer.NewService(postgres.NewCustomerRepo(txm))

	demoProducts := []struct {
		sku, name, price, cost string
		qty, threshold         int64
	}{
		{"COF-001", "Ground Coffee 250g", "7.50", "4.20", 40, 10},
		{"TEA-001", "Green Tea 100g", "4.90", "2.60", 25, 8},
		{"SUG-001", "Cane Sugar 1kg", "2.30", "1.10", 60, 15},
		{"MLK-001", "Oat Milk 1L", "3.10", "1.80", 30, 12},
	}
	for _, d := range demoProducts {
		p := product.New(d.sku, d.name, types.MustMoney(d.price), types.MustMoney(d.cost))
		p.Quantity = d.qty
		p.LowStockThreshold = d.threshold
		if err := products.Create(ctx, p); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
				continue
			}
			return err
		}
	}

	sup := supplier.New("Acme Wholesale")
	contact := "Sam Porter"
	sup.Contact = &contact
	if err := suppliers.Create(ctx, sup); err != nil {
		return err
	}

	cust := customer.New("Walk-in Regular")
	if err := customers.Create(ctx, cust); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
