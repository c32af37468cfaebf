package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

//go:embed schema.sql
var schema string

// InitDB opens the connection pool and verifies it with a ping.
func InitDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	utils.LogInfo("Successfully connected to the database")
	return db, nil
}

// ApplySchema executes the embedded schema script.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied successfully")
	return nil
}

func ptr(s string) *string { return &s }

// defaultMenu is the starter catalog. Set names and their component names match
// the built-in set composition document.
var defaultMenu = []models.MenuItem{
	{Name: "Table charge", Price: 3000, Category: models.CategoryTableCharge, Description: ptr("Per-table service charge")},
	{Name: "Beer", Price: 5000, Category: models.CategoryDrink},
	{Name: "Soju", Price: 4000, Category: models.CategoryDrink},
	{Name: "Makgeolli", Price: 6000, Category: models.CategoryDrink},
	{Name: "Dakgalbi", Price: 18000, Category: models.CategoryDish},
	{Name: "Tteokbokki", Price: 12000, Category: models.CategoryDish},
	{Name: "Ramen", Price: 8000, Category: models.CategoryDish},
	{Name: "Fried Chicken", Price: 16000, Category: models.CategoryDish},
	{Name: "Pajeon", Price: 14000, Category: models.CategorySide},
	{Name: "Bibimbap", Price: 10000, Category: models.CategorySide},
	{Name: "Kimchi Stew", Price: 9000, Category: models.CategorySide},
	{Name: "Couple Set", Price: 39000, Category: models.CategorySetMenu, Description: ptr("Dakgalbi, Tteokbokki, two drinks and a raffle ticket")},
	{Name: "Party Set", Price: 69000, Category: models.CategorySetMenu, Description: ptr("Two Fried Chicken, Pajeon, four drinks and two raffle tickets")},
}

// SeedMenu inserts the starter catalog when the catalog is empty. It reports
// how many items were inserted.
func SeedMenu(ctx context.Context, repo repositories.MenuRepository, tx repositories.Transactor) (int, error) {
	count, err := repo.CountItems(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	err = tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, item := range defaultMenu {
			item.IsActive = true
			if _, err := repo.CreateItem(ctx, exec, &item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding menu: %w", err)
	}
	utils.LogInfo("Seeded default menu", map[string]interface{}{"items": len(defaultMenu)})
	return len(defaultMenu), nil
}
