package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanmarzano/orderbot/internal/factories"
	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/repositories/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var seedCustomers int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the menu, ingredient stock and recipes into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		return runSeed(cmd.Context(), cfg)
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCustomers, "demo-customers", 0, "also create N fake customer profiles")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(ctx context.Context, cfg *models.Config) error {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	menuRepo := postgres.NewMenuItemRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	usersRepo := postgres.NewUserRepository(pool)

	items := factories.SeedMenu()
	if err := menuRepo.BulkCreate(ctx, items); err != nil {
		return fmt.Errorf("seeding menu: %w", err)
	}
	log.Printf("seed: %d menu items loaded", len(items))

	ingredients := factories.SeedIngredients()
	bar := progressbar.Default(int64(len(ingredients)), "ingredients")
	for _, ing := range ingredients {
		if err := inventoryRepo.UpsertIngredient(ctx, ing); err != nil {
			return fmt.Errorf("seeding ingredient %s: %w", ing.ID, err)
		}
		bar.Add(1)
	}

	if err := inventoryRepo.SaveRecipe(ctx, factories.SeedRecipes()); err != nil {
		return fmt.Errorf("seeding recipes: %w", err)
	}
	log.Println("seed: recipes loaded")

	if seedCustomers > 0 {
		cf := &factories.CustomerFactory{}
		bar = progressbar.Default(int64(seedCustomers), "customers")
		for i := 0; i < seedCustomers; i++ {
			if err := usersRepo.Upsert(ctx, cf.CreateCustomer()); err != nil {
				return fmt.Errorf("seeding customer: %w", err)
			}
			bar.Add(1)
		}
	}
	return nil
}
