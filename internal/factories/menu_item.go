// Package factories builds the seed data used to bootstrap a fresh
// database: the fixed menu, the ingredient stock and demo customers.
package factories

import (
	"time"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/repositories"
)

// SeedMenu is the launch menu. IDs are stable because button payloads,
// cart lines and recipes all reference them.
func SeedMenu() []*models.MenuItem {
	now := time.Now()
	items := []*models.MenuItem{
		{
			ID:          "pizza_americana",
			Name:        "Pizza Americana",
			Description: "Jamón, queso mozzarella y salsa de la casa",
			Category:    models.CategoryPizza,
			Prices:      map[string]float64{"personal": 15, "grande": 26, "familiar": 33},
			Keywords:    []string{"americana", "jamon"},
		},
		{
			ID:          "pizza_pepperoni",
			Name:        "Pizza Pepperoni",
			Description: "Doble pepperoni y mozzarella",
			Category:    models.CategoryPizza,
			Prices:      map[string]float64{"personal": 16, "grande": 28, "familiar": 35},
			Keywords:    []string{"pepperoni", "peperoni"},
		},
		{
			ID:          "pizza_hawaiana",
			Name:        "Pizza Hawaiana",
			Description: "Jamón y piña",
			Category:    models.CategoryPizza,
			Prices:      map[string]float64{"personal": 16, "grande": 28, "familiar": 35},
			Keywords:    []string{"hawaiana", "piña", "pina"},
		},
		{
			ID:          "pizza_margarita",
			Name:        "Pizza Margarita",
			Description: "Mozzarella, tomate y albahaca fresca",
			Category:    models.CategoryPizza,
			Prices:      map[string]float64{"personal": 14, "grande": 25, "familiar": 32},
			Keywords:    []string{"margarita", "margherita"},
		},
		{
			ID:          "lasagna_bolognesa",
			Name:        "Lasagna Bolognesa",
			Description: "Carne molida, salsa roja y bechamel",
			Category:    models.CategoryLasagna,
			Prices:      map[string]float64{"solo": 22},
			Keywords:    []string{"lasaña", "bolognesa", "boloñesa"},
		},
		{
			ID:          "lasagna_alfredo",
			Name:        "Lasagna Alfredo",
			Description: "Pollo y salsa alfredo",
			Category:    models.CategoryLasagna,
			Prices:      map[string]float64{"solo": 21},
			Keywords:    []string{"lasaña", "alfredo", "pollo"},
		},
		{
			ID:          "inca_kola",
			Name:        "Inca Kola",
			Description: "Bien helada",
			Category:    models.CategoryDrink,
			Prices:      map[string]float64{"500ml": 5, "1.5lt": 10},
			Keywords:    []string{"inca", "kola", "gaseosa"},
		},
		{
			ID:          "coca_cola",
			Name:        "Coca Cola",
			Description: "Bien helada",
			Category:    models.CategoryDrink,
			Prices:      map[string]float64{"500ml": 5, "1.5lt": 10},
			Keywords:    []string{"coca", "gaseosa"},
		},
		{
			ID:          "chicha_morada",
			Name:        "Chicha Morada",
			Description: "Jarra de chicha casera",
			Category:    models.CategoryDrink,
			Prices:      map[string]float64{"solo": 12},
			Keywords:    []string{"chicha", "morada"},
		},
		{
			ID:          "pan_al_ajo",
			Name:        "Pan al Ajo",
			Description: "5 unidades con mantequilla de ajo",
			Category:    models.CategoryExtra,
			Prices:      map[string]float64{"solo": 8},
			Keywords:    []string{"pan", "ajo"},
		},
	}
	for _, item := range items {
		item.IsActive = true
		item.UpdatedAt = now
	}
	return items
}

// SeedIngredients is the starting stock, in each ingredient's own unit.
func SeedIngredients() []*repositories.Ingredient {
	return []*repositories.Ingredient{
		{ID: "masa", Name: "Masa de pizza", Unit: "unidad", Cost: 2.5, Stock: 200, MinStock: 30},
		{ID: "mozzarella", Name: "Queso mozzarella", Unit: "kg", Cost: 28, Stock: 40, MinStock: 8},
		{ID: "jamon", Name: "Jamón", Unit: "kg", Cost: 22, Stock: 25, MinStock: 5},
		{ID: "pepperoni", Name: "Pepperoni", Unit: "kg", Cost: 35, Stock: 20, MinStock: 4},
		{ID: "pina", Name: "Piña", Unit: "kg", Cost: 6, Stock: 15, MinStock: 3},
		{ID: "salsa_roja", Name: "Salsa de tomate", Unit: "lt", Cost: 8, Stock: 50, MinStock: 10},
		{ID: "carne_molida", Name: "Carne molida", Unit: "kg", Cost: 24, Stock: 30, MinStock: 6},
		{ID: "pollo", Name: "Pollo deshilachado", Unit: "kg", Cost: 18, Stock: 30, MinStock: 6},
		{ID: "pasta_lasagna", Name: "Láminas de lasagna", Unit: "unidad", Cost: 0.8, Stock: 300, MinStock: 60},
		{ID: "gaseosa_500", Name: "Gaseosa 500ml", Unit: "unidad", Cost: 2.8, Stock: 120, MinStock: 24},
		{ID: "gaseosa_15", Name: "Gaseosa 1.5lt", Unit: "unidad", Cost: 6.5, Stock: 80, MinStock: 12},
		{ID: "pan", Name: "Pan", Unit: "unidad", Cost: 0.4, Stock: 150, MinStock: 30},
	}
}

// SeedRecipes maps products to ingredient consumption per unit sold.
// Multi-size products deduct the same recipe regardless of size.
func SeedRecipes() []repositories.RecipeLine {
	return []repositories.RecipeLine{
		{ProductID: "pizza_americana", IngredientID: "masa", Consumption: 1},
		{ProductID: "pizza_americana", IngredientID: "mozzarella", Consumption: 0.25},
		{ProductID: "pizza_americana", IngredientID: "jamon", Consumption: 0.15},
		{ProductID: "pizza_pepperoni", IngredientID: "masa", Consumption: 1},
		{ProductID: "pizza_pepperoni", IngredientID: "mozzarella", Consumption: 0.25},
		{ProductID: "pizza_pepperoni", IngredientID: "pepperoni", Consumption: 0.2},
		{ProductID: "pizza_hawaiana", IngredientID: "masa", Consumption: 1},
		{ProductID: "pizza_hawaiana", IngredientID: "mozzarella", Consumption: 0.25},
		{ProductID: "pizza_hawaiana", IngredientID: "jamon", Consumption: 0.1},
		{ProductID: "pizza_hawaiana", IngredientID: "pina", Consumption: 0.15},
		{ProductID: "pizza_margarita", IngredientID: "masa", Consumption: 1},
		{ProductID: "pizza_margarita", IngredientID: "mozzarella", Consumption: 0.3},
		{ProductID: "pizza_margarita", IngredientID: "salsa_roja", Consumption: 0.2},
		{ProductID: "lasagna_bolognesa", IngredientID: "pasta_lasagna", Consumption: 6},
		{ProductID: "lasagna_bolognesa", IngredientID: "carne_molida", Consumption: 0.3},
		{ProductID: "lasagna_bolognesa", IngredientID: "salsa_roja", Consumption: 0.25},
		{ProductID: "lasagna_alfredo", IngredientID: "pasta_lasagna", Consumption: 6},
		{ProductID: "lasagna_alfredo", IngredientID: "pollo", Consumption: 0.3},
		{ProductID: "inca_kola", IngredientID: "gaseosa_500", Consumption: 1},
		{ProductID: "coca_cola", IngredientID: "gaseosa_500", Consumption: 1},
		{ProductID: "pan_al_ajo", IngredientID: "pan", Consumption: 5},
	}
}
