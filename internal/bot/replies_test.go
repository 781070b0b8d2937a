package bot

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pizzaFixture(n int) []models.MenuItem {
	items := make([]models.MenuItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.MenuItem{
			ID:       fmt.Sprintf("pizza_%02d", i),
			Name:     fmt.Sprintf("Pizza %02d", i),
			Category: models.CategoryPizza,
			Prices:   map[string]float64{"grande": 28, "familiar": 35},
			IsActive: true,
		})
	}
	return items
}

func TestBuildCategoryRowsPagination(t *testing.T) {
	items := pizzaFixture(12)

	page0 := BuildCategoryRows(models.CategoryPizza, items, 0)
	require.Len(t, page0, 10) // 9 items plus the "see more" row
	assert.Equal(t, "prod_pizza_00", page0[0].ID)
	assert.Equal(t, "➡️ Ver más...", page0[9].Title)
	assert.Equal(t, "cat_pizza_1", page0[9].ID)

	page1 := BuildCategoryRows(models.CategoryPizza, items, 1)
	require.Len(t, page1, 3)
	assert.Equal(t, "prod_pizza_09", page1[0].ID)

	assert.Nil(t, BuildCategoryRows(models.CategoryPizza, items, 2))
}

func TestBuildCategoryRowsDrinkSizes(t *testing.T) {
	items := []models.MenuItem{{
		ID:       "inca_kola",
		Name:     "Inca Kola",
		Category: models.CategoryDrink,
		Prices:   map[string]float64{"500ml": 5, "1.5lt": 10},
		IsActive: true,
	}}

	rows := BuildCategoryRows(models.CategoryDrink, items, 0)
	require.Len(t, rows, 2)
	ids := []string{rows[0].ID, rows[1].ID}
	assert.Contains(t, ids, "prod_inca_kola__500ml")
	assert.Contains(t, ids, "prod_inca_kola__1.5lt")
}

func TestRowTitleAndDescriptionLimits(t *testing.T) {
	items := []models.MenuItem{{
		ID:          "pizza_larga",
		Name:        "Pizza Cuatro Estaciones Especial de la Casa",
		Description: strings.Repeat("muy rica ", 20),
		Category:    models.CategoryPizza,
		Prices:      map[string]float64{"familiar": 40},
		IsActive:    true,
	}}

	rows := BuildCategoryRows(models.CategoryPizza, items, 0)
	require.Len(t, rows, 1)
	assert.LessOrEqual(t, len([]rune(rows[0].Title)), titleMax)
	assert.True(t, strings.HasSuffix(rows[0].Title, "…"))
	assert.LessOrEqual(t, len([]rune(rows[0].Description)), descMax)
	// The overflowed name leads the description so nothing is lost.
	assert.True(t, strings.HasPrefix(rows[0].Description, "Pizza Cuatro"))
}

func TestFormatCart(t *testing.T) {
	sess := models.NewSession()
	assert.Contains(t, FormatCart(sess), "vacío")

	sess.AddItem(models.CartItem{ID: "pizza_pepperoni_familiar", ProductID: "pizza_pepperoni", Name: "Pizza Pepperoni (familiar)", UnitPrice: 35, Quantity: 2})
	sess.Delivery = &models.DeliveryQuote{Cost: 5.5}

	out := FormatCart(sess)
	assert.Contains(t, out, "2x Pizza Pepperoni (familiar) (S/ 70.00)")
	assert.Contains(t, out, "Subtotal: S/ 70.00")
	assert.Contains(t, out, "Delivery: S/ 5.50")
	assert.Contains(t, out, "Total: *S/ 75.50*")
}

func TestFormatCheckoutSummaryMissingPieces(t *testing.T) {
	sess := models.NewSession()
	sess.AddItem(models.CartItem{ID: "lasagna_alfredo", ProductID: "lasagna_alfredo", Name: "Lasagna Alfredo", UnitPrice: 21, Quantity: 1})

	assert.Contains(t, FormatCheckoutSummary(sess), "¿A nombre de quién")

	sess.Name = "Ana"
	assert.Contains(t, FormatCheckoutSummary(sess), "¿A qué dirección")

	sess.OrderAddress = "Jr. Lima 123"
	assert.Contains(t, FormatCheckoutSummary(sess), "Comparte tu ubicación para calcular")

	sess.Delivery = &models.DeliveryQuote{Location: models.Location{Lat: -12, Lng: -77}, DistanceKm: 2.1, Cost: 3.5}
	out := FormatCheckoutSummary(sess)
	assert.Contains(t, out, "Jr. Lima 123")
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "*confirmar*")
}

func TestSizeButtons(t *testing.T) {
	item := &models.MenuItem{
		ID:       "pizza_pepperoni",
		Name:     "Pizza Pepperoni",
		Category: models.CategoryPizza,
		Prices:   map[string]float64{"grande": 28, "familiar": 35},
	}
	buttons := sizeButtons(item)
	require.Len(t, buttons, 2)
	for _, b := range buttons {
		assert.True(t, strings.HasPrefix(b.ID, "size_"))
		assert.True(t, strings.HasSuffix(b.ID, "_pizza_pepperoni"))
		assert.LessOrEqual(t, len([]rune(b.Title)), 20)
	}
}
