package menu

import (
	"testing"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMenu() []models.MenuItem {
	return []models.MenuItem{
		{
			ID:       "lasagna_alfredo",
			Name:     "Lasagna Alfredo",
			Category: models.CategoryLasagna,
			Keywords: []string{"lasaña", "alfredo"},
			Prices:   map[string]float64{"solo": 21},
		},
		{
			ID:       "pizza_pepperoni",
			Name:     "Pizza Pepperoni",
			Category: models.CategoryPizza,
			Prices:   map[string]float64{"grande": 28, "familiar": 35},
		},
		{
			ID:          "pizza_hawaiana",
			Name:        "Pizza Hawaiana",
			Description: "Jamón y piña",
			Category:    models.CategoryPizza,
			Prices:      map[string]float64{"grande": 27, "familiar": 34},
		},
		{
			ID:       "inca_kola",
			Name:     "Inca Kola",
			Category: models.CategoryDrink,
			Prices:   map[string]float64{"500ml": 5, "1.5lt": 10},
		},
	}
}

func TestSearchResolvesTyposToSingleItem(t *testing.T) {
	queries := []string{
		"lasaña alfredo",
		"lasagna alfredo",
		"una lasaña alfredo",
		"una lasana alfredo",
	}
	for _, q := range queries {
		results := Search(testMenu(), SearchCriteria{Query: q})
		require.Len(t, results, 1, "query %q", q)
		assert.Equal(t, "lasagna_alfredo", results[0].ID, "query %q", q)
	}
}

func TestSearchByCategory(t *testing.T) {
	results := Search(testMenu(), SearchCriteria{Category: models.CategoryPizza})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, models.CategoryPizza, r.Category)
	}
}

func TestSearchHonorsExclusions(t *testing.T) {
	results := Search(testMenu(), SearchCriteria{Category: models.CategoryPizza, Exclusions: []string{"piña"}})
	require.Len(t, results, 1)
	assert.Equal(t, "pizza_pepperoni", results[0].ID)
}

func TestSearchEmptyForNonsense(t *testing.T) {
	assert.Empty(t, Search(testMenu(), SearchCriteria{Query: "hamburguesa doble"}))
}

func TestSearchPriceInfo(t *testing.T) {
	results := Search(testMenu(), SearchCriteria{Query: "lasagna alfredo"})
	require.Len(t, results, 1)
	assert.Equal(t, "S/ 21.00", results[0].PriceInfo)

	results = Search(testMenu(), SearchCriteria{Query: "pepperoni"})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].PriceInfo, "familiar S/ 35.00")
	assert.Contains(t, results[0].PriceInfo, "grande S/ 28.00")
}

func TestFindProductMatch(t *testing.T) {
	m := FindProductMatch("quiero una pizza peperoni", testMenu())
	require.NotNil(t, m)
	assert.Equal(t, "pizza_pepperoni", m.Item.ID)

	assert.Nil(t, FindProductMatch("quiero un ceviche", testMenu()))
	assert.Nil(t, FindProductMatch("hola buenas", testMenu()))
}

func TestDetectSize(t *testing.T) {
	assert.Equal(t, "familiar", DetectSize("una familiar de pepperoni", []string{"grande", "familiar"}))
	assert.Equal(t, "grande", DetectSize("la mediana porfa", []string{"grande", "familiar"}))
	assert.Equal(t, "", DetectSize("una pizza", []string{"grande", "familiar"}))
	assert.Equal(t, "500ml", DetectSize("inca kola de medio litro", []string{"500ml", "1.5lt"}))
}

func TestDetectCategory(t *testing.T) {
	cat, ok := DetectCategory("que pizzas tienen")
	require.True(t, ok)
	assert.Equal(t, models.CategoryPizza, cat)

	cat, ok = DetectCategory("algo para tomar")
	require.True(t, ok)
	assert.Equal(t, models.CategoryDrink, cat)

	_, ok = DetectCategory("cuanto cuesta el envio")
	assert.False(t, ok)
}

func TestMatchCartItem(t *testing.T) {
	cart := []models.CartItem{
		{ID: "pizza_pepperoni_familiar", Name: "Pizza Pepperoni Familiar"},
		{ID: "pizza_hawaiana_grande", Name: "Pizza Hawaiana Grande"},
	}

	hit := MatchCartItem(cart, "la hawaiana")
	require.NotNil(t, hit)
	assert.Equal(t, "pizza_hawaiana_grande", hit.ID)

	hit = MatchCartItem(cart, "pizza pepperoni")
	require.NotNil(t, hit)
	assert.Equal(t, "pizza_pepperoni_familiar", hit.ID)

	assert.Nil(t, MatchCartItem(cart, "lasagna"))
}
