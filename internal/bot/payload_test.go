package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategoryPayload(t *testing.T) {
	p, ok := ParseCategoryPayload("cat_pizza")
	require.True(t, ok)
	assert.Equal(t, "pizza", p.Category)
	assert.Equal(t, 0, p.Page)

	p, ok = ParseCategoryPayload("cat_drink_2")
	require.True(t, ok)
	assert.Equal(t, "drink", p.Category)
	assert.Equal(t, 2, p.Page)

	_, ok = ParseCategoryPayload("size_grande_x")
	assert.False(t, ok)
}

func TestParseSizePayload(t *testing.T) {
	p, ok := ParseSizePayload("size_familiar_pizza_pepperoni")
	require.True(t, ok)
	assert.Equal(t, "familiar", p.Size)
	assert.Equal(t, "pizza_pepperoni", p.ItemID)

	_, ok = ParseSizePayload("size_familiar")
	assert.False(t, ok)
}

func TestParseProductPayload(t *testing.T) {
	p, ok := ParseProductPayload("prod_lasagna_alfredo")
	require.True(t, ok)
	assert.Equal(t, "lasagna_alfredo", p.ItemID)
	assert.Empty(t, p.Size)

	p, ok = ParseProductPayload("prod_inca_kola__500ml")
	require.True(t, ok)
	assert.Equal(t, "inca_kola", p.ItemID)
	assert.Equal(t, "500ml", p.Size)

	_, ok = ParseProductPayload("cat_pizza")
	assert.False(t, ok)
}
