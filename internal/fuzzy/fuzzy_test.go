package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "lasana alfredo", Normalize("Lasaña Alfredo"))
	assert.Equal(t, "pizza pepperoni", Normalize("  ¡Pizza, Pepperoni!  "))
	assert.Equal(t, "coca cola 500ml", Normalize("Coca-Cola 500ml"))
	assert.Equal(t, "", Normalize("¡¿?!"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"una", "lasana", "alfredo"}, Tokenize("una lasaña ALFREDO"))
	assert.Empty(t, Tokenize(""))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("pizza", "pizza"))
	assert.Equal(t, 1, Levenshtein("lasana", "lasagna"))
	assert.Equal(t, 5, Levenshtein("", "pizza"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityRatio("", ""))
	assert.Equal(t, 0.0, SimilarityRatio("pizza", ""))
	assert.Equal(t, 1.0, SimilarityRatio("pizza", "pizza"))
	assert.InDelta(t, 0.857, SimilarityRatio("lasana", "lasagna"), 0.001)
}

func TestBestMatch(t *testing.T) {
	names := []string{"Pizza Pepperoni", "Pizza Hawaiana", "Lasagna Alfredo"}

	m := BestMatch("lasaña alfredo", names, func(s string) string { return s })
	assert.NotNil(t, m)
	assert.Equal(t, "Lasagna Alfredo", m.Item)
	// "lasaña" is a typo-level hit, "alfredo" an exact one.
	assert.Equal(t, 3, m.Score)

	m = BestMatch("peperoni", names, func(s string) string { return s })
	assert.NotNil(t, m)
	assert.Equal(t, "Pizza Pepperoni", m.Item)

	assert.Nil(t, BestMatch("", names, func(s string) string { return s }))
	assert.Nil(t, BestMatch("sushi", names, func(s string) string { return s }))
}

func TestBestMatchPrefersExactOverSimilar(t *testing.T) {
	names := []string{"Pizza Grande", "Pizza Familiar"}
	m := BestMatch("pizza familiar", names, func(s string) string { return s })
	assert.NotNil(t, m)
	assert.Equal(t, "Pizza Familiar", m.Item)
	assert.Equal(t, 4, m.Score)
}
