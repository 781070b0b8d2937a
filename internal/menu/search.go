package menu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sanmarzano/orderbot/internal/fuzzy"
	"github.com/sanmarzano/orderbot/internal/models"
)

// stopwords are filler tokens dropped before matching customer text
// against product names. Normalized form, so no accents.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "al", "algo", "ante", "asi", "aun", "bien", "buenas", "buenos",
		"como", "con", "cual", "cuanto", "de", "del", "desde", "dia", "dias",
		"dos", "el", "ella", "en", "entre", "era", "es", "esa", "ese", "eso",
		"esta", "estan", "estas", "este", "esto", "estoy", "favor", "gracias",
		"gustaria", "hacia", "hasta", "hay", "hola", "la", "las", "le", "les",
		"lo", "los", "mas", "me", "mi", "mis", "mucho", "muy", "nada", "ni",
		"no", "nos", "nosotros", "o", "os", "otra", "otro", "para", "pedir",
		"pero", "pide", "pido", "por", "porfa", "porfavor", "provecho", "pue",
		"puede", "puedes", "puedo", "que", "quiero", "quisiera", "se", "ser",
		"si", "sin", "sobre", "solo", "son", "soy", "su", "sus", "tal", "tambien",
		"tan", "tarde", "tardes", "te", "tu", "tus", "un", "una", "unas", "uno",
		"unos", "usted", "ver", "y", "ya", "yo",
	} {
		stopwords[w] = struct{}{}
	}
}

// sizeSynonyms maps each canonical size key to the normalized phrases
// customers use for it.
var sizeSynonyms = map[string][]string{
	"familiar": {"familiar", "fam", "grande familiar"},
	"grande":   {"grande", "mediana"},
	"personal": {"personal", "pequena", "chica", "individual"},
	"porcion":  {"porcion", "slice", "tajada"},
	"500ml":    {"500ml", "500 ml", "500", "medio litro", "botella chica"},
	"1.5lt":    {"1 5lt", "1 5 lt", "1 5", "litro y medio", "botella grande"},
}

// DetectSize scans customer text for a size mention among the offered
// sizes. Longer phrases are tried first so "grande familiar" does not
// resolve to "grande".
func DetectSize(text string, offered []string) string {
	norm := " " + fuzzy.Normalize(text) + " "

	type hit struct {
		size   string
		phrase string
	}
	var hits []hit
	for _, size := range offered {
		phrases := sizeSynonyms[strings.ToLower(size)]
		if len(phrases) == 0 {
			phrases = []string{fuzzy.Normalize(size)}
		}
		for _, p := range phrases {
			if strings.Contains(norm, " "+p+" ") {
				hits = append(hits, hit{size: size, phrase: p})
			}
		}
	}
	if len(hits) == 0 {
		return ""
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return len(hits[i].phrase) > len(hits[j].phrase)
	})
	return hits[0].size
}

// categoryHints maps normalized keywords to the category they imply.
var categoryHints = map[string]string{
	"pizza":     models.CategoryPizza,
	"pizzas":    models.CategoryPizza,
	"lasagna":   models.CategoryLasagna,
	"lasagnas":  models.CategoryLasagna,
	"lasana":    models.CategoryLasagna,
	"lasanas":   models.CategoryLasagna,
	"gaseosa":   models.CategoryDrink,
	"gaseosas":  models.CategoryDrink,
	"bebida":    models.CategoryDrink,
	"bebidas":   models.CategoryDrink,
	"refresco":  models.CategoryDrink,
	"tomar":     models.CategoryDrink,
	"extra":     models.CategoryExtra,
	"extras":    models.CategoryExtra,
	"adicional": models.CategoryExtra,
}

// DetectCategory returns the category a text most plausibly refers to.
func DetectCategory(text string) (string, bool) {
	for _, tok := range fuzzy.Tokenize(text) {
		if cat, ok := categoryHints[tok]; ok {
			return cat, true
		}
	}
	return "", false
}

func filterTokens(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, skip := stopwords[t]; !skip {
			out = append(out, t)
		}
	}
	return out
}

// ProductMatch is a confident hit of customer text on a menu item.
type ProductMatch struct {
	Item       models.MenuItem
	Score      int
	Confidence float64
}

// searchBlob is the text a menu item is matched against.
func searchBlob(item models.MenuItem) string {
	return item.Name + " " + item.Description + " " +
		strings.ReplaceAll(item.ID, "_", " ") + " " + strings.Join(item.Keywords, " ")
}

// FindProductMatch resolves free text to a single menu item, or nil when
// nothing matches confidently enough. Filler words and size mentions are
// stripped before scoring.
func FindProductMatch(text string, items []models.MenuItem) *ProductMatch {
	tokens := filterTokens(fuzzy.Tokenize(text))
	if len(tokens) == 0 {
		return nil
	}
	query := strings.Join(tokens, " ")

	m := fuzzy.BestMatch(query, items, searchBlob)
	if m == nil {
		return nil
	}
	nameTokens := filterTokens(fuzzy.Tokenize(m.Item.Name))
	confidence := float64(m.Score) / float64(max(1, len(nameTokens)))
	if m.Score < 2 && m.Ratio < 0.6 {
		return nil
	}
	return &ProductMatch{Item: m.Item, Score: m.Score, Confidence: confidence}
}

// MatchCartItem resolves a textual reference ("la pizza grande") to a cart
// line. A size hint found in the reference breaks ties between lines of the
// same product.
func MatchCartItem(cart []models.CartItem, reference string) *models.CartItem {
	refTokens := filterTokens(fuzzy.Tokenize(reference))
	if len(refTokens) == 0 {
		return nil
	}

	var best *models.CartItem
	bestScore := 0
	for i := range cart {
		lineTokens := fuzzy.Tokenize(cart[i].Name + " " + strings.ReplaceAll(cart[i].ID, "_", " "))
		lineSet := make(map[string]struct{}, len(lineTokens))
		for _, t := range lineTokens {
			lineSet[t] = struct{}{}
		}
		score := 0
		for _, rt := range refTokens {
			if _, ok := lineSet[rt]; ok {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = &cart[i]
		}
	}
	return best
}

// SearchCriteria narrows a menu search. Exclusions are ingredient or name
// fragments the customer asked to avoid ("sin piña").
type SearchCriteria struct {
	Query      string
	Category   string
	Exclusions []string
}

// SearchResult is one row returned to the model from a menu search.
type SearchResult struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	Prices    map[string]float64 `json:"prices"`
	PriceInfo string             `json:"price_info"`
}

func priceInfo(item models.MenuItem) string {
	if p, ok := item.Prices["solo"]; ok && len(item.Prices) == 1 {
		return fmt.Sprintf("S/ %.2f", p)
	}
	keys := item.SizeKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s S/ %.2f", k, item.Prices[k]))
	}
	return strings.Join(parts, ", ")
}

func matchesSubstring(item models.MenuItem, needle string) bool {
	return strings.Contains(fuzzy.Normalize(searchBlob(item)), needle)
}

// Search filters the menu by category, exclusions and query. When the query
// is too mangled for substring matching it falls back to the single best
// fuzzy hit, so "una lasana alfredo" still finds the lasagna.
func Search(items []models.MenuItem, criteria SearchCriteria) []SearchResult {
	filtered := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if criteria.Category != "" && item.Category != criteria.Category {
			continue
		}
		excluded := false
		for _, ex := range criteria.Exclusions {
			if needle := fuzzy.Normalize(ex); needle != "" && matchesSubstring(item, needle) {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, item)
		}
	}

	selected := filtered
	if tokens := filterTokens(fuzzy.Tokenize(criteria.Query)); len(tokens) > 0 {
		query := strings.Join(tokens, " ")
		var bySubstring []models.MenuItem
		for _, item := range filtered {
			if matchesSubstring(item, query) {
				bySubstring = append(bySubstring, item)
			}
		}
		if len(bySubstring) == 0 {
			if m := FindProductMatch(query, filtered); m != nil {
				bySubstring = []models.MenuItem{m.Item}
			}
		}
		selected = bySubstring
	}

	results := make([]SearchResult, 0, len(selected))
	for _, item := range selected {
		results = append(results, SearchResult{
			ID:        item.ID,
			Name:      item.Name,
			Category:  item.Category,
			Prices:    item.Prices,
			PriceInfo: priceInfo(item),
		})
	}
	return results
}
