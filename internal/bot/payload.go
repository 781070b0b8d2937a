package bot

import (
	"strconv"
	"strings"
)

// Interactive reply ids encode the action and its target:
//
//	cat_<category>          open a category list (first page)
//	cat_<category>_<page>   open a later page of the category
//	size_<size>_<item_id>   pick a size for an item
//	prod_<item_id>          add a single-priced product
//	prod_<item_id>__<size>  add a product at a specific size
type CategoryPayload struct {
	Category string
	Page     int
}

type SizePayload struct {
	Size   string
	ItemID string
}

type ProductPayload struct {
	ItemID string
	Size   string
}

func ParseCategoryPayload(id string) (*CategoryPayload, bool) {
	rest, ok := strings.CutPrefix(id, "cat_")
	if !ok || rest == "" {
		return nil, false
	}
	category := rest
	page := 0
	if idx := strings.LastIndex(rest, "_"); idx > 0 {
		if n, err := strconv.Atoi(rest[idx+1:]); err == nil {
			category = rest[:idx]
			page = n
		}
	}
	return &CategoryPayload{Category: category, Page: page}, true
}

func ParseSizePayload(id string) (*SizePayload, bool) {
	rest, ok := strings.CutPrefix(id, "size_")
	if !ok {
		return nil, false
	}
	size, itemID, found := strings.Cut(rest, "_")
	if !found || size == "" || itemID == "" {
		return nil, false
	}
	return &SizePayload{Size: size, ItemID: itemID}, true
}

func ParseProductPayload(id string) (*ProductPayload, bool) {
	rest, ok := strings.CutPrefix(id, "prod_")
	if !ok || rest == "" {
		return nil, false
	}
	if itemID, size, found := strings.Cut(rest, "__"); found && itemID != "" && size != "" {
		return &ProductPayload{ItemID: itemID, Size: size}, true
	}
	return &ProductPayload{ItemID: rest}, true
}
