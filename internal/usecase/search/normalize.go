package search

import (
	"strings"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

// edamamBaseGrams is the reference amount Edamam reports nutrients for.
const edamamBaseGrams = 100

// Normalize maps a provider record to the canonical Food. It never fails:
// missing numbers become 0, empty optional strings become nil, and odd values
// pass through as sent.
func Normalize(raw food.Raw) food.Food {
	switch r := raw.(type) {
	case food.NutritionixCommon:
		return food.Food{
			Name:            r.FoodName,
			ServingQuantity: deref(r.ServingQty),
			ServingUnit:     unitOrDefault(r.ServingUnit),
			ImageURL:        firstNonEmpty(r.PhotoThumb, r.PhotoHighRes),
			// Common foods are keyed by name in /natural/nutrients.
			SourceID: firstOf(r.TagID, r.FoodName),
			Origin:   food.OriginNutritionixCommon,
		}
	case food.NutritionixBranded:
		return food.Food{
			Name:            r.FoodName,
			Brand:           optional(r.BrandName),
			ServingQuantity: deref(r.ServingQty),
			ServingUnit:     unitOrDefault(r.ServingUnit),
			ImageURL:        optional(r.PhotoThumb),
			SourceID:        r.NixItemID,
			Origin:          food.OriginNutritionixBranded,
		}
	case food.EdamamHint:
		qty, unit := float64(edamamBaseGrams), "g"
		if r.ServingWeight != nil {
			qty = *r.ServingWeight
		}
		return food.Food{
			Name:            r.Label,
			Brand:           optional(r.Brand),
			ServingQuantity: qty,
			ServingUnit:     unit,
			ImageURL:        optional(r.Image),
			SourceID:        r.FoodID,
			Origin:          food.OriginEdamam,
		}
	case food.OpenFoodFactsProduct:
		return food.Food{
			Name:            r.ProductName,
			Brand:           optional(firstBrand(r.Brands)),
			ServingQuantity: deref(r.ServingQuantity),
			ServingUnit:     unitOrDefault(r.QuantityUnit),
			ImageURL:        firstNonEmpty(r.ImageFrontURL, r.ImageURL),
			SourceID:        r.Code,
			Origin:          food.OriginOpenFoodFacts,
		}
	default:
		return food.Food{ServingUnit: food.DefaultServingUnit, Origin: raw.Origin()}
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func unitOrDefault(u string) string {
	if u = strings.TrimSpace(u); u == "" {
		return food.DefaultServingUnit
	}
	return u
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(vals ...string) *string {
	for _, v := range vals {
		if p := optional(v); p != nil {
			return p
		}
	}
	return nil
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstBrand picks the lead brand of a comma-separated Open Food Facts list.
func firstBrand(brands string) string {
	lead, _, _ := strings.Cut(brands, ",")
	return lead
}
