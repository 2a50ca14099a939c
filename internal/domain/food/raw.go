package food

// Raw is a provider record as decoded at the transport boundary.
// The set of implementations is closed: NutritionixCommon, NutritionixBranded,
// EdamamHint and OpenFoodFactsProduct.
type Raw interface {
	Origin() Origin
	sealed()
}

// NutritionixCommon is an item of the "common" list of /v2/search/instant.
type NutritionixCommon struct {
	FoodName     string
	ServingQty   *float64
	ServingUnit  string
	TagID        string
	PhotoThumb   string
	PhotoHighRes string
}

// NutritionixBranded is an item of the "branded" list of /v2/search/instant
// or of /v2/search/item.
type NutritionixBranded struct {
	FoodName    string
	BrandName   string
	ServingQty  *float64
	ServingUnit string
	NixItemID   string
	PhotoThumb  string
	Calories    *float64
}

// EdamamHint is a "hints[].food" entry of the Edamam food-database parser.
type EdamamHint struct {
	FoodID   string
	Label    string
	Brand    string
	Category string
	Image    string
	// Edamam reports nutrients per 100g; the hint has no serving of its own.
	ServingWeight *float64
}

// OpenFoodFactsProduct is a product of the Open Food Facts API.
type OpenFoodFactsProduct struct {
	Code            string
	ProductName     string
	Brands          string
	ServingQuantity *float64
	ServingSize     string
	QuantityUnit    string
	ImageURL        string
	ImageFrontURL   string
}

// Origin implements Raw.
func (NutritionixCommon) Origin() Origin { return OriginNutritionixCommon }

// Origin implements Raw.
func (NutritionixBranded) Origin() Origin { return OriginNutritionixBranded }

// Origin implements Raw.
func (EdamamHint) Origin() Origin { return OriginEdamam }

// Origin implements Raw.
func (OpenFoodFactsProduct) Origin() Origin { return OriginOpenFoodFacts }

func (NutritionixCommon) sealed()    {}
func (NutritionixBranded) sealed()   {}
func (EdamamHint) sealed()           {}
func (OpenFoodFactsProduct) sealed() {}
