package nutrisearch

// Origin names the provider a food came from.
type Origin string

// Origin constants, in default deduplication priority.
const (
	OriginNutritionixCommon  Origin = "nutritionix_common"
	OriginNutritionixBranded Origin = "nutritionix_branded"
	OriginEdamam             Origin = "edamam"
	OriginOpenFoodFacts      Origin = "openfoodfacts"
)

// Food is a provider-agnostic food record.
type Food struct {
	Name            string
	Brand           string // empty when unknown
	ServingQuantity float64
	ServingUnit     string
	ImageURL        string // empty when unknown
	SourceID        string
	Origin          Origin
}

// Page is one page of deduplicated foods.
type Page struct {
	Foods    []Food
	Page     int
	PageSize int
	HasMore  bool
}

// Nutrients is a nutrient profile. Energy in kcal, everything else in grams.
type Nutrients struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Fiber    float64
	Sugar    float64
	Sodium   float64
}
