package food

// Origin identifies the provider a record came from.
type Origin string

// Known origins.
const (
	OriginNutritionixCommon  Origin = "nutritionix_common"
	OriginNutritionixBranded Origin = "nutritionix_branded"
	OriginEdamam             Origin = "edamam"
	OriginOpenFoodFacts      Origin = "openfoodfacts"
)

// DefaultServingUnit is used when a provider omits the serving unit.
const DefaultServingUnit = "serving"

// IsValid checks if the origin is one of the known providers.
func (o Origin) IsValid() bool {
	switch o {
	case OriginNutritionixCommon, OriginNutritionixBranded, OriginEdamam, OriginOpenFoodFacts:
		return true
	}
	return false
}

// DefaultPriority is the source order used for deduplication when none is configured.
func DefaultPriority() []Origin {
	return []Origin{
		OriginNutritionixCommon,
		OriginNutritionixBranded,
		OriginEdamam,
		OriginOpenFoodFacts,
	}
}

// Food is the canonical, provider-agnostic food record.
// Name and ServingUnit are always set; numeric fields are never absent.
type Food struct {
	Name            string
	Brand           *string
	ServingQuantity float64
	ServingUnit     string
	ImageURL        *string
	SourceID        string
	Origin          Origin
}

// NutrientProfile holds per-serving nutrients. Energy in kcal, everything else in grams.
type NutrientProfile struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Fiber    float64
	Sugar    float64
	Sodium   float64
}

// Add returns the element-wise sum of two profiles.
func (p NutrientProfile) Add(o NutrientProfile) NutrientProfile {
	return NutrientProfile{
		Calories: p.Calories + o.Calories,
		Protein:  p.Protein + o.Protein,
		Carbs:    p.Carbs + o.Carbs,
		Fat:      p.Fat + o.Fat,
		Fiber:    p.Fiber + o.Fiber,
		Sugar:    p.Sugar + o.Sugar,
		Sodium:   p.Sodium + o.Sodium,
	}
}

// Scale multiplies every nutrient by f.
func (p NutrientProfile) Scale(f float64) NutrientProfile {
	return NutrientProfile{
		Calories: p.Calories * f,
		Protein:  p.Protein * f,
		Carbs:    p.Carbs * f,
		Fat:      p.Fat * f,
		Fiber:    p.Fiber * f,
		Sugar:    p.Sugar * f,
		Sodium:   p.Sodium * f,
	}
}

// MilligramsToGrams converts a milligram reading (sodium is commonly reported in mg).
func MilligramsToGrams(mg float64) float64 { return mg / 1000 }
