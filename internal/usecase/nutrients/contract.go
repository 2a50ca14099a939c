package nutrients

import (
	"context"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

// Parser turns a natural-language food description into nutrient totals.
// An unrecognized description is domain.ErrNotFound.
type Parser interface {
	Name() string
	Nutrients(ctx context.Context, query string) (food.NutrientProfile, error)
}
