package search

import (
	"context"

	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

// Source is any upstream provider.
type Source interface {
	Name() string
}

// Searcher runs free-text food searches against one provider.
type Searcher interface {
	Source
	Search(ctx context.Context, query string) ([]food.Raw, error)
}

// BarcodeLooker resolves UPC/EAN codes against one provider.
// An unknown code is an empty slice, not an error.
type BarcodeLooker interface {
	Source
	LookupBarcode(ctx context.Context, code string) ([]food.Raw, error)
}

// ImageFinder finds a preview image for a food page. Absent images are domain.ErrNotFound.
type ImageFinder interface {
	ImageURL(ctx context.Context, foodURL string) (string, error)
}
