package nutrisearch

import "github.com/kailas-cloud/nutrisearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrNotFound          = domain.ErrNotFound
	ErrSourceUnavailable = domain.ErrSourceUnavailable
	ErrNoSources         = domain.ErrNoSources
)
