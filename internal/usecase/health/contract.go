package health

import "context"

// DBPinger checks key-value store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SourceChecker checks an upstream provider's availability.
type SourceChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}
