package company

import "context"

// Provider reads directory data for the matching engine. Implementations
// return (nil, nil) when a lookup finds nothing.
type Provider interface {
	// GetByOwner returns the company owned by userID.
	GetByOwner(ctx context.Context, userID int64) (*Company, error)
	// Get returns a company by id.
	Get(ctx context.Context, id int64) (*Company, error)
	// ListEligible returns every company other than excludeID whose validation
	// status is in statuses, ordered by id.
	ListEligible(ctx context.Context, excludeID int64, statuses []string) ([]Company, error)
}
