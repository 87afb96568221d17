package organization

import "context"

// Store persists the organization catalog.
type Store interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (Organization, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Organization, error)
}
