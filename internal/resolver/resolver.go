package resolver

import (
	"context"

	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/store"
	"github.com/polyglot-labs/award-watcher/internal/store/schema"
)

// Resolver maps a blockchain address to a platform user
//
//go:generate mockgen -source=resolver.go -destination=../mocks/resolver.go -package=mocks -mock_names=Resolver=MockResolver
type Resolver interface {
	// ByAddress finds the user owning an address. Lookup is case-insensitive.
	// Returns (nil, nil) when no user matches.
	ByAddress(ctx context.Context, address string) (*schema.User, error)
}

type storeResolver struct {
	store store.Store
}

// New creates a resolver backed by the user store
func New(st store.Store) Resolver {
	return &storeResolver{store: st}
}

func (r *storeResolver) ByAddress(ctx context.Context, address string) (*schema.User, error) {
	return r.store.FindUserByAddress(ctx, domain.NormalizeAddress(address))
}
