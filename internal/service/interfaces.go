package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"marketwatch/internal/domain"
)

// Source fetches one batch of listings from the upstream marketplace.
type Source interface {
	Name() string
	FetchListings(ctx context.Context) ([]domain.Listing, error)
}

// ListingStore appends enriched listings to durable append-only storage.
// A nil error means the records are durably written.
type ListingStore interface {
	AppendListings(ctx context.Context, listings []domain.Listing) error
}

// Ledger tracks every listing ID ever persisted. LoadSeen must return an
// empty set, not an error, when no prior state exists. AppendSeen only
// ever adds; IDs are never removed.
type Ledger interface {
	LoadSeen(ctx context.Context) (map[string]struct{}, error)
	AppendSeen(ctx context.Context, ids []string) error
}

// Publisher emits newly persisted high-risk listings for downstream
// consumers.
type Publisher interface {
	Publish(ctx context.Context, listing *domain.Listing) error
	Close() error
}
