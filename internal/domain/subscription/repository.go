package subscription

import "context"

// SubscriptionRepository lookups return (nil, nil) when nothing matches.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetActiveByOwnerID(ctx context.Context, ownerID uint) ([]*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
}
