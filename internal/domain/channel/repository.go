package channel

import "context"

type ChannelCredentialRepository interface {
	Create(ctx context.Context, credential *ChannelCredential) error
	Update(ctx context.Context, credential *ChannelCredential) error
	// ListActiveBySubscription returns active credentials ordered by channel type.
	ListActiveBySubscription(ctx context.Context, subscriptionID uint) ([]*ChannelCredential, error)
}
