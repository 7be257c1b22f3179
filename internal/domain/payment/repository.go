package payment

import "context"

type PaymentOrderRepository interface {
	Create(ctx context.Context, order *PaymentOrder) error
	Update(ctx context.Context, order *PaymentOrder) error
	// GetByOrderNo returns (nil, nil) when the order does not exist.
	GetByOrderNo(ctx context.Context, orderNo string) (*PaymentOrder, error)
}
