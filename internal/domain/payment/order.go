package payment

import (
	"fmt"
	"time"

	vo "github.com/hatchery-inc/hatchery/internal/domain/payment/valueobjects"
)

// PaymentOrder is created by the payment gateway adapters. This service only
// reads it and records that the paid-for instance was provisioned.
type PaymentOrder struct {
	id             uint
	orderNo        string
	subscriptionID uint
	ownerID        uint
	status         vo.OrderStatus
	paidAt         *time.Time
	provisionedAt  *time.Time
	version        int
	createdAt      time.Time
	updatedAt      time.Time
}

func NewPaymentOrder(orderNo string, subscriptionID, ownerID uint) (*PaymentOrder, error) {
	if orderNo == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}

	now := time.Now().UTC()
	return &PaymentOrder{
		orderNo:        orderNo,
		subscriptionID: subscriptionID,
		ownerID:        ownerID,
		status:         vo.OrderStatusPending,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

type PaymentOrderReconstructParams struct {
	ID             uint
	OrderNo        string
	SubscriptionID uint
	OwnerID        uint
	Status         vo.OrderStatus
	PaidAt         *time.Time
	ProvisionedAt  *time.Time
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructPaymentOrder(p PaymentOrderReconstructParams) (*PaymentOrder, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("payment order ID cannot be zero")
	}
	if !p.Status.IsValid() {
		return nil, fmt.Errorf("invalid order status: %s", p.Status)
	}
	return &PaymentOrder{
		id:             p.ID,
		orderNo:        p.OrderNo,
		subscriptionID: p.SubscriptionID,
		ownerID:        p.OwnerID,
		status:         p.Status,
		paidAt:         p.PaidAt,
		provisionedAt:  p.ProvisionedAt,
		version:        p.Version,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (o *PaymentOrder) ID() uint {
	return o.id
}

func (o *PaymentOrder) OrderNo() string {
	return o.orderNo
}

func (o *PaymentOrder) SubscriptionID() uint {
	return o.subscriptionID
}

func (o *PaymentOrder) OwnerID() uint {
	return o.ownerID
}

func (o *PaymentOrder) Status() vo.OrderStatus {
	return o.status
}

func (o *PaymentOrder) PaidAt() *time.Time {
	return o.paidAt
}

func (o *PaymentOrder) ProvisionedAt() *time.Time {
	return o.provisionedAt
}

func (o *PaymentOrder) Version() int {
	return o.version
}

func (o *PaymentOrder) CreatedAt() time.Time {
	return o.createdAt
}

func (o *PaymentOrder) UpdatedAt() time.Time {
	return o.updatedAt
}

// SetID sets the order ID (only for persistence layer use)
func (o *PaymentOrder) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("payment order ID is already set")
	}
	o.id = id
	return nil
}

func (o *PaymentOrder) IsProvisioned() bool {
	return o.provisionedAt != nil
}

// MarkPaid is idempotent for orders that are already paid.
func (o *PaymentOrder) MarkPaid() error {
	if o.status == vo.OrderStatusPaid {
		return nil
	}
	if o.status != vo.OrderStatusPending {
		return fmt.Errorf("%w: order %s is %s", ErrOrderNotPayable, o.orderNo, o.status)
	}

	now := time.Now().UTC()
	o.status = vo.OrderStatusPaid
	o.paidAt = &now
	o.touch(now)
	return nil
}

func (o *PaymentOrder) MarkProvisioned() error {
	if o.provisionedAt != nil {
		return nil
	}
	if o.status != vo.OrderStatusPaid {
		return fmt.Errorf("%w: order %s is %s", ErrOrderNotPaid, o.orderNo, o.status)
	}

	now := time.Now().UTC()
	o.provisionedAt = &now
	o.touch(now)
	return nil
}

func (o *PaymentOrder) touch(now time.Time) {
	o.updatedAt = now
	o.version++
}
