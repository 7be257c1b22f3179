package subscription

import (
	"fmt"
	"time"

	vo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/id"
)

// Subscription represents the subscription aggregate root
type Subscription struct {
	id            uint
	sid           string
	ownerID       uint
	planTier      vo.PlanTier
	status        vo.SubscriptionStatus
	startDate     time.Time
	renewalDate   time.Time
	autoRenew     bool
	failureReason string
	version       int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSubscription creates an inactive subscription that becomes active once paid.
func NewSubscription(ownerID uint, tier vo.PlanTier, startDate, renewalDate time.Time, autoRenew bool) (*Subscription, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	if !tier.IsValid() {
		return nil, fmt.Errorf("invalid plan tier: %s", tier)
	}
	if renewalDate.Before(startDate) {
		return nil, fmt.Errorf("renewal date must be after start date")
	}

	sid, err := id.NewSubscriptionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription ID: %w", err)
	}

	now := time.Now().UTC()
	return &Subscription{
		sid:         sid,
		ownerID:     ownerID,
		planTier:    tier,
		status:      vo.StatusInactive,
		startDate:   startDate,
		renewalDate: renewalDate,
		autoRenew:   autoRenew,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// SubscriptionReconstructParams carries persisted state back into the aggregate.
type SubscriptionReconstructParams struct {
	ID            uint
	SID           string
	OwnerID       uint
	PlanTier      vo.PlanTier
	Status        vo.SubscriptionStatus
	StartDate     time.Time
	RenewalDate   time.Time
	AutoRenew     bool
	FailureReason string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func ReconstructSubscription(p SubscriptionReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.OwnerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}
	if !p.Status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.PlanTier.IsValid() {
		return nil, fmt.Errorf("invalid plan tier: %s", p.PlanTier)
	}

	return &Subscription{
		id:            p.ID,
		sid:           p.SID,
		ownerID:       p.OwnerID,
		planTier:      p.PlanTier,
		status:        p.Status,
		startDate:     p.StartDate,
		renewalDate:   p.RenewalDate,
		autoRenew:     p.AutoRenew,
		failureReason: p.FailureReason,
		version:       p.Version,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint { return s.id }
func (s *Subscription) SID() string { return s.sid }
func (s *Subscription) OwnerID() uint { return s.ownerID }
func (s *Subscription) PlanTier() vo.PlanTier { return s.planTier }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) StartDate() time.Time { return s.startDate }
func (s *Subscription) RenewalDate() time.Time { return s.renewalDate }
func (s *Subscription) AutoRenew() bool { return s.autoRenew }
func (s *Subscription) FailureReason() string { return s.failureReason }
func (s *Subscription) Version() int { return s.version }
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time { return s.updatedAt }

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

// IsActive reports whether tenants on this subscription may use their instances.
func (s *Subscription) IsActive() bool {
	return s.status == vo.StatusActive
}

// Activate is idempotent: activating an active subscription is a no-op.
func (s *Subscription) Activate() error {
	if s.status == vo.StatusActive {
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusActive) {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	s.status = vo.StatusActive
	s.failureReason = ""
	s.touch()
	return nil
}

// MarkFailed records that the paid-for instance could not be provisioned.
func (s *Subscription) MarkFailed(reason string) error {
	if s.status == vo.StatusFailed {
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusFailed) {
		return ErrInvalidTransition(s.status.String(), vo.StatusFailed.String())
	}

	s.status = vo.StatusFailed
	s.failureReason = reason
	s.touch()
	return nil
}

func (s *Subscription) Cancel() error {
	if s.status == vo.StatusCancelled {
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}

	s.status = vo.StatusCancelled
	s.autoRenew = false
	s.touch()
	return nil
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}
