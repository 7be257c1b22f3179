package valueobjects

import "fmt"

// Unlimited marks a plan limit without an upper bound.
const Unlimited = -1

type PlanTier string

const (
	PlanTierBasic      PlanTier = "basic"
	PlanTierPro        PlanTier = "pro"
	PlanTierEnterprise PlanTier = "enterprise"
)

// PlanLimits is the static quota table attached to a tier.
type PlanLimits struct {
	MaxInstances   int
	MaxChannels    int
	FeatureQuota   int
	StorageQuotaMB int
}

var planLimits = map[PlanTier]PlanLimits{
	PlanTierBasic:      {MaxInstances: 1, MaxChannels: 1, FeatureQuota: 1000, StorageQuotaMB: 1024},
	PlanTierPro:        {MaxInstances: 5, MaxChannels: 5, FeatureQuota: 10000, StorageQuotaMB: 10240},
	PlanTierEnterprise: {MaxInstances: Unlimited, MaxChannels: Unlimited, FeatureQuota: Unlimited, StorageQuotaMB: Unlimited},
}

func ParsePlanTier(s string) (PlanTier, error) {
	t := PlanTier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid plan tier: %q", s)
	}
	return t, nil
}

func (t PlanTier) String() string {
	return string(t)
}

func (t PlanTier) IsValid() bool {
	_, ok := planLimits[t]
	return ok
}

// Limits returns the quota table for t. Unknown tiers get zero limits.
func (t PlanTier) Limits() PlanLimits {
	return planLimits[t]
}

func (t PlanTier) InstanceLimit() (limit int, unbounded bool) {
	l := t.Limits().MaxInstances
	return l, l == Unlimited
}

func (t PlanTier) ChannelLimit() (limit int, unbounded bool) {
	l := t.Limits().MaxChannels
	return l, l == Unlimited
}
