package valueobjects

type SubscriptionStatus string

const (
	StatusInactive  SubscriptionStatus = "inactive"
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusFailed    SubscriptionStatus = "failed"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

var statusTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusInactive:  {StatusTrial, StatusActive, StatusFailed},
	StatusTrial:     {StatusActive, StatusCancelled, StatusExpired, StatusFailed},
	StatusActive:    {StatusCancelled, StatusExpired, StatusFailed},
	StatusExpired:   {StatusActive},
	StatusFailed:    {StatusActive},
	StatusCancelled: {},
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s SubscriptionStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}
