package model

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// transitions is the operator transition table. Terminal states have no entry.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// NextStatuses returns the statuses an operator may select from s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether s -> next is in the transition table.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}
