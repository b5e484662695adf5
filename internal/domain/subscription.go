package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageKeyAIMessages is the usage-map key counting advisory questions for the
// current billing period.
const UsageKeyAIMessages = "ai_messages"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription holds a user's AI plan and its usage counters. MessageLimit
// nil means unlimited. Usage is a free-form counter map; increments are
// read-then-write, not atomic.
type Subscription struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Plan         string
	Status       SubscriptionStatus
	MessageLimit *int
	Usage        map[string]int
	PeriodStart  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AIMessages returns the current advisory-question count.
func (s *Subscription) AIMessages() int {
	if s.Usage == nil {
		return 0
	}
	return s.Usage[UsageKeyAIMessages]
}

// Unlimited reports whether the plan has no message cap.
func (s *Subscription) Unlimited() bool {
	return s.MessageLimit == nil
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	// ActiveByUser returns the user's active subscription, ErrNotFound if none.
	ActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	// UpdateUsage replaces the subscription's usage map.
	UpdateUsage(ctx context.Context, id uuid.UUID, usage map[string]int) error
}
