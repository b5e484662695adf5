package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vantage-invest/advisor/internal/domain"
)

// UnlimitedRemaining is the Remaining sentinel for uncapped plans.
const UnlimitedRemaining = -1

// Access is the quota view for one user.
type Access struct {
	HasAccess bool `json:"has_access"`
	// Remaining is max(0, limit-usage), or -1 for unlimited plans.
	Remaining int  `json:"remaining"`
	Limit     *int `json:"limit"` // nil = unlimited
	Unlimited bool `json:"unlimited"`
}

// QuotaGate reads and increments per-user advisory usage. The increment is a
// read-modify-write over the stored usage map; concurrent completions from
// the same user can under-count by the degree of concurrency, which is an
// accepted soft-limit trade-off rather than a correctness violation.
type QuotaGate struct {
	subs domain.SubscriptionRepository
}

func NewQuotaGate(subs domain.SubscriptionRepository) *QuotaGate {
	return &QuotaGate{subs: subs}
}

// CheckAccess reads the user's active subscription and current usage. A user
// with no active AI subscription reports no access with a zero limit.
func (g *QuotaGate) CheckAccess(ctx context.Context, userID uuid.UUID) (Access, error) {
	sub, err := g.subs.ActiveByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		zero := 0
		return Access{HasAccess: false, Remaining: 0, Limit: &zero}, nil
	}
	if err != nil {
		return Access{}, fmt.Errorf("advisor.QuotaGate.CheckAccess: %w", err)
	}

	if sub.Unlimited() {
		return Access{HasAccess: true, Remaining: UnlimitedRemaining, Unlimited: true}, nil
	}

	limit := *sub.MessageLimit
	remaining := limit - sub.AIMessages()
	if remaining < 0 {
		remaining = 0
	}

	return Access{
		HasAccess: remaining > 0,
		Remaining: remaining,
		Limit:     sub.MessageLimit,
	}, nil
}

// RecordUsage increments the user's advisory-question counter. Invoked only
// after a successful synthesis, never speculatively and never on failure.
func (g *QuotaGate) RecordUsage(ctx context.Context, userID uuid.UUID, amount int) error {
	sub, err := g.subs.ActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("advisor.QuotaGate.RecordUsage: %w", err)
	}

	usage := make(map[string]int, len(sub.Usage)+1)
	for k, v := range sub.Usage {
		usage[k] = v
	}
	usage[domain.UsageKeyAIMessages] += amount

	if err := g.subs.UpdateUsage(ctx, sub.ID, usage); err != nil {
		return fmt.Errorf("advisor.QuotaGate.RecordUsage: %w", err)
	}

	return nil
}
