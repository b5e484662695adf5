package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-invest/advisor/internal/domain"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

func (r *SubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	usage, err := json.Marshal(sub.Usage)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.Create: marshal usage: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, plan, status, message_limit, usage, period_start, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sub.ID, sub.UserID, sub.Plan, sub.Status, sub.MessageLimit, usage,
		sub.PeriodStart, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.Create: %w", err)
	}

	return nil
}

func (r *SubscriptionRepo) ActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	var usage []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, plan, status, message_limit, usage, period_start, created_at, updated_at
		 FROM subscriptions WHERE user_id = $1 AND status = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID, domain.SubscriptionActive,
	).Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.MessageLimit,
		&usage, &sub.PeriodStart, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subscriptionRepo.ActiveByUser: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.ActiveByUser: %w", err)
	}

	if len(usage) > 0 {
		if err = json.Unmarshal(usage, &sub.Usage); err != nil {
			return nil, fmt.Errorf("subscriptionRepo.ActiveByUser: unmarshal usage: %w", err)
		}
	}

	return &sub, nil
}

// UpdateUsage replaces the stored usage map. The increment itself is
// read-then-write in the quota gate; the store keeps the plain replace the
// underlying design calls for.
func (r *SubscriptionRepo) UpdateUsage(ctx context.Context, id uuid.UUID, usage map[string]int) error {
	payload, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.UpdateUsage: marshal usage: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE subscriptions SET usage = $1, updated_at = NOW() WHERE id = $2`,
		payload, id,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.UpdateUsage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriptionRepo.UpdateUsage: %w", domain.ErrNotFound)
	}

	return nil
}
